package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"UzChat/global"
	"UzChat/logger"
	"UzChat/middleware"
	chatapi "UzChat/module/chat"
	userapi "UzChat/module/user"
	"UzChat/service/chat"
	"UzChat/service/chat/handlers"
	"UzChat/service/storage"
	"UzChat/tools/safe"
)

func main() {
	global.ConfigAll()
	conf := global.Config

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewPgStore(ctx, conf.PostgresDSN)
	if err != nil {
		logger.Errorf("[boot] postgres connect: %v", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Errorf("[boot] ensure schema: %v", err)
		os.Exit(1)
	}

	if conf.RedisAddr != "" {
		if err := storage.InitRedis(storage.RedisConfig{
			Addr:     conf.RedisAddr,
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
		}); err != nil {
			logger.Warnf("[boot] redis unavailable, presence mirror disabled: %v", err)
		}
	}

	gw := chat.NewGateway(store, chat.Config{
		PingInterval:  conf.PingInterval,
		PongWait:      conf.PongWait,
		WriteWait:     conf.WriteWait,
		AuthWait:      conf.AuthWait,
		SendQueueSize: conf.SendQueueSize,
	})
	handlers.RegisterAll(gw)

	engine := buildEngine(store, gw)

	srv := &http.Server{Addr: conf.ListenAddr, Handler: engine}
	safe.SafeGo(func() {
		logger.Infof("[boot] listening on %s", conf.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("[boot] serve: %v", err)
			stop()
		}
	})

	<-ctx.Done()
	logger.Info("[boot] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("[boot] shutdown: %v", err)
	}
}

func buildEngine(store *storage.PgStore, gw *chat.Gateway) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.Origin())

	userH := userapi.NewHandler(store)
	chatH := chatapi.NewHandler(store, gw)

	api := engine.Group("/api")
	auth := middleware.RouteOpt{IsAuth: true}
	admin := middleware.RouteOpt{IsAdmin: true}
	open := middleware.RouteOpt{}

	middleware.POST(api, "/users/register", userH.HandlerRegister, open)
	middleware.POST(api, "/users/login", userH.HandlerLogin, open)
	middleware.GET(api, "/auth/user", userH.HandlerMe, auth)
	middleware.GET(api, "/users/search", userH.HandlerSearch, auth)
	middleware.GET(api, "/users/all", userH.HandlerAll, auth)
	middleware.POST(api, "/users/profile", userH.HandlerProfile, auth)

	middleware.GET(api, "/chats", chatH.HandlerListChats, auth)
	middleware.POST(api, "/chats", chatH.HandlerCreateChat, auth)
	middleware.GET(api, "/chats/:id/messages", chatH.HandlerGetMessages, auth)
	middleware.POST(api, "/chats/:id/messages", chatH.HandlerSendMessage, auth)
	middleware.POST(api, "/messages/:id/read", chatH.HandlerMarkRead, auth)

	middleware.GET(api, "/admin/stats", chatH.HandlerAdminStats, admin)
	middleware.GET(api, "/admin/users", chatH.HandlerAdminUsers, admin)
	middleware.GET(api, "/admin/users/:id/presence", chatH.HandlerAdminPresence, admin)
	middleware.POST(api, "/admin/users/:id/make-admin", chatH.HandlerMakeAdmin, admin)

	engine.GET("/ws", gw.HandleWS)
	return engine
}
