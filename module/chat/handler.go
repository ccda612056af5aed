package chat

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"UzChat/logger"
	"UzChat/middleware"
	midsec "UzChat/middleware/security"
	"UzChat/module/chat/service"
	usersvc "UzChat/module/user/service"
	"UzChat/service/storage"
)

// Gateway is the slice of the websocket gateway the HTTP layer uses:
// pushing server-built envelopes and answering liveness queries.
type Gateway interface {
	service.Notifier
	IsOnline(userID string) bool
}

// Handler serves the chat, message and admin routes.
type Handler struct {
	Store storage.Store
	GW    Gateway
}

func NewHandler(store storage.Store, gw Gateway) *Handler {
	return &Handler{Store: store, GW: gw}
}

// HandlerListChats handles GET /api/chats: the caller's chats ordered by
// recent activity, each with last message, unread count and roster.
func (h *Handler) HandlerListChats(c *gin.Context) {
	chats, err := h.Store.GetUserChats(c.Request.Context(), midsec.CallerID(c))
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

// HandlerCreateChat handles POST /api/chats.
func (h *Handler) HandlerCreateChat(c *gin.Context) {
	var in service.CreateChatParams
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid chat payload"})
		return
	}
	chat, err := service.CreateChat(c.Request.Context(), h.Store, midsec.CallerID(c), in)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

// HandlerGetMessages handles GET /api/chats/:id/messages.
func (h *Handler) HandlerGetMessages(c *gin.Context) {
	chatID, ok := pathID(c, "id", "invalid chat id")
	if !ok {
		return
	}
	msgs, err := service.GetMessages(c.Request.Context(), h.Store, chatID, midsec.CallerID(c))
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// HandlerSendMessage handles POST /api/chats/:id/messages.
func (h *Handler) HandlerSendMessage(c *gin.Context) {
	chatID, ok := pathID(c, "id", "invalid chat id")
	if !ok {
		return
	}
	var in struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "message content is required"})
		return
	}
	event, err := service.SendMessage(c.Request.Context(), h.Store, h.GW, chatID, midsec.CallerID(c), in.Content)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// HandlerMarkRead handles POST /api/messages/:id/read.
func (h *Handler) HandlerMarkRead(c *gin.Context) {
	messageID, ok := pathID(c, "id", "invalid message id")
	if !ok {
		return
	}
	if err := h.Store.MarkMessageAsRead(c.Request.Context(), messageID, midsec.CallerID(c)); err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandlerAdminStats handles GET /api/admin/stats.
func (h *Handler) HandlerAdminStats(c *gin.Context) {
	stats, err := service.GetAdminStats(c.Request.Context(), h.Store)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HandlerAdminUsers handles GET /api/admin/users.
func (h *Handler) HandlerAdminUsers(c *gin.Context) {
	users, err := h.Store.GetAllUsers(c.Request.Context())
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// HandlerAdminPresence handles GET /api/admin/users/:id/presence: the
// live registry view, plus the redis mirror when one is configured.
func (h *Handler) HandlerAdminPresence(c *gin.Context) {
	userID := c.Param("id")
	out := gin.H{"userId": userID, "online": h.GW.IsOnline(userID)}
	if storage.RedisEnabled() {
		lastSeenMS, online, err := storage.PresenceLookup(userID)
		if err != nil {
			logger.Warnf("[http] presence mirror lookup user=%s err=%v", userID, err)
		} else {
			out["mirror"] = gin.H{"online": online, "lastSeenMs": lastSeenMS}
		}
	}
	c.JSON(http.StatusOK, out)
}

// HandlerMakeAdmin handles POST /api/admin/users/:id/make-admin.
func (h *Handler) HandlerMakeAdmin(c *gin.Context) {
	if err := usersvc.MakeAdmin(c.Request.Context(), h.Store, c.Param("id")); err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func pathID(c *gin.Context, name, msg string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": msg})
		return 0, false
	}
	return id, true
}
