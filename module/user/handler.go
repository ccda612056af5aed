package user

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"UzChat/logger"
	"UzChat/middleware"
	midsec "UzChat/middleware/security"
	"UzChat/module/user/service"
	"UzChat/service/storage"
)

// Handler serves the account and profile routes.
type Handler struct {
	Store storage.Store
}

func NewHandler(store storage.Store) *Handler { return &Handler{Store: store} }

// HandlerRegister handles POST /api/users/register.
func (h *Handler) HandlerRegister(c *gin.Context) {
	var in service.RegisterParams
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username and password are required"})
		return
	}
	u, err := service.Register(c.Request.Context(), h.Store, in)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	logger.Infof("[user] registered id=%s username=%s", u.ID, u.Username)
	c.JSON(http.StatusCreated, gin.H{"message": "user created", "user": u})
}

// HandlerLogin handles POST /api/users/login.
func (h *Handler) HandlerLogin(c *gin.Context) {
	var in service.LoginParams
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username and password are required"})
		return
	}
	res, err := service.Login(c.Request.Context(), h.Store, in)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	logger.Infof("[user] login id=%s username=%s admin=%v", res.User.ID, res.User.Username, res.User.IsAdmin)
	c.JSON(http.StatusOK, res)
}

// HandlerMe handles GET /api/auth/user: the caller's own record.
func (h *Handler) HandlerMe(c *gin.Context) {
	u, err := h.Store.GetUser(c.Request.Context(), midsec.CallerID(c))
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// HandlerSearch handles GET /api/users/search?q=. Queries shorter than
// two characters return an empty list rather than an error.
func (h *Handler) HandlerSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if len(query) < 2 {
		c.JSON(http.StatusOK, []any{})
		return
	}
	users, err := h.Store.SearchUsers(c.Request.Context(), query, midsec.CallerID(c))
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// HandlerAll handles GET /api/users/all: every account except the caller.
func (h *Handler) HandlerAll(c *gin.Context) {
	all, err := h.Store.GetAllUsers(c.Request.Context())
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	callerID := midsec.CallerID(c)
	others := all[:0]
	for _, u := range all {
		if u.ID != callerID {
			others = append(others, u)
		}
	}
	c.JSON(http.StatusOK, others)
}

// HandlerProfile handles POST /api/users/profile.
func (h *Handler) HandlerProfile(c *gin.Context) {
	var in service.UpdateProfileParams
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid profile payload"})
		return
	}
	u, err := service.UpdateProfile(c.Request.Context(), h.Store, midsec.CallerID(c), in)
	if err != nil {
		middleware.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
