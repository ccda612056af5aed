package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"UzChat/global"
	jwtlib "UzChat/tools/security"
)

// Context keys the downstream handlers read the caller identity from.
const (
	CtxUserIDKey  = "authUserId"
	CtxIsAdminKey = "authIsAdmin"
)

type Options struct {
	HeaderToken               string // default "Authorization"
	EnableAuthorizationBearer bool   // accept "Bearer <token>", default true
	RequireAdmin              bool
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               "Authorization",
		EnableAuthorizationBearer: true,
	}
}

func AdminOptions() *Options {
	o := DefaultOptions()
	o.RequireAdmin = true
	return o
}

// Middleware verifies the request's JWT and stores the caller identity in
// the gin context. Missing or invalid tokens abort with 401; admin-only
// routes abort with 403 for non-admin callers.
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	jwtOpts := jwtlib.Options{Secret: global.GetJwtSecret()}
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))
		if opts.EnableAuthorizationBearer && strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[len("bearer "):])
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		userID, isAdmin, err := jwtlib.Verify(jwtOpts, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		if opts.RequireAdmin && !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}

		c.Set(CtxUserIDKey, userID)
		c.Set(CtxIsAdminKey, isAdmin)
		c.Next()
	}
}

// CallerID returns the authenticated user id set by Middleware.
func CallerID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// CallerIsAdmin reports whether the authenticated caller is an admin.
func CallerIsAdmin(c *gin.Context) bool {
	return c.GetBool(CtxIsAdminKey)
}
