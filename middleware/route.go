package middleware

import (
	"github.com/gin-gonic/gin"

	midsec "UzChat/middleware/security"
)

// RouteOpt selects the guard for a route.
type RouteOpt struct {
	IsAuth  bool
	IsAdmin bool
}

func (o RouteOpt) guards() []gin.HandlerFunc {
	switch {
	case o.IsAdmin:
		return []gin.HandlerFunc{midsec.Middleware(midsec.AdminOptions())}
	case o.IsAuth:
		return []gin.HandlerFunc{midsec.Middleware(midsec.DefaultOptions())}
	default:
		return nil
	}
}

func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.GET(path, append(opt.guards(), handler)...)
}

func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.POST(path, append(opt.guards(), handler)...)
}

func PUT(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.PUT(path, append(opt.guards(), handler)...)
}
