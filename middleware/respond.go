package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"UzChat/logger"
	"UzChat/tools/errs"
)

// WriteError maps a CodeError onto its HTTP status and writes the JSON
// error body. Unclassified errors become 500 and are logged with stack.
func WriteError(c *gin.Context, err error) {
	var status int
	switch {
	case errs.ErrBadRequest.Is(err), errs.ErrRecordExists.Is(err):
		status = http.StatusBadRequest
	case errs.ErrUnauthorized.Is(err):
		status = http.StatusUnauthorized
	case errs.ErrForbidden.Is(err):
		status = http.StatusForbidden
	case errs.ErrNotFound.Is(err):
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
		logger.Errorf("[http] %s %s err=%+v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"message": err.Error()})
}
