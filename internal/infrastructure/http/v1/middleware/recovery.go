// Package middleware provides HTTP middleware components.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"uniformshop/internal/core/apperror"
	"uniformshop/pkg/logger"
)

// Recovery turns a handler panic into an INTERNAL_ERROR for ErrorHandler.
// The stack goes to the log only.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			// The client went away mid-response; nothing left to answer.
			if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(r)
			}

			logger.Error(c.Request.Context(), "panic recovered",
				"panic", r,
				"method", c.Request.Method,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)
			_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", r)).
				WithDetail("request_id", c.GetString("request_id")))
			c.Abort()
		}()
		c.Next()
	}
}
