package middleware

import (
	"github.com/gin-gonic/gin"

	"uniformshop/internal/core/apperror"
	appctx "uniformshop/internal/core/context"
)

// RequirePermission middleware checks if user has required permission.
// Admins automatically have all permissions.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		if user.IsAdmin || hasPermission(c, permission) {
			c.Next()
			return
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_permission", permission),
		)
		c.Abort()
	}
}

// RequireAnyPermission middleware checks if user has any of the required permissions.
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		if user.IsAdmin {
			c.Next()
			return
		}

		for _, required := range permissions {
			if hasPermission(c, required) {
				c.Next()
				return
			}
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_permissions", permissions),
		)
		c.Abort()
	}
}

// hasPermission checks the permissions stored by the Auth middleware.
// They come from JWT claims.
func hasPermission(c *gin.Context, permission string) bool {
	perms, _ := c.Get("permissions")
	list, _ := perms.([]string)
	for _, p := range list {
		if p == permission {
			return true
		}
	}
	return false
}
