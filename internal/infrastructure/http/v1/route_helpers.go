// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"uniformshop/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for catalog handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// DocumentRouteHandler defines the interface for document handlers.
// Documents are never edited in place; they only move through their status machine.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	UpdateStatus(c *gin.Context)
}

// DocumentPermissions names the permission guarding each document route.
type DocumentPermissions struct {
	Read   string
	Create string
	Status string
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
//
// Usage:
//
//	handler := handlers.NewProductHandler(baseHandler, productService)
//	RegisterCatalogRoutes(catalogs.Group("/products"), handler, auth.PermCatalogRead, auth.PermCatalogWrite)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, readPerm, writePerm string) {
	group.GET("", middleware.RequirePermission(readPerm), handler.List)
	group.POST("", middleware.RequirePermission(writePerm), handler.Create)
	group.GET("/:id", middleware.RequirePermission(readPerm), handler.Get)
	group.PUT("/:id", middleware.RequirePermission(writePerm), handler.Update)
	group.DELETE("/:id", middleware.RequirePermission(writePerm), handler.Delete)
}

// RegisterDocumentRoutes registers create, read and status routes for a document.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler, perms DocumentPermissions) {
	group.GET("", middleware.RequirePermission(perms.Read), handler.List)
	group.POST("", middleware.RequirePermission(perms.Create), handler.Create)
	group.GET("/:id", middleware.RequirePermission(perms.Read), handler.Get)
	group.POST("/:id/status", middleware.RequirePermission(perms.Status), handler.UpdateStatus)
}
