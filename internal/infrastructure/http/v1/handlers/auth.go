package handlers

import (
	"github.com/gin-gonic/gin"

	"uniformshop/internal/core/apperror"
	appctx "uniformshop/internal/core/context"
	"uniformshop/internal/core/id"
	"uniformshop/internal/domain/auth"
	"uniformshop/internal/infrastructure/http/v1/dto"
	"uniformshop/internal/infrastructure/http/v1/middleware"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{
		Token: dto.FromToken(token),
		User:  dto.FromUser(user),
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	userCtx := appctx.GetUser(ctx)
	if userCtx == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}
	userID, err := id.Parse(userCtx.UserID)
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("invalid user in token"))
		return
	}

	user, err := h.service.GetUserByID(ctx, userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(user))
}

// CreateUser handles POST /auth/users (admin)
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req.ToAuthRequest())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromUser(user))
}

// ListUsers handles GET /auth/users (admin)
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]*dto.UserResponse, len(users))
	for i, u := range users {
		out[i] = dto.FromUser(u)
	}
	h.OK(c, gin.H{"items": out})
}

// RegisterRoutes registers auth routes. login is throttled per client IP.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup, loginLimit gin.HandlerFunc) {
	authPublic := public.Group("/auth")
	authPublic.POST("/login", loginLimit, h.Login)

	authProtected := protected.Group("/auth")
	authProtected.GET("/me", h.Me)

	users := authProtected.Group("/users", middleware.RequirePermission(auth.PermUsersManage))
	users.GET("", h.ListUsers)
	users.POST("", h.CreateUser)
}
