// Package dto provides data transfer objects for HTTP API.
package dto

import (
	"time"

	"uniformshop/internal/domain/auth"
)

// --- Request DTOs ---

// LoginRequest for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{
		Email:    r.Email,
		Password: r.Password,
	}
}

// CreateUserRequest for creating an employee account (admin only).
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=admin manager staff"`
}

// ToAuthRequest converts to domain request.
func (r *CreateUserRequest) ToAuthRequest() auth.CreateUserRequest {
	return auth.CreateUserRequest{
		Email:    r.Email,
		Password: r.Password,
		Name:     r.Name,
		Role:     auth.Role(r.Role),
	}
}

// --- Response DTOs ---

// TokenResponse represents an issued access token.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
}

// FromToken creates response from domain token.
func FromToken(t *auth.Token) *TokenResponse {
	return &TokenResponse{
		AccessToken: t.AccessToken,
		ExpiresAt:   t.ExpiresAt,
		TokenType:   t.TokenType,
	}
}

// UserResponse represents user in API response.
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// FromUser creates response from domain user.
func FromUser(u *auth.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		Permissions: u.Permissions(),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// LoginResponse includes token and user info.
type LoginResponse struct {
	Token *TokenResponse `json:"token"`
	User  *UserResponse  `json:"user"`
}
