package auth

import (
	"context"

	"uniformshop/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	// GetByEmail expects a normalized address.
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Update writes login bookkeeping and profile fields.
	Update(ctx context.Context, user *User) error
	List(ctx context.Context) ([]*User, error)
	Exists(ctx context.Context, email string) (bool, error)
}
