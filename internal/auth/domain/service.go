package domain

import (
	"context"
	"time"
)

type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserView, error)
	UpdateUser(ctx context.Context, userID string, req UpdateUserRequest) (*UserView, error)
	ListUsers(ctx context.Context) ([]UserView, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	// Authenticate resolves a raw session token to the identity it belongs
	// to, refreshing the session's last-seen time.
	Authenticate(ctx context.Context, rawToken string) (*Identity, error)
	ChangePassword(ctx context.Context, userID string, currentPassword, newPassword string) error
}

type CreateUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Password    string `json:"password"`
}

// UpdateUserRequest carries partial user edits; nil fields stay untouched.
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role"`
}

type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

type LoginResult struct {
	Identity  Identity
	RawToken  string
	ExpiresAt time.Time
}

// UserView is the client-safe projection of a User.
type UserView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}
