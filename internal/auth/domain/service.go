package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Profile(ctx context.Context) (*Profile, error)

	// VerifyToken validates a bearer token and returns the business it was
	// issued to.
	VerifyToken(token string) (snowflake.ID, error)
}

type RegisterRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	BusinessName string `json:"business_name"`
}

type LoginRequest struct {
	Login    string `json:"login"` // username or email
	Password string `json:"password"`
}

type Profile struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	BusinessName string    `json:"business_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type AuthResponse struct {
	Token    string  `json:"token"`
	Business Profile `json:"business"`
}

var (
	ErrInvalidUsername     = errors.New("invalid_username")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidPassword     = errors.New("invalid_password")
	ErrInvalidBusinessName = errors.New("invalid_business_name")
	ErrUserExists          = errors.New("user_exists")
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrInvalidToken        = errors.New("invalid_token")
	ErrTokenExpired        = errors.New("token_expired")
	ErrNotFound            = errors.New("not_found")
)
