package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest carries credentials; IP and UserAgent are filled from the
// request for the audit trail.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// TokenPair is issued on login and on every refresh. The refresh token is
// single use; presenting it rotates the pair.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// LoginResponse adds the caller's profile to the issued pair.
type LoginResponse struct {
	TokenPair
	User UserInfo `json:"user"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

type RefreshTokenResponse struct {
	TokenPair
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// RequestMeta carries client details recorded in audit logs.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// UserInfo is the profile echoed on login and by /auth/me.
type UserInfo struct {
	ID        string   `json:"id"`
	CompanyID *string  `json:"company_id,omitempty"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Role      UserRole `json:"role"`
}

// JWTClaims is the access token payload. CompanyID is empty for super admins.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	CompanyID string   `json:"company_id,omitempty"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	jwt.RegisteredClaims
}
