package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/services/auth/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	UserID       uuid.UUID
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
}

// RefreshResponse is the body of POST /refresh, read by pkg/authclient.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccessExp    int64  `json:"access_exp"`
	RefreshExp   int64  `json:"refresh_exp"`
	IsAdmin      bool   `json:"is_admin"`
}

type UpdateProfileRequest struct {
	FullName  *string         `json:"full_name"`
	Phone     *string         `json:"phone"`
	AvatarURL *string         `json:"avatar_url"`
	Address   *models.Address `json:"address"`
}

type MeResponse struct {
	ID        uuid.UUID          `json:"id"`
	Email     string             `json:"email"`
	Role      string             `json:"role"`
	CreatedAt time.Time          `json:"created_at"`
	Profile   models.UserProfile `json:"profile"`
}

type UserStats struct {
	TotalUsers int64 `json:"total_users"`
	Admins     int64 `json:"admins"`
}
