package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"      json:"id"`
	Email        string      `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string      `gorm:"not null"                  json:"-"`
	Role         string      `gorm:"not null"                  json:"role"`
	CreatedAt    time.Time   `                                 json:"created_at"`
	Profile      UserProfile `gorm:"foreignKey:UserID"         json:"profile"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type UserProfile struct {
	UserID    uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"user_id"`
	FullName  string                      `                            json:"full_name"`
	Phone     string                      `                            json:"phone"`
	AvatarURL string                      `                            json:"avatar_url"`
	Address   datatypes.JSONType[Address] `                            json:"address"`
	UpdatedAt time.Time                   `                            json:"updated_at"`
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"     json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null"     json:"jti"`
	ExpiresAt int64     `gorm:"not null"                 json:"expires_at"`
	Revoked   bool      `gorm:"default:false"            json:"revoked"`
	CreatedAt time.Time `                                json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func All() []any {
	return []any{&User{}, &UserProfile{}, &RefreshToken{}}
}
