package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExist      = errors.New("user already exist")
	ErrTokenExpiredOrRevoked = errors.New("token expired or revoked")
)

type GormRepo struct {
	DB *gorm.DB
}
