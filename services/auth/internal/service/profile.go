package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/services/auth/internal/models"
	"github.com/Skotchmaster/storefront/services/auth/internal/transport"
)

func validPhone(p string) bool {
	for _, r := range p {
		switch {
		case r >= '0' && r <= '9':
		case strings.ContainsRune("+-() ", r):
		default:
			return false
		}
	}
	return true
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	p, err := s.Repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: profile %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return p, nil
}

// UpdateProfile applies the non-nil fields of req.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req transport.UpdateProfileRequest) (*models.UserProfile, error) {
	if req.Phone != nil && !validPhone(*req.Phone) {
		return nil, fmt.Errorf("%w: phone may contain digits, spaces and +-() only", ErrValidation)
	}
	if req.AvatarURL != nil && *req.AvatarURL != "" {
		u, err := url.Parse(*req.AvatarURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, fmt.Errorf("%w: avatar_url must be an http(s) url", ErrValidation)
		}
	}

	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		p.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		p.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.AvatarURL != nil {
		p.AvatarURL = *req.AvatarURL
	}
	if req.Address != nil {
		p.Address = datatypes.NewJSONType(*req.Address)
	}

	if err := s.Repo.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
