package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/events"
	pkg_hash "github.com/Skotchmaster/storefront/pkg/hash"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/Skotchmaster/storefront/services/auth/internal/models"
	"github.com/Skotchmaster/storefront/services/auth/internal/repo"
	"github.com/Skotchmaster/storefront/services/auth/internal/transport"
)

var (
	ErrValidation          = errors.New("validation")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

const (
	minPasswordLen = 6
	// bcrypt only accepts inputs up to 72 bytes.
	maxPasswordLen = 72
)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	Events        events.Publisher
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid email required", ErrValidation)
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, maxPasswordLen)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, email, password, models.RoleUser, strings.TrimSpace(fullName))
	if err != nil {
		return nil, err
	}

	e := events.New(events.UserRegistered)
	e.UserID = user.ID.String()
	events.Emit(ctx, s.Events, events.TopicUser, e.UserID, e)

	l.Info("register_success", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, email, password, role, fullName string) (*models.User, error) {
	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
		Profile:      models.UserProfile{FullName: fullName},
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

// CreateAdmin creates an admin account, or promotes an existing account and resets its password.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	existing, err := s.Repo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.createUser(ctx, email, password, models.RoleAdmin, "")
	case err != nil:
		return nil, err
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.Repo.PromoteToAdmin(ctx, existing.ID, pwHash); err != nil {
		return nil, err
	}
	existing.Role = models.RoleAdmin
	return existing, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*transport.LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	res, refresh, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefresh(ctx, refresh); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return res, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The old refresh
// token is revoked in the same transaction that stores the new one.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	stored, err := s.Repo.FindRefreshByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown token", ErrInvalidRefreshToken)
		}
		return nil, err
	}
	if stored.Token != jwthelp.Sha256Hex(refreshToken) {
		return nil, fmt.Errorf("%w: token mismatch", ErrInvalidRefreshToken)
	}

	user, err := s.Repo.GetUserById(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user gone", ErrInvalidRefreshToken)
		}
		return nil, err
	}

	res, newRefresh, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, newRefresh); err != nil {
		if errors.Is(err, repo.ErrTokenExpiredOrRevoked) || errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_rejected", "user_id", user.ID, "reason", err.Error())
			return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
		}
		return nil, err
	}
	return res, nil
}

func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefresh(ctx, refreshToken)
}

func (s *AuthService) issueTokens(user *models.User) (*transport.LoginResult, *models.RefreshToken, error) {
	now := time.Now()
	accessExp := now.Add(tokens.AccessTTL)
	refreshExp := now.Add(tokens.RefreshTTL)

	access, err := tokens.NewAccessToken(s.JWTSecret, user.ID.String(), user.Role, accessExp)
	if err != nil {
		return nil, nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, jti, err := tokens.NewRefreshToken(s.RefreshSecret, user.ID.String(), refreshExp)
	if err != nil {
		return nil, nil, fmt.Errorf("sign refresh token: %w", err)
	}

	stored := &models.RefreshToken{
		Token:     jwthelp.Sha256Hex(refresh),
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	}
	return &transport.LoginResult{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      user.Role == models.RoleAdmin,
	}, stored, nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*transport.MeResponse, error) {
	user, err := s.Repo.GetUserById(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return &transport.MeResponse{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		Profile:   user.Profile,
	}, nil
}

func (s *AuthService) Stats(ctx context.Context) (*transport.UserStats, error) {
	total, admins, err := s.Repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	return &transport.UserStats{TotalUsers: total, Admins: admins}, nil
}

// PurgeTokens removes revoked and expired refresh tokens.
func (s *AuthService) PurgeTokens(ctx context.Context) (int64, error) {
	return s.Repo.PurgeRefreshTokens(ctx, time.Now())
}
