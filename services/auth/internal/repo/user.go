package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/services/auth/internal/models"
)

// CreateUser inserts the user together with its profile row. The unique email
// index decides duplicates, so the DB must be opened with TranslateError.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUserAlreadyExist
			}
			return err
		}

		u.Profile.UserID = u.ID
		return tx.Create(&u.Profile).Error
	})
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserById(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Preload("Profile").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// PromoteToAdmin sets the admin role and a new password on an existing user.
func (r *GormRepo) PromoteToAdmin(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"role": models.RoleAdmin, "password_hash": passwordHash})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) CountUsers(ctx context.Context) (total, admins int64, err error) {
	if err = r.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = r.DB.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
		return 0, 0, err
	}
	return total, admins, nil
}

func (r *GormRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	return r.DB.WithContext(ctx).Save(p).Error
}
