package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/services/cart/internal/models"
)

// ErrLimitExceeded is returned when an add would push a line past its cap.
var ErrLimitExceeded = errors.New("line quantity limit exceeded")

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// addQuantity bumps an existing line or inserts a new one, keeping the stored
// quantity at or below limit. item is reloaded with the stored row.
func addQuantity(tx *gorm.DB, item *models.CartItem, limit int) error {
	var existing models.CartItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if item.Quantity > limit {
			return ErrLimitExceeded
		}
		return tx.Create(item).Error
	}
	if err != nil {
		return err
	}

	if existing.Quantity+item.Quantity > limit {
		return ErrLimitExceeded
	}
	existing.Quantity += item.Quantity
	if err := tx.Model(&existing).Update("quantity", existing.Quantity).Error; err != nil {
		return err
	}
	*item = existing
	return nil
}

func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem, limit int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return addQuantity(tx, item, limit)
	})
}

// MergeItems adds every line to the user's cart in one transaction. A line
// over the limit rolls back the whole merge.
func (r *GormRepo) MergeItems(ctx context.Context, items []models.CartItem, limit int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range items {
			if err := addQuantity(tx, &items[i], limit); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetQuantity overwrites the quantity of an existing line. A quantity of zero
// deletes it and returns a nil item.
func (r *GormRepo) SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			First(&item).Error; err != nil {
			return err
		}
		if qty == 0 {
			return tx.Delete(&item).Error
		}
		item.Quantity = qty
		return tx.Model(&item).Update("quantity", qty).Error
	})
	if err != nil {
		return nil, err
	}
	if qty == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *GormRepo) DeleteOneFromCart(ctx context.Context, productID uuid.UUID, userID uuid.UUID) (bool, *models.CartItem, error) {
	var item models.CartItem
	deleted := false

	if err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ? AND user_id = ?", productID, userID).
			First(&item).Error; err != nil {
			return err
		}
		if item.Quantity > 1 {
			if err := tx.Model(&item).Update("quantity", gorm.Expr("quantity - 1")).Error; err != nil {
				return err
			}
			return tx.Where("product_id = ? AND user_id = ?", productID, userID).First(&item).Error
		}
		deleted = true
		return tx.Delete(&item).Error
	}); err != nil {
		return false, nil, err
	}
	return deleted, &item, nil
}

func (r *GormRepo) RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) error {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteAllFromCart(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
