package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/services/order/internal/models"
	"github.com/Skotchmaster/storefront/services/order/internal/transport"
)

type GormRepo struct {
	DB *gorm.DB
}

// CreateOrder stores the order, its items and the first timeline entry together.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order, note string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  order.Status,
			Note:    note,
		}).Error
	})
}

func itemsFirst(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC, id ASC")
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Scopes(itemsFirst).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) listOrders(ctx context.Context, where func(*gorm.DB) *gorm.DB, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Scopes(where).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	if err := r.DB.WithContext(ctx).
		Scopes(where, itemsFirst).
		Order("created_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	return r.listOrders(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}, offset, limit)
}

// ListAll lists every order, optionally narrowed to one status.
func (r *GormRepo) ListAll(ctx context.Context, status string, offset, limit int) (int64, []models.Order, error) {
	return r.listOrders(ctx, func(db *gorm.DB) *gorm.DB {
		if status == "" {
			return db
		}
		return db.Where("status = ?", status)
	}, offset, limit)
}

func (r *GormRepo) Timeline(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error) {
	entries := []models.OrderStatusEvent{}
	err := r.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// ChangeStatus locks the order, lets check veto the change and then records the
// new status, tracking number and timeline entry in one transaction.
func (r *GormRepo) ChangeStatus(ctx context.Context, id uuid.UUID, to, note, tracking string, check func(*models.Order) error) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&order).Error; err != nil {
			return err
		}
		if err := check(&order); err != nil {
			return err
		}

		updates := map[string]any{"status": to}
		if tracking != "" {
			updates["tracking_number"] = tracking
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusEvent{OrderID: order.ID, Status: to, Note: note}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, id)
}

func (r *GormRepo) Stats(ctx context.Context, top, recent int) (*transport.OrderStats, error) {
	db := r.DB.WithContext(ctx)
	stats := &transport.OrderStats{ByStatus: map[string]int64{}}

	var counts []transport.StatusCount
	if err := db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, s := range models.Statuses {
		stats.ByStatus[s] = 0
	}
	var active int64
	for _, c := range counts {
		stats.ByStatus[c.Status] = c.Count
		stats.TotalOrders += c.Count
		if c.Status != models.StatusCancelled {
			active += c.Count
		}
	}

	var revenue struct{ Sum int64 }
	if err := db.Model(&models.Order{}).
		Select("CAST(COALESCE(SUM(total), 0) AS BIGINT) AS sum").
		Where("status <> ?", models.StatusCancelled).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	stats.Revenue = revenue.Sum
	if active > 0 {
		stats.AverageOrderValue = stats.Revenue / active
	}

	stats.TopProducts = []transport.TopProduct{}
	if err := db.Table("order_items").
		Select("order_items.product_id, MAX(order_items.name) AS name, CAST(SUM(order_items.quantity) AS BIGINT) AS quantity, CAST(SUM(order_items.line_total) AS BIGINT) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", models.StatusCancelled).
		Group("order_items.product_id").
		Order("quantity DESC, revenue DESC").
		Limit(top).
		Scan(&stats.TopProducts).Error; err != nil {
		return nil, err
	}

	stats.RecentOrders = make([]models.Order, 0, recent)
	if err := db.Scopes(itemsFirst).
		Order("created_at DESC, id ASC").
		Limit(recent).
		Find(&stats.RecentOrders).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
