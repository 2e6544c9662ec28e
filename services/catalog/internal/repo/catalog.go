package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/services/catalog/internal/models"
	"github.com/Skotchmaster/storefront/services/catalog/internal/transport"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func applyFilter(q *gorm.DB, f transport.ProductFilter) *gorm.DB {
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Featured != nil {
		q = q.Where("featured = ?", *f.Featured)
	}
	if f.InStock {
		q = q.Where("stock > 0")
	}
	return q
}

func orderFor(sort string) string {
	switch sort {
	case transport.SortPriceAsc:
		return "price ASC, id ASC"
	case transport.SortPriceDesc:
		return "price DESC, id ASC"
	case transport.SortRating:
		return "rating DESC, reviews_count DESC, id ASC"
	case transport.SortName:
		return "name ASC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

func (r *GormRepo) ListProducts(ctx context.Context, f transport.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := applyFilter(r.DB.WithContext(ctx).Model(&models.Product{}), f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := applyFilter(r.DB.WithContext(ctx).Model(&models.Product{}), f).
		Order(orderFor(f.Sort)).
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}

// SearchProducts matches q as a case-insensitive substring of name, description or category.
func (r *GormRepo) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	pattern := likePattern(q)
	where := func(db *gorm.DB) *gorm.DB {
		return db.Where(
			`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Scopes(where).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Scopes(where).
		Order(clause.Expr{
			SQL:  "CASE WHEN LOWER(name) LIKE ? ESCAPE '\\' THEN 0 ELSE 1 END, name ASC",
			Vars: []any{pattern},
		}).
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) Categories(ctx context.Context) ([]transport.CategoryCount, error) {
	var out []transport.CategoryCount
	err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Select("category, COUNT(*) AS count").
		Where("category <> ''").
		Group("category").
		Order("category ASC").
		Scan(&out).Error
	return out, err
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Save(prod).Error
}

// UpsertProducts inserts products or overwrites existing rows with the same id.
func (r *GormRepo) UpsertProducts(ctx context.Context, prods []models.Product) error {
	if len(prods) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "price", "compare_at_price", "category", "images", "rating", "reviews_count", "stock", "featured", "updated_at"}),
	}).Create(&prods).Error
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdjustStock adds sign*quantity to the stock of each product. Stock never drops
// below zero and unknown products are skipped. It returns the ids it changed.
func (r *GormRepo) AdjustStock(ctx context.Context, changes []transport.StockChange, sign int) ([]uuid.UUID, error) {
	var touched []uuid.UUID
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ch := range changes {
			if ch.Quantity <= 0 {
				continue
			}
			var expr clause.Expr
			if sign < 0 {
				expr = gorm.Expr("CASE WHEN stock > ? THEN stock - ? ELSE 0 END", ch.Quantity, ch.Quantity)
			} else {
				expr = gorm.Expr("stock + ?", ch.Quantity)
			}
			res := tx.Model(&models.Product{}).Where("id = ?", ch.ProductID).Update("stock", expr)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				touched = append(touched, ch.ProductID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return touched, nil
}

func (r *GormRepo) Stats(ctx context.Context, lowStock int) (*transport.CatalogStats, error) {
	var stats transport.CatalogStats
	db := r.DB.WithContext(ctx)

	if err := db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Product{}).Where("stock <= 0").Count(&stats.OutOfStock).Error; err != nil {
		return nil, err
	}
	stats.LowStock = []models.Product{}
	if err := db.Model(&models.Product{}).
		Where("stock <= ?", lowStock).
		Order("stock ASC, name ASC").
		Find(&stats.LowStock).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
