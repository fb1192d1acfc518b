package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timeguard/internal/model"
)

// CategoryRepository tracks which categories a user files tasks under.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Touch records one use of the category, creating it on first use.
func (r *CategoryRepository) Touch(ctx context.Context, userID uint, name string, at time.Time) error {
	if name == "" {
		return nil
	}
	category := model.Category{UserID: userID, Name: name, Uses: 1, LastUsedAt: at}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"uses":         gorm.Expr("uses + 1"),
			"last_used_at": at,
		}),
	}).Create(&category).Error
	if err != nil {
		return fmt.Errorf("touch category %q: %w", name, err)
	}
	return nil
}

// ListByUser returns the user's categories, most used first.
func (r *CategoryRepository) ListByUser(ctx context.Context, userID uint) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("uses DESC, last_used_at DESC, name ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// TopNames returns up to n category names in ListByUser order.
func (r *CategoryRepository) TopNames(ctx context.Context, userID uint, n int) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&model.Category{}).Where("user_id = ?", userID).
		Order("uses DESC, last_used_at DESC, name ASC").
		Limit(n).
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}
