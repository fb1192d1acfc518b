package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timeguard/internal/model"
	"timeguard/internal/predictor"
)

// BundleRepository stores prediction model bundles in the database. It
// satisfies predictor.Store; each save is a single upsert in a transaction.
type BundleRepository struct {
	db *gorm.DB
}

func NewBundleRepository(db *gorm.DB) *BundleRepository {
	return &BundleRepository{db: db}
}

func (r *BundleRepository) Save(ctx context.Context, userID uint, b *predictor.Bundle) error {
	if r == nil || r.db == nil {
		return predictor.ErrStoreUnconfigured
	}
	payload, err := predictor.EncodeBundle(b)
	if err != nil {
		return err
	}
	row := model.ModelBundle{
		UserID:    userID,
		Version:   b.Version,
		Payload:   payload,
		Trained:   b.Trained,
		Samples:   b.Samples,
		TrainedAt: b.TrainedAt,
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("save model bundle: %w", err)
	}
	return nil
}

func (r *BundleRepository) Load(ctx context.Context, userID uint) (*predictor.Bundle, error) {
	if r == nil || r.db == nil {
		return nil, predictor.ErrStoreUnconfigured
	}
	var row model.ModelBundle
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, predictor.ErrBundleNotFound
		}
		return nil, fmt.Errorf("load model bundle: %w", err)
	}
	return predictor.DecodeBundle(row.Payload)
}

// Stamp is the version column of the user's row.
func (r *BundleRepository) Stamp(ctx context.Context, userID uint) (string, error) {
	if r == nil || r.db == nil {
		return "", predictor.ErrStoreUnconfigured
	}
	var versions []string
	if err := r.db.WithContext(ctx).Model(&model.ModelBundle{}).
		Where("user_id = ?", userID).
		Pluck("version", &versions).Error; err != nil {
		return "", fmt.Errorf("load model bundle version: %w", err)
	}
	if len(versions) == 0 {
		return "", nil
	}
	return versions[0], nil
}
