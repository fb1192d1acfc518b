package model

import "time"

// Category is a normalized task category a user has filed tasks under.
// Uses counts task creations and drives the order categories are offered in.
type Category struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     uint   `gorm:"index:idx_user_category_name,unique"`
	Name       string `gorm:"index:idx_user_category_name,unique"`
	Uses       int    `gorm:"not null;default:0"`
	LastUsedAt time.Time
	CreatedAt  time.Time
}
