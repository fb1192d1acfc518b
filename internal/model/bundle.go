package model

import "time"

// ModelBundle is the stored form of a user's trained prediction model.
type ModelBundle struct {
	UserID    uint   `gorm:"primaryKey;autoIncrement:false"`
	Version   string `gorm:"size:36"`
	Payload   []byte `gorm:"not null"`
	Trained   bool
	Samples   int
	TrainedAt time.Time
	UpdatedAt time.Time
}
