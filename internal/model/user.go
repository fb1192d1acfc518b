package model

import "time"

// User stores Telegram user metadata. Duration statistics are never stored here;
// they are recomputed from the user's tasks on demand.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Tasks      []Task `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
