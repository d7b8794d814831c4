package db

import "time"

type Session struct {
	ID         uint      `gorm:"primaryKey"`
	GameKey    string    `gorm:"size:64;not null;uniqueIndex:idx_sessions_triple"`
	PlayerKey  string    `gorm:"size:64;not null;uniqueIndex:idx_sessions_triple"`
	SessionKey string    `gorm:"size:64;not null;uniqueIndex:idx_sessions_triple"`
	JoinedAt   time.Time `gorm:"not null"`
	LastActive time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
