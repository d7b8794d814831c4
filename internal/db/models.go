package db

import (
	"time"

	"gorm.io/datatypes"
)

type Game struct {
	ID           uint           `gorm:"primaryKey"`
	GameKey      string         `gorm:"size:64;uniqueIndex;not null"`
	Creator      string         `gorm:"size:64;not null"`
	Status       string         `gorm:"size:32;not null"`
	Mode         string         `gorm:"size:16;not null"`
	Config       datatypes.JSON `gorm:"type:jsonb;not null"`
	Revision     int64          `gorm:"not null;default:0"`
	SeedImageURL string         `gorm:"size:2048"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
	Players      []Player
	Turns        []Turn
	Images       []Image
	Events       []Event
}

type Player struct {
	ID          uint      `gorm:"primaryKey"`
	GameID      uint      `gorm:"index;not null;uniqueIndex:idx_players_game_key"`
	PlayerKey   string    `gorm:"size:64;not null;uniqueIndex:idx_players_game_key"`
	DisplayName string    `gorm:"size:64;not null;uniqueIndex:idx_players_game_name"`
	JoinedAt    time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type Turn struct {
	ID             uint      `gorm:"primaryKey"`
	GameID         uint      `gorm:"index;not null;uniqueIndex:idx_turns_game_number"`
	Number         int       `gorm:"not null;uniqueIndex:idx_turns_game_number"`
	PlayerKey      string    `gorm:"size:64;not null"`
	Kind           string    `gorm:"size:16;not null"`
	Text           string    `gorm:"size:280;not null"`
	CharacterCount int       `gorm:"not null"`
	SeedImageURL   string    `gorm:"size:2048"`
	SubmittedAt    time.Time `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
}

type Image struct {
	ID            uint           `gorm:"primaryKey"`
	GameID        uint           `gorm:"index;not null"`
	ImageKey      string         `gorm:"size:64;not null;uniqueIndex"`
	ImageURL      string         `gorm:"size:2048;not null"`
	Prompt        string         `gorm:"size:2048;not null"`
	Reactions     datatypes.JSON `gorm:"type:jsonb"`
	ReactionUsers datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"not null"`
	UpdatedAt     time.Time      `gorm:"not null"`
}
