package db

import (
	"time"

	"gorm.io/datatypes"
)

type Player struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    uint           `gorm:"index;not null;uniqueIndex:idx_players_room_player"`
	PlayerID  string         `gorm:"size:64;not null;uniqueIndex:idx_players_room_player"`
	Name      string         `gorm:"size:64;not null"`
	Avatar    string         `gorm:"size:128"`
	Type      string         `gorm:"size:16;not null;default:human"`
	IsHost    bool           `gorm:"not null;default:false"`
	Token     string         `gorm:"size:64"`
	Scorecard datatypes.JSON `gorm:"type:jsonb"`
	JoinedAt  time.Time      `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}
