package db

import (
	"time"

	"gorm.io/datatypes"
)

// Room is the minimal durable snapshot needed to recover a room after a
// restart: identity, settings, roster order, and lifecycle status.
type Room struct {
	ID                 uint           `gorm:"primaryKey"`
	Code               string         `gorm:"size:12;uniqueIndex;not null"`
	Status             string         `gorm:"size:32;not null"`
	HostID             string         `gorm:"size:64;not null"`
	MaxPlayers         int            `gorm:"not null;default:4"`
	TurnTimeoutSeconds int            `gorm:"not null;default:60"`
	Public             bool           `gorm:"not null;default:false"`
	AllowSpectators    bool           `gorm:"not null;default:true"`
	PlayerOrder        datatypes.JSON `gorm:"type:jsonb"`
	StartedAt          *time.Time
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
	Players            []Player
	Events             []Event
}
