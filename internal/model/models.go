package model

import (
	"time"

	"gorm.io/datatypes"
)

// 2.1 Admin accounts (god-mode access)

type Admin struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string
	Status       string `gorm:"default:active;not null"` // active/disabled
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// 2.2 Rule sets

// RuleSet is a named preset of table parameters. Tables are created against
// an enabled rule set; a structurally invalid set is rejected before any
// table can reference it.
type RuleSet struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	Name             string `gorm:"size:128;unique;not null"`
	SeatCount        int    `gorm:"default:4"`
	TurnTimeoutMs    int64
	ReconnectGraceMs int64
	RoundEndDelayMs  int64
	ScheduleJSON     datatypes.JSON `gorm:"type:jsonb"`      // [][]int, cards per round grouped by pulka
	ScoringJSON      datatypes.JSON `gorm:"type:jsonb"`      // score constants, defaults when empty
	Status           string         `gorm:"default:enabled"` // enabled/disabled
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// 2.3 Archived games

// GameRecord is written once when a table reaches the finished phase.
type GameRecord struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	TableID    string `gorm:"size:64;unique;not null"`
	RuleSetID  int64
	WinnerID   string         `gorm:"size:64"`
	ResultJSON datatypes.JSON `gorm:"type:jsonb"` // final standings: playerId -> {name,totalScore}
	StartedAt  time.Time
	FinishedAt time.Time
	CreatedAt  time.Time
}

// GameRoundLog records one completed round of an archived game.
type GameRoundLog struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	TableID    string `gorm:"size:64;index;not null"`
	Pulka      int
	Round      int
	Trump      string         `gorm:"size:16"`
	BetsJSON   datatypes.JSON `gorm:"type:jsonb"` // playerId -> bet
	TricksJSON datatypes.JSON `gorm:"type:jsonb"` // playerId -> tricks
	ScoresJSON datatypes.JSON `gorm:"type:jsonb"` // playerId -> round score delta
	CreatedAt  time.Time
}
