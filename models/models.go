package models

import (
	"time"
)

const (
	WinnerWolves = "loups"

	OutcomeWin  = "win"
	OutcomeLose = "lose"
)

// GameRecord archives one finished match.
type GameRecord struct {
	RoomID    string        `json:"room_id"`
	Winner    string        `json:"winner"`
	Players   []MatchPlayer `json:"players"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
}

// MatchPlayer is one participant in a game record.
type MatchPlayer struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Outcome string `json:"outcome"`
}

// PlayerStats aggregates a player's archived results.
type PlayerStats struct {
	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
}

// RoomSummary is a point-in-time view of a live room, served over the admin
// interface.
type RoomSummary struct {
	ID            string    `json:"room_id"`
	Players       []string  `json:"players"`
	Started       bool      `json:"started"`
	CurrentPlayer string    `json:"current_player"`
	CreatedAt     time.Time `json:"created_at"`
}
