// Package persistence archives finished matches. The live game never reads
// from it; the server runs entirely in memory and a database is optional.
package persistence

import (
	"fmt"

	"github.com/wfunc/loupgarou/models"
)

// Database is the match archive.
type Database interface {
	SaveGameRecord(record *models.GameRecord) error
	MatchHistory(roomID string, limit int) ([]models.GameRecord, error)
	GetPlayerStats(name string) (*models.PlayerStats, error)
	Close() error
}

var ErrRecordNotFound = fmt.Errorf("record not found")
