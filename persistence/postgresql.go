package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/wfunc/loupgarou/models"
)

// PostgreSQL is the database/sql archive implementation.
type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS match_records (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) NOT NULL,
            winner VARCHAR(50) NOT NULL,
            players JSONB NOT NULL,
            started_at TIMESTAMP NOT NULL,
            ended_at TIMESTAMP NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_match_records_room_id ON match_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_match_records_created_at ON match_records(created_at);
    `)
	return err
}

func (p *PostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO match_records (room_id, winner, players, started_at, ended_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err = p.db.ExecContext(ctx, query,
		record.RoomID, record.Winner, players, record.StartedAt, record.EndedAt)
	return err
}

func (p *PostgreSQL) MatchHistory(roomID string, limit int) ([]models.GameRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT room_id, winner, players, started_at, ended_at
        FROM match_records
        WHERE room_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	rows, err := p.db.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.GameRecord
	for rows.Next() {
		var record models.GameRecord
		var players []byte
		if err := rows.Scan(&record.RoomID, &record.Winner, &players,
			&record.StartedAt, &record.EndedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(players, &record.Players); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (p *PostgreSQL) GetPlayerStats(name string) (*models.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        SELECT
            COUNT(*) AS total_games,
            COALESCE(SUM(CASE WHEN player->>'outcome' = 'win' THEN 1 ELSE 0 END), 0) AS wins,
            COALESCE(SUM(CASE WHEN player->>'outcome' = 'lose' THEN 1 ELSE 0 END), 0) AS losses
        FROM match_records,
            jsonb_array_elements(players) AS player
        WHERE player->>'name' = $1
    `
	var stats models.PlayerStats
	err := p.db.QueryRowContext(ctx, query, name).Scan(
		&stats.TotalGames, &stats.Wins, &stats.Losses)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if stats.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}
	return &stats, nil
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
