package persistence

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/loupgarou/models"
)

// GormPostgreSQL is the GORM-backed archive implementation.
type GormPostgreSQL struct {
	db *gorm.DB
}

func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	dbLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&MatchRecordModel{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// MatchRecordModel is the archived-match row.
type MatchRecordModel struct {
	ID        uint                 `gorm:"primaryKey"`
	RoomID    string               `gorm:"index;not null"`
	Winner    string               `gorm:"not null"`
	Players   []models.MatchPlayer `gorm:"serializer:json"`
	StartedAt time.Time
	EndedAt   time.Time
	CreatedAt time.Time
}

func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	row := MatchRecordModel{
		RoomID:    record.RoomID,
		Winner:    record.Winner,
		Players:   record.Players,
		StartedAt: record.StartedAt,
		EndedAt:   record.EndedAt,
	}
	return p.db.Create(&row).Error
}

func (p *GormPostgreSQL) MatchHistory(roomID string, limit int) ([]models.GameRecord, error) {
	var rows []MatchRecordModel
	query := p.db.Where("room_id = ?", roomID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]models.GameRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.GameRecord{
			RoomID:    row.RoomID,
			Winner:    row.Winner,
			Players:   row.Players,
			StartedAt: row.StartedAt,
			EndedAt:   row.EndedAt,
		})
	}
	return records, nil
}

func (p *GormPostgreSQL) GetPlayerStats(name string) (*models.PlayerStats, error) {
	var stats models.PlayerStats

	err := p.db.Raw(`
        SELECT
            COUNT(*) AS total_games,
            SUM(CASE WHEN player->>'outcome' = 'win' THEN 1 ELSE 0 END) AS wins,
            SUM(CASE WHEN player->>'outcome' = 'lose' THEN 1 ELSE 0 END) AS losses
        FROM match_record_models,
            jsonb_array_elements(players::jsonb) AS player
        WHERE player->>'name' = ?`,
		name,
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	if stats.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}
	return &stats, nil
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
