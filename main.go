package main

import (
	"github.com/wfunc/loupgarou/config"
	"github.com/wfunc/loupgarou/logger"
	"github.com/wfunc/loupgarou/persistence"
	"github.com/wfunc/loupgarou/server"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// The match archive is optional; the game itself runs fully in memory.
	var db persistence.Database
	if cfg.Database.Enabled {
		pg := cfg.Database.Postgres
		switch cfg.Database.Driver {
		case "postgres":
			db, err = persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		default:
			db, err = persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		}
		if err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		logger.Log.Info("Match archive database connected.")
	}

	// Start Server
	gameServer := server.NewGameServer(cfg, db)
	logger.Log.Infof("Starting game server on %s", cfg.Server.TCPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
