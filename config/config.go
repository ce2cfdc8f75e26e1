package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	TCPAddress     string        `mapstructure:"tcp_address"`
	WSAddress      string        `mapstructure:"ws_address"`
	RPCAddress     string        `mapstructure:"rpc_address"`
	MetricsAddress string        `mapstructure:"metrics_address"`
	SendTimeout    time.Duration `mapstructure:"send_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

type GameConfig struct {
	GridSize   int `mapstructure:"grid_size"`
	MinPlayers int `mapstructure:"min_players"`
}

type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Driver   string         `mapstructure:"driver"` // "gorm" or "postgres"
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.tcp_address", ":12345")
	viper.SetDefault("server.ws_address", "")
	viper.SetDefault("server.rpc_address", "")
	viper.SetDefault("server.metrics_address", "")
	viper.SetDefault("server.send_timeout", 5*time.Second)
	viper.SetDefault("server.idle_timeout", 10*time.Minute)
	viper.SetDefault("game.grid_size", 7)
	viper.SetDefault("game.min_players", 4)
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.driver", "gorm")
	viper.SetDefault("database.postgres.host", "localhost")
	viper.SetDefault("database.postgres.port", 5432)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		// The server runs fine on defaults; only a malformed file is fatal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	err = viper.Unmarshal(&config)
	return
}
