package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabaseConfig  `mapstructure:"database"`
	Redis    RedisConfig     `mapstructure:"redis"`
	JWT      JWTConfig       `mapstructure:"jwt"`
	Game     GameConfig      `mapstructure:"game"`
	Admin    AdminSeedConfig `mapstructure:"admin"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

// GameConfig holds engine defaults. A rule set preset can override any of
// these per table.
type GameConfig struct {
	SeatCount        int     `mapstructure:"seatCount"`
	TurnTimeoutMs    int64   `mapstructure:"turnTimeoutMs"`
	ReconnectGraceMs int64   `mapstructure:"reconnectGraceMs"`
	RoundEndDelayMs  int64   `mapstructure:"roundEndDelayMs"` // pause between rounds, 0 starts the next deal immediately
	Schedule         [][]int `mapstructure:"schedule"`        // cards per round, grouped by pulka
}

type AdminSeedConfig struct {
	DefaultUsername string `mapstructure:"defaultUsername"`
	DefaultPassword string `mapstructure:"defaultPassword"`
}

var GlobalConfig *Config

func LoadConfig(path string) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	ApplyGameDefaults(&cfg.Game)
	GlobalConfig = &cfg
}

func ApplyGameDefaults(g *GameConfig) {
	if g.SeatCount == 0 {
		g.SeatCount = 4
	}
	if g.TurnTimeoutMs == 0 {
		g.TurnTimeoutMs = 30_000
	}
	if g.ReconnectGraceMs == 0 {
		g.ReconnectGraceMs = 30_000
	}
	if len(g.Schedule) == 0 {
		g.Schedule = DefaultSchedule()
	}
}

// DefaultSchedule is the classic four-pulka progression: hand sizes climb
// from 1 to 8, hold at 9 for four rounds, descend from 8 back to 1, then
// hold at 9 again.
func DefaultSchedule() [][]int {
	return [][]int{
		{1, 2, 3, 4, 5, 6, 7, 8},
		{9, 9, 9, 9},
		{8, 7, 6, 5, 4, 3, 2, 1},
		{9, 9, 9, 9},
	}
}
