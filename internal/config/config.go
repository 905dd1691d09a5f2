package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	MaxPlayers               int
	TurnTimeoutSeconds       int
	AFKGraceSeconds          int
	StartCountdownSeconds    int
	CleanupGraceSeconds      int
	AIThinkMinMillis         int
	AIThinkMaxMillis         int
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	return Config{
		MaxPlayers:               4,
		TurnTimeoutSeconds:       60,
		AFKGraceSeconds:          15,
		StartCountdownSeconds:    3,
		CleanupGraceSeconds:      60,
		AIThinkMinMillis:         1000,
		AIThinkMaxMillis:         3000,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

func Load() Config {
	cfg := Default()
	loadInt(&cfg.MaxPlayers, "MAX_PLAYERS")
	loadInt(&cfg.TurnTimeoutSeconds, "TURN_TIMEOUT_SECONDS")
	loadInt(&cfg.AFKGraceSeconds, "AFK_GRACE_SECONDS")
	loadInt(&cfg.StartCountdownSeconds, "START_COUNTDOWN_SECONDS")
	loadInt(&cfg.CleanupGraceSeconds, "CLEANUP_GRACE_SECONDS")
	loadInt(&cfg.AIThinkMinMillis, "AI_THINK_MIN_MILLIS")
	loadInt(&cfg.AIThinkMaxMillis, "AI_THINK_MAX_MILLIS")
	loadInt(&cfg.DBMaxOpenConns, "DB_MAX_OPEN_CONNS")
	loadInt(&cfg.DBMaxIdleConns, "DB_MAX_IDLE_CONNS")
	loadInt(&cfg.DBConnMaxLifetimeSeconds, "DB_CONN_MAX_LIFETIME_SECONDS")
	loadInt(&cfg.DBConnMaxIdleTimeSeconds, "DB_CONN_MAX_IDLE_SECONDS")
	if cfg.AIThinkMaxMillis < cfg.AIThinkMinMillis {
		cfg.AIThinkMaxMillis = cfg.AIThinkMinMillis
	}
	return cfg
}

func loadInt(dest *int, name string) {
	raw := os.Getenv(name)
	if raw == "" {
		return
	}
	if value, err := strconv.Atoi(raw); err == nil && value > 0 {
		*dest = value
	}
}
