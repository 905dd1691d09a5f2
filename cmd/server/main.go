package main

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dicee/internal/config"
	"dicee/internal/db"
	"dicee/internal/server"
)

func main() {
	setupLogging()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}
	cfg := config.Load()

	conn, err := db.Open()
	if err != nil {
		log.Warn().Err(err).Msg("Database unavailable, rooms will not survive restarts")
		conn = nil
	} else {
		if err := db.ConfigurePool(conn, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeSeconds, cfg.DBConnMaxIdleTimeSeconds); err != nil {
			log.Fatal().Err(err).Msg("Database pool configuration failed")
		}
		if os.Getenv("AUTO_MIGRATE") == "true" {
			if err := db.Migrate(conn); err != nil {
				log.Fatal().Err(err).Msg("Database migration failed")
			}
		}
	}

	srv := server.New(conn, cfg)
	if err := srv.Restore(); err != nil {
		log.Error().Err(err).Msg("Room restore failed")
	}

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}
	log.Info().Str("addr", addr).Msg("Dicee server listening")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		if parsed, err := zerolog.ParseLevel(env); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	if os.Getenv("LOG_FORMAT") != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
