package main

import (
	"fmt"
	"os"
	"time"

	"github.com/unimeet/match-core/internal/config"
	"github.com/unimeet/match-core/internal/db"
	"github.com/unimeet/match-core/internal/logger"
	"github.com/unimeet/match-core/internal/session"
)

// Seeds the configured database and prints dev tokens for the seeded users.
func main() {
	config.LoadDotEnv()
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	if err := db.SeedTestData(database, log); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}
	log.Info("seeding completed")

	if cfg.Auth.JWTSecret == "" {
		return
	}
	sessions := session.NewManager(cfg.Auth.JWTSecret)
	for _, id := range []string{"1", "2", "3"} {
		tok, err := sessions.Issue(id, 24*time.Hour)
		if err != nil {
			log.Error("failed to issue token", "user", id, "err", err)
			os.Exit(1)
		}
		fmt.Printf("user %s: Bearer %s\n", id, tok)
	}
}
