package main

import (
	"fmt"
	"log"

	"gestionale/internal/audit"
	"gestionale/internal/config"
	"gestionale/internal/crypto"
	"gestionale/internal/customfields"
	"gestionale/internal/database"
	"gestionale/internal/logger"
	"gestionale/internal/server"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	if err := crypto.Init(cfg.FieldEncryptionKey, cfg.SessionSecret, cfg.Debug); err != nil {
		logger.Fatal("crypto init failed", zap.Error(err))
	}

	database.Init(cfg.DBDSN)
	database.SeedAdmin(database.DB, cfg.AdminUsername, cfg.AdminPassword)

	// Audit masking also honors custom-field definitions flagged sensitive.
	src := customfields.GormSource{DB: database.DB}
	audit.SetSensitiveKeyLookup(func(keys []string) map[string]bool {
		m, err := src.SensitiveKeys(keys)
		if err != nil {
			return nil
		}
		return m
	})

	r := server.NewRouter(cfg)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info("starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
