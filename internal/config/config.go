package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN         string
	ServerPort    string
	SessionSecret string

	// FieldEncryptionKey encrypts inventory secrets at rest. Optional in
	// debug mode (a key is derived from SessionSecret), required otherwise.
	FieldEncryptionKey string

	MediaRoot string

	LogLevel  string
	LogFormat string
	Debug     bool

	AdminUsername string
	AdminPassword string

	CORSOrigins []string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBDSN:              os.Getenv("DB_DSN"),
		ServerPort:         os.Getenv("SERVER_PORT"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		FieldEncryptionKey: os.Getenv("FIELD_ENCRYPTION_KEY"),
		MediaRoot:          os.Getenv("MEDIA_ROOT"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		LogFormat:          os.Getenv("LOG_FORMAT"),
		AdminUsername:      os.Getenv("ADMIN_USERNAME"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
	}

	cfg.Debug, _ = strconv.ParseBool(os.Getenv("DEBUG"))

	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}
	if cfg.FieldEncryptionKey == "" && !cfg.Debug {
		log.Fatal("FIELD_ENCRYPTION_KEY is required when DEBUG is false")
	}
	if cfg.MediaRoot == "" {
		cfg.MediaRoot = "./media"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		if cfg.Debug {
			cfg.LogFormat = "console"
		} else {
			cfg.LogFormat = "json"
		}
	}

	for _, origin := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	return cfg
}
