// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken  string
	DatabasePath      string
	LogLevel          string
	ContactUsername   string
	SendRatePerSecond float64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	// Telegram allows roughly 30 messages per second bot-wide.
	rate := 25.0
	if raw := os.Getenv("SEND_RATE_PER_SECOND"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid SEND_RATE_PER_SECOND %q", raw)
		}
		rate = v
	}

	return &Config{
		TelegramBotToken:  token,
		DatabasePath:      dbPath,
		LogLevel:          logLevel,
		ContactUsername:   os.Getenv("CONTACT_USERNAME"),
		SendRatePerSecond: rate,
	}, nil
}
