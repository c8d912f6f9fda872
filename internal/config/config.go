package config

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	defaultTimezone      = "Europe/Warsaw"
	defaultRatePerSecond = 5
	defaultMatchHours    = 2
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	sender := optional("SMS_SENDER", "")
	if sender == "" {
		sender = getEnv("SMS_NUMBER")
	}

	cfg := Config{
		DBName:        getEnv("DB_NAME"),
		Port:          getEnv("PORT"),
		JWTSecret:     getEnv("JWT_SECRET"),
		Timezone:      optional("TIMEZONE", defaultTimezone),
		MatchDuration: time.Duration(optionalFloat("MATCH_DURATION_HOURS", defaultMatchHours) * float64(time.Hour)),
		SMS: SMSConfig{
			BaseURL:       optional("SMS_BASE_URL", ""),
			APIKey:        getEnv("SMS_API_KEY"),
			Password:      getEnv("SMS_PASSWORD"),
			Sender:        sender,
			RatePerSecond: optionalFloat("SMS_RATE_PER_SECOND", defaultRatePerSecond),
			InboundToken:  optional("SMS_INBOUND_TOKEN", ""),
		},
		Slack: SlackConfig{
			Token:     optional("SLACK_BOT_TOKEN", ""),
			ChannelID: optional("SLACK_CHANNEL_ID", ""),
		},
		Turso: TursoConfig{
			PrimaryURL: optional("TURSO_PRIMARY_URL", ""),
			AuthToken:  optional("TURSO_AUTH_TOKEN", ""),
		},
		ProjectID: optional("GCP_PROJECT", ""),
		RedisURL:  optional("REDIS_URL", ""),
	}
	return cfg
}

func optional(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func optionalFloat(key string, fallback float64) float64 {
	raw := optional(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		log.Fatalf("Error: environment variable %s must be a positive number, got %q.", key, raw)
	}
	return v
}
