package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	Port          string
	JWTSecret     string
	Timezone      string
	MatchDuration time.Duration
	SMS           SMSConfig
	Slack         SlackConfig
	Turso         TursoConfig
	ProjectID     string
	RedisURL      string
}

type SMSConfig struct {
	BaseURL       string
	APIKey        string
	Password      string
	Sender        string
	RatePerSecond float64
	// InboundToken guards the inbound webhook when set.
	InboundToken string
}

type SlackConfig struct {
	Token     string
	ChannelID string
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
