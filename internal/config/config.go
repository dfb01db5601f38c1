package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MailboxCredentials holds the SMTP login for one sending identity. Loaded
// once at startup; business logic never reads the environment directly.
type MailboxCredentials struct {
	Email    string
	Host     string
	Port     int
	User     string
	Password string
}

type Config struct {
	Port        int
	DatabaseURL string

	RabbitMQUser string
	RabbitMQPass string
	RabbitMQHost string
	RabbitMQPort string

	OpenAIKey string
	OpenAIURL string

	// Engine knobs.
	MinProspectScore int
	MinHealthScore   int           // selection circuit breaker
	HealthPenalty    int           // per mailbox-attributable failure
	HealthPauseFloor int           // auto-pause below this
	StaggerMin       time.Duration // human-timing delay bounds
	StaggerMax       time.Duration

	// Warm-up stage (1..5) to daily send target. Index 0 is stage 1.
	WarmupLimits [5]int

	WorkerEnabled  bool
	WorkerInterval time.Duration

	// SMTP credential pool, one entry per SMTP_INBOX_n group.
	Inboxes []MailboxCredentials
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:         atoi(getEnv("PORT", "8080")),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RabbitMQUser: getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPass: getEnv("RABBITMQ_PASS", "guest"),
		RabbitMQHost: getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort: getEnv("RABBITMQ_PORT", "5672"),

		OpenAIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIURL: getEnv("OPENAI_API_URL", "https://api.openai.com/v1"),

		MinProspectScore: atoi(getEnv("MIN_PROSPECT_SCORE", "40")),
		MinHealthScore:   atoi(getEnv("MIN_HEALTH_SCORE", "50")),
		HealthPenalty:    atoi(getEnv("HEALTH_PENALTY", "15")),
		HealthPauseFloor: atoi(getEnv("HEALTH_PAUSE_FLOOR", "30")),
		StaggerMin:       duration(getEnv("STAGGER_MIN", "45s")),
		StaggerMax:       duration(getEnv("STAGGER_MAX", "180s")),

		WorkerEnabled:  getEnv("WORKER_ENABLED", "true") == "true",
		WorkerInterval: duration(getEnv("WORKER_INTERVAL", "1m")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	limits, err := parseWarmupLimits(getEnv("WARMUP_LIMITS", "5,15,30,60,100"))
	if err != nil {
		return nil, err
	}
	cfg.WarmupLimits = limits

	cfg.Inboxes = loadInboxes()

	return cfg, nil
}

// DailyLimitForStage maps a warm-up stage to its daily target. Out-of-range
// stages clamp to the nearest valid stage.
func (c *Config) DailyLimitForStage(stage int) int {
	if stage < 1 {
		stage = 1
	}
	if stage > len(c.WarmupLimits) {
		stage = len(c.WarmupLimits)
	}
	return c.WarmupLimits[stage-1]
}

// CredentialsFor finds the SMTP login for a sending address.
func (c *Config) CredentialsFor(email string) (MailboxCredentials, bool) {
	for _, in := range c.Inboxes {
		if strings.EqualFold(in.Email, email) {
			return in, true
		}
	}
	return MailboxCredentials{}, false
}

// parseWarmupLimits validates the stage ladder: five comma-separated targets
// that never decrease from one stage to the next.
func parseWarmupLimits(raw string) ([5]int, error) {
	var limits [5]int
	parts := strings.Split(raw, ",")
	if len(parts) != 5 {
		return limits, fmt.Errorf("WARMUP_LIMITS must have 5 values, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v <= 0 {
			return limits, fmt.Errorf("WARMUP_LIMITS[%d] is invalid: %q", i, p)
		}
		if i > 0 && v < limits[i-1] {
			return limits, fmt.Errorf("WARMUP_LIMITS must not decrease (stage %d < stage %d)", i+1, i)
		}
		limits[i] = v
	}
	return limits, nil
}

// loadInboxes reads SMTP_INBOX_1_EMAIL, SMTP_INBOX_1_HOST, ... groups until
// the first missing EMAIL var.
func loadInboxes() []MailboxCredentials {
	var inboxes []MailboxCredentials
	for n := 1; ; n++ {
		prefix := fmt.Sprintf("SMTP_INBOX_%d_", n)
		email := os.Getenv(prefix + "EMAIL")
		if email == "" {
			break
		}
		inboxes = append(inboxes, MailboxCredentials{
			Email:    email,
			Host:     getEnv(prefix+"HOST", "smtp.gmail.com"),
			Port:     atoi(getEnv(prefix+"PORT", "587")),
			User:     getEnv(prefix+"USER", email),
			Password: os.Getenv(prefix + "PASS"),
		})
	}
	return inboxes
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
