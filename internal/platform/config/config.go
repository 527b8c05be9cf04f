package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment with development defaults so main stays lean.
type Server struct {
	Addr string

	// PostgresURL enables the durable stores; empty means in-memory.
	PostgresURL string
	// RedisURL enables the restriction decision cache; empty disables it.
	RedisURL string
	// KafkaBrokers enables the kafka notification sink; empty keeps
	// notifications in the in-memory sink.
	KafkaBrokers []string
	KafkaTopic   string

	// Engine constants.
	DailyRateCents        int64
	GraceDays             int
	PenaltyThresholdCents int64
	DefaultLoanPeriodDays int

	SweepInterval       time.Duration
	RestrictionCacheTTL time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:                  envOr("FOLIO_ADDR", ":8080"),
		PostgresURL:           os.Getenv("FOLIO_POSTGRES_URL"),
		RedisURL:              os.Getenv("FOLIO_REDIS_URL"),
		KafkaBrokers:          splitList(os.Getenv("FOLIO_KAFKA_BROKERS")),
		KafkaTopic:            envOr("FOLIO_KAFKA_TOPIC", "folio.loan-events"),
		DailyRateCents:        envInt64("FOLIO_PENALTY_DAILY_RATE_CENTS", 100),
		GraceDays:             envInt("FOLIO_RESTRICTION_GRACE_DAYS", 7),
		PenaltyThresholdCents: envInt64("FOLIO_RESTRICTION_PENALTY_THRESHOLD_CENTS", 1000),
		DefaultLoanPeriodDays: envInt("FOLIO_DEFAULT_LOAN_PERIOD_DAYS", 21),
		SweepInterval:         envDuration("FOLIO_OVERDUE_SWEEP_INTERVAL", time.Hour),
		RestrictionCacheTTL:   envDuration("FOLIO_RESTRICTION_CACHE_TTL", 5*time.Minute),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
