// Package config reads service settings from the environment
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/models"
)

// Config is everything main needs to wire the service
type Config struct {
	Port        string
	GRPCPort    string
	Environment string

	DBDriver    string
	SQLiteFile  string
	DatabaseURL string

	EventBus    string // embedded, nats or memory
	NATSURL     string
	NATSSubject string

	ClickHouseAddr     string
	ClickHouseDB       string
	ClickHouseUser     string
	ClickHousePassword string

	AuthentikBaseURL      string
	AuthentikClientID     string
	AuthentikClientSecret string
	AuthentikRedirectURL  string

	DictionarySources []string
	RoomIdleTTL       time.Duration
	RateCapacity      int
	RateRefillPerSec  float64

	Room models.RoomConfig
}

// IsDevelopment reports whether embedded/mock collaborators should be used
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// Load reads the environment. Unset variables fall back to defaults;
// malformed ones are an error.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "3000"),
		GRPCPort:    getEnv("GRPC_PORT", "50051"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DBDriver:    getEnv("DB_DRIVER", "memory"),
		SQLiteFile:  getEnv("SQLITE_FILE", "dev.sqlite"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		EventBus:    os.Getenv("EVENT_BUS"),
		NATSURL:     getEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: getEnv("NATS_SUBJECT", "wordrush.events"),

		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:       getEnv("CLICKHOUSE_DB", "default"),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: os.Getenv("CLICKHOUSE_PASSWORD"),

		AuthentikBaseURL:      os.Getenv("AUTHENTIK_BASE_URL"),
		AuthentikClientID:     os.Getenv("AUTHENTIK_CLIENT_ID"),
		AuthentikClientSecret: os.Getenv("AUTHENTIK_CLIENT_SECRET"),
		AuthentikRedirectURL:  getEnv("AUTHENTIK_REDIRECT_URL", "http://localhost:3000/auth/callback"),
	}

	for _, s := range strings.Split(getEnv("DICTIONARY_SOURCES", "words.txt"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			cfg.DictionarySources = append(cfg.DictionarySources, s)
		}
	}

	p := parser{}
	cfg.RoomIdleTTL = p.durationVar("ROOM_IDLE_TTL", 10*time.Minute)
	cfg.RateCapacity = p.intVar("RATE_CAPACITY", 10)
	cfg.RateRefillPerSec = p.floatVar("RATE_REFILL_PER_SEC", 5)

	room := models.DefaultRoomConfig()
	room.RoundDuration = time.Duration(p.intVar("ROUND_SECONDS", int(room.RoundDuration/time.Second))) * time.Second
	room.MinWordLen = p.intVar("MIN_WORD_LEN", room.MinWordLen)
	room.RoundTiles = p.intVar("ROUND_TILES", room.RoundTiles)
	room.DripPerSec = p.intVar("DRIP_PER_SEC", room.DripPerSec)
	room.SurgeAtSec = p.intVar("SURGE_AT_SEC", room.SurgeAtSec)
	room.SurgeAmount = p.intVar("SURGE_AMOUNT", room.SurgeAmount)
	room.OpeningTiles = p.intVar("OPENING_TILES", room.OpeningTiles)
	room.Window = time.Duration(p.intVar("WINDOW_MS", int(room.Window/time.Millisecond))) * time.Millisecond
	room.Tick = time.Duration(p.intVar("TICK_MS", int(room.Tick/time.Millisecond))) * time.Millisecond
	room.DuplicatePolicy = models.DuplicatePolicy(getEnv("DUPLICATE_POLICY", string(room.DuplicatePolicy)))
	room.DecayModel = models.DecayModel(getEnv("DECAY_MODEL", string(room.DecayModel)))
	cfg.Room = room

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Room.Validate(); err != nil {
		return nil, fmt.Errorf("invalid room config: %w", err)
	}

	if cfg.EventBus == "" {
		cfg.EventBus = "nats"
		if cfg.IsDevelopment() {
			cfg.EventBus = "embedded"
		}
	}
	switch cfg.EventBus {
	case "embedded", "nats", "memory":
	default:
		return nil, fmt.Errorf("unknown EVENT_BUS %q (valid: embedded, nats, memory)", cfg.EventBus)
	}

	switch cfg.DBDriver {
	case "memory", "sqlite":
	case "postgres":
		// development falls back to a SQLite-backed stand-in
		if cfg.DatabaseURL == "" && !cfg.IsDevelopment() {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q (valid: memory, sqlite, postgres)", cfg.DBDriver)
	}

	if !cfg.IsDevelopment() && (cfg.AuthentikBaseURL == "" || cfg.AuthentikClientID == "" || cfg.AuthentikClientSecret == "") {
		return nil, fmt.Errorf("AUTHENTIK_BASE_URL, AUTHENTIK_CLIENT_ID and AUTHENTIK_CLIENT_SECRET are required outside development")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parser keeps the first conversion error so Load can report it once
type parser struct {
	err error
}

func (p *parser) intVar(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return n
}

func (p *parser) floatVar(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return f
}

func (p *parser) durationVar(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return d
}
