package dbobj

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tailscale/hujson"
)

// Config selects a backend and logging. Files may contain comments and
// trailing commas.
type Config struct {
	// Backend is "postgres", "mongo" or any registered database/sql driver
	// name used together with DSN.
	Backend       string      `json:"backend"`
	DSN           string      `json:"dsn"`
	Postgres      PGConfig    `json:"postgres"`
	Mongo         MongoConfig `json:"mongo"`
	LogLevel      string      `json:"log_level"`
	SlowThreshold Duration    `json:"slow_threshold"`
}

// Duration reads "250ms" style strings.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(v)
	return nil
}

func LoadConfig(path string) (Config, error) {
	var cfg Config

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	return ParseConfig(b)
}

func ParseConfig(b []byte) (Config, error) {
	var cfg Config

	std, err := hujson.Standardize(b)
	if err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := json.Unmarshal(std, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Backend == "" {
		cfg.Backend = "postgres"
	}

	return cfg, nil
}
