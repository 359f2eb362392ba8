// Package internal holds process-level configuration.
package internal

import (
	"time"

	env "github.com/Netflix/go-env"
)

// Config is loaded from the environment. Every knob has a default so the
// server boots with nothing but `go run .`.
type Config struct {
	Port            string        `env:"PORT,default=3000"`
	BadgerPath      string        `env:"BADGER_PATH,default=collab-board.db"`
	ApprovalTimeout time.Duration `env:"APPROVAL_TIMEOUT,default=60s"`
	EventsPerSecond int           `env:"EVENTS_PER_SECOND,default=40"`
	EventBurst      int           `env:"EVENT_BURST,default=80"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
}

// Load parses the process environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
