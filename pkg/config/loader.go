package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load populates cfg from environment variables using `env` struct tags,
// for example:
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8004"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
//
// Missing variables marked required and unparseable values are reported as
// a single error.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
