package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every env tag read through ParseEnv, so config
// structs declare `env:"SHARD_NATS_URL"` and the process reads
// COLONIES_SHARD_NATS_URL.
const Prefix = "COLONIES_"

// ParseEnv loads configuration from COLONIES_-prefixed environment variables.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: Prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
