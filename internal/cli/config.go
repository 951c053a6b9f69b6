package cli

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds environment-provided defaults for CLI flags. Flags always
// win over the environment; the environment wins over built-in defaults.
type Config struct {
	Database string `env:"SVAULT_DB" envDefault:"svault.db"`
	Policy   string `env:"SVAULT_POLICY" envDefault:"policy.yaml"`
	Actor    string `env:"SVAULT_ACTOR"`
}

// LoadConfig reads CLI defaults from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
