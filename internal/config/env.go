package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds the CLI defaults that can be set from the environment. Flags
// still override them.
type Env struct {
	DataDir   string `env:"CNMARCH_DATA"       envDefault:".cnmarch"`
	LogLevel  string `env:"CNMARCH_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"CNMARCH_LOG_FORMAT" envDefault:"text"`
	Preset    string `env:"CNMARCH_PRESET"`
}

// ParseEnv loads Env from environment variables.
func ParseEnv() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
