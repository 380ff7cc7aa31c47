package config

import (
	"fmt"
	"strings"

	// loads a .env file from the working directory into the process
	// environment, if present
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read into Config,
// e.g. USERSVC_DATABASE_DSN -> database_dsn.
const EnvPrefix = "USERSVC_"

// parseEnv overlays Config with USERSVC_* environment variables. Only
// variables that are set are applied. Lists are comma separated and
// durations use time.ParseDuration syntax.
func parseEnv(config *Config) error {
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "cors_allowed_origins" {
			return key, splitList(value)
		}
		return key, value
	}), nil)
	if err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	// lists replace the defaults instead of merging into them
	if k.Exists("cors_allowed_origins") {
		config.CORSAllowedOrigins = nil
	}

	if err := k.Unmarshal("", config); err != nil {
		return fmt.Errorf("decode env: %w", err)
	}
	return nil
}

func splitList(value string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
