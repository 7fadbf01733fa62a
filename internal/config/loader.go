package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if COURTSIGHT_CONFIG is set
//  3. env (prefix COURTSIGHT_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("COURTSIGHT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: COURTSIGHT_ADDR, COURTSIGHT_QUEUE_SIZE, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("COURTSIGHT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "courtsight_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MinClipSeconds <= 0:
		return fmt.Errorf("%w: min_clip_seconds must be positive", ErrInvalidConfig)
	case c.PreBufferSeconds < 0 || c.PostBufferSeconds < 0:
		return fmt.Errorf("%w: clip buffers must not be negative", ErrInvalidConfig)
	case c.MaxTopClips < 1:
		return fmt.Errorf("%w: max_top_clips must be positive", ErrInvalidConfig)
	}
	return nil
}
