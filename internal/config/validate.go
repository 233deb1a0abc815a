package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/imgpipe/format"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOrder(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOrder() error {
	if len(c.Order) == 0 {
		return errors.New("order must list at least one of raster, vector, layered")
	}
	seen := make(map[string]bool, len(c.Order))
	for _, name := range c.Order {
		if _, ok := format.ParseFamily(name); !ok {
			return fmt.Errorf("order: unknown adapter family %q (want raster, vector or layered)", name)
		}
		if seen[name] {
			return fmt.Errorf("order: %q listed twice", name)
		}
		seen[name] = true
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Logging.Format)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// Families returns the configured adapter order.
func (c *Config) Families() []format.Family {
	out := make([]format.Family, 0, len(c.Order))
	for _, name := range c.Order {
		if f, ok := format.ParseFamily(name); ok {
			out = append(out, f)
		}
	}
	return out
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
