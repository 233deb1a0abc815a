package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	order := make([]string, 0, len(c.Order))
	for _, name := range c.Order {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			order = append(order, name)
		}
	}
	c.Order = order

	var err error
	if c.Fonts.CacheDir, err = expandPath(strings.TrimSpace(c.Fonts.CacheDir)); err != nil {
		return fmt.Errorf("fonts.cache_dir: %w", err)
	}
	families := make([]string, 0, len(c.Fonts.Families))
	for _, f := range c.Fonts.Families {
		if f = strings.TrimSpace(f); f != "" {
			families = append(families, f)
		}
	}
	c.Fonts.Families = families

	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
