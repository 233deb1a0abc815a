package text

import "log/slog"

// BookOption configures a Book during creation.
type BookOption func(*bookConfig)

// bookConfig holds configuration for Book.
type bookConfig struct {
	systemFonts bool
	cacheDir    string
	families    []string
	logger      *slog.Logger
}

// defaultBookConfig returns the default book configuration.
func defaultBookConfig() bookConfig {
	return bookConfig{
		systemFonts: true,
		families:    []string{"sans-serif"},
	}
}

// WithSystemFonts enables or disables scanning the host's font directories.
// When disabled only the bundled fallback font is available.
func WithSystemFonts(enabled bool) BookOption {
	return func(c *bookConfig) {
		c.systemFonts = enabled
	}
}

// WithCacheDir sets the directory where the system font index is cached
// between runs. An empty string uses the user cache directory.
func WithCacheDir(dir string) BookOption {
	return func(c *bookConfig) {
		c.cacheDir = dir
	}
}

// WithDefaultFamilies sets the families tried after a run's own families.
func WithDefaultFamilies(families ...string) BookOption {
	return func(c *bookConfig) {
		c.families = append([]string(nil), families...)
	}
}

// WithLogger sets the logger used while scanning fonts. Nil uses the
// package logger.
func WithLogger(l *slog.Logger) BookOption {
	return func(c *bookConfig) {
		c.logger = l
	}
}
