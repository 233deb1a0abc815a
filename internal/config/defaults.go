package config

const (
	defaultConfigPath = "~/.config/imgpipe/config.toml"
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"
)

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Order: []string{"raster", "vector", "layered"},
		Fonts: Fonts{
			System:   true,
			Families: []string{"sans-serif"},
		},
		Layers: Layers{
			IncludeHidden: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
