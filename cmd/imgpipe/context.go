package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/gogpu/imgpipe"
	"github.com/gogpu/imgpipe/internal/config"
	"github.com/gogpu/imgpipe/text"
)

type commandContext struct {
	configFlag *string

	config     *config.Config
	configPath string
	configSeen bool
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the configuration once and installs the logger it
// describes, writing to logOut.
func (c *commandContext) ensureConfig(logOut io.Writer) (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, path, exists, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	c.config, c.configPath, c.configSeen = cfg, path, exists

	logger, err := newLogger(cfg, logOut)
	if err != nil {
		return nil, err
	}
	imgpipe.SetLogger(logger)
	logger.Debug("configuration loaded", "path", path, "exists", exists)
	return cfg, nil
}

// pipelineOptions translates the configuration into loader options.
func (c *commandContext) pipelineOptions() []imgpipe.Option {
	cfg := c.config
	bookOpts := []text.BookOption{
		text.WithSystemFonts(cfg.Fonts.System),
		text.WithCacheDir(cfg.Fonts.CacheDir),
		text.WithLogger(imgpipe.Logger().With("component", "fonts")),
	}
	if len(cfg.Fonts.Families) > 0 {
		bookOpts = append(bookOpts, text.WithDefaultFamilies(cfg.Fonts.Families...))
	}
	filter := imgpipe.AllLayers
	if !cfg.Layers.IncludeHidden {
		filter = imgpipe.VisibleLayers
	}
	return []imgpipe.Option{
		imgpipe.WithOrder(cfg.Families()...),
		imgpipe.WithFontBook(text.NewBook(bookOpts...)),
		imgpipe.WithLayerFilter(filter),
	}
}

func newLogger(cfg *config.Config, out io.Writer) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts)), nil
	}
	if !isTerminal(out) {
		// Timestamps are noise when the output is captured by another tool.
		opts.ReplaceAttr = dropTime
	}
	return slog.New(slog.NewTextHandler(out, opts)), nil
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
