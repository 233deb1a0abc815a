package text

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/fontscan"
	"github.com/go-text/typesetting/language"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/imgpipe/internal/cache"
)

// resolveCacheSize bounds the number of remembered family/script lookups.
const resolveCacheSize = 256

// Book is the set of fonts available for rendering.
//
// The system font scan runs at most once per Book, on first use, no matter
// how many goroutines race to use it. Parsed fonts (*font.Font) are
// immutable and shared; faces are created per run because *font.Face is
// not safe for concurrent use.
type Book struct {
	config bookConfig

	once     sync.Once
	fontMap  *fontscan.FontMap
	fallback *font.Font
	loadErr  error

	// mu serializes queries against fontMap, whose query state is mutable,
	// and protects resolved.
	mu       sync.Mutex
	resolved *cache.LRU[resolveKey, *font.Font]
}

type resolveKey struct {
	families string
	script   language.Script
}

// NewBook creates a Book. No fonts are loaded until the first run is drawn.
func NewBook(opts ...BookOption) *Book {
	config := defaultBookConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Book{
		config:   config,
		resolved: cache.New[resolveKey, *font.Font](resolveCacheSize),
	}
}

var defaultBook = sync.OnceValue(func() *Book { return NewBook() })

// Default returns the process-wide Book backed by the host's system fonts.
func Default() *Book {
	return defaultBook()
}

func (b *Book) logger() *slog.Logger {
	if b.config.logger != nil {
		return b.config.logger
	}
	return Logger()
}

// load parses the fallback font and scans system fonts. It runs once.
func (b *Book) load() error {
	b.once.Do(func() {
		fallback, err := font.ParseTTF(bytes.NewReader(goregular.TTF))
		if err != nil {
			b.loadErr = &FontLoadError{Source: "goregular", Err: err}
			return
		}
		b.fallback = fallback.Font

		if !b.config.systemFonts {
			return
		}
		start := time.Now()
		log := b.logger()
		fm := fontscan.NewFontMap(slog.NewLogLogger(log.Handler(), slog.LevelDebug))
		if err := fm.UseSystemFonts(b.config.cacheDir); err != nil {
			log.Warn("system fonts unavailable, using fallback font", "error", err)
			return
		}
		b.fontMap = fm
		log.Debug("system fonts loaded", "elapsed", time.Since(start))
	})
	return b.loadErr
}

// Resolve returns a font able to render r, preferring the given families in
// order, then the book's default families, then the bundled fallback.
func (b *Book) Resolve(families []string, r rune) (*font.Font, error) {
	if err := b.load(); err != nil {
		return nil, err
	}
	key := resolveKey{families: strings.Join(families, ","), script: language.LookupScript(r)}

	b.mu.Lock()
	defer b.mu.Unlock()

	if f, ok := b.resolved.Get(key); ok {
		return f, nil
	}
	f := b.fallback
	if b.fontMap != nil {
		query := make([]string, 0, len(families)+len(b.config.families))
		query = append(query, families...)
		query = append(query, b.config.families...)
		b.fontMap.SetQuery(fontscan.Query{Families: query})
		if face := b.fontMap.ResolveFace(r); face != nil {
			f = face.Font
		}
	}
	if f == nil {
		return nil, ErrNoFont
	}
	b.resolved.Put(key, f)
	return f, nil
}

// SystemFonts reports whether the host font scan succeeded. It triggers
// loading if it has not happened yet.
func (b *Book) SystemFonts() bool {
	_ = b.load()
	return b.fontMap != nil
}
