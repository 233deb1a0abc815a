package imgpipe

import (
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/imgpipe/format"
	"github.com/gogpu/imgpipe/text"
)

// Option configures a Decoder or Loader during creation.
//
// Example:
//
//	// Default order: raster, then vector, then layered
//	dec := imgpipe.NewDecoder()
//
//	// Try layered documents before vector graphics, skip raster entirely
//	dec := imgpipe.NewDecoder(imgpipe.WithOrder(format.FamilyLayered, format.FamilyVector))
type Option func(*options)

// options holds optional configuration.
type options struct {
	order    []format.Family
	adapters []Adapter
	layers   LayerFilter
	book     *text.Book
	hook     func(uuid.UUID, State)
	clock    func() time.Time
}

// DefaultOrder is the adapter family order used unless WithOrder is given.
var DefaultOrder = []format.Family{format.FamilyRaster, format.FamilyVector, format.FamilyLayered}

// defaultOptions returns the default options.
func defaultOptions() options {
	return options{
		order: DefaultOrder,
		clock: time.Now,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithOrder sets the order in which adapter families are tried. Families not
// listed are not tried at all; repeated families count once.
func WithOrder(families ...format.Family) Option {
	return func(o *options) {
		o.order = families
	}
}

// WithAdapters replaces the built-in adapters. They are still tried in the
// family order; adapters of the same family keep the given order.
func WithAdapters(adapters ...Adapter) Option {
	return func(o *options) {
		o.adapters = adapters
	}
}

// WithLayerFilter sets the inclusion predicate used when flattening layered
// documents. The default includes every layer.
func WithLayerFilter(f LayerFilter) Option {
	return func(o *options) {
		o.layers = f
	}
}

// WithFontBook sets the fonts used to draw SVG text. The default is the
// process-wide text.Default().
func WithFontBook(b *text.Book) Option {
	return func(o *options) {
		o.book = b
	}
}

// WithStateHook registers a function called on every load state transition.
// It runs on the load's goroutine and must not block.
func WithStateHook(hook func(id uuid.UUID, s State)) Option {
	return func(o *options) {
		o.hook = hook
	}
}

// WithClock sets the time source for event start timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}
