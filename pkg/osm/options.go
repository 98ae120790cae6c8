package osm

import (
	"log/slog"

	"github.com/NERVsystems/osmscene/pkg/geo"
)

// Limits caps registry growth. Zero means unlimited, except for
// MaxLineBytes where zero selects DefaultMaxLineBytes.
type Limits struct {
	MaxNodes     int // committed nodes
	MaxWays      int // committed ways
	MaxWayNodes  int // nd references in a single way
	MaxLineBytes int // bytes in one physical line
}

// Options configures a parse.
type Options struct {
	// Logger receives debug output per element and a summary per parse.
	Logger *slog.Logger

	// Sink receives element-level errors. When nil, errors are collected
	// into Result.Diagnostics.
	Sink DiagnosticSink

	// Zoom is the projection zoom level. Default: geo.Zoom
	Zoom int

	// Limits caps registry sizes; exceeding one drops the element with
	// ErrCapacity.
	Limits Limits

	// Hooks observe parse progress. May be nil.
	Hooks *MonitoringHooks
}

// DefaultOptions returns options with defaults
func DefaultOptions() Options {
	return Options{
		Logger: slog.Default().With("component", "osm_parser"),
		Zoom:   geo.Zoom,
	}
}

// Option modifies Options.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithSink sets the diagnostic sink.
func WithSink(sink DiagnosticSink) Option {
	return func(o *Options) {
		o.Sink = sink
	}
}

// WithZoom sets the projection zoom level.
func WithZoom(zoom int) Option {
	return func(o *Options) {
		o.Zoom = zoom
	}
}

// WithLimits sets registry capacity limits.
func WithLimits(limits Limits) Option {
	return func(o *Options) {
		o.Limits = limits
	}
}

// WithHooks sets monitoring hooks.
func WithHooks(hooks *MonitoringHooks) Option {
	return func(o *Options) {
		o.Hooks = hooks
	}
}
