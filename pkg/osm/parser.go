package osm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/NERVsystems/osmscene/pkg/geo"
	"github.com/NERVsystems/osmscene/pkg/tracing"
)

// Parser turns map-data sources into scenes. Each call parses
// independently, so a Parser may be shared between goroutines.
type Parser struct {
	opts Options
}

// NewParser creates a parser with the given options applied on top of
// DefaultOptions.
func NewParser(opts ...Option) (*Parser, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Zoom < 0 || o.Zoom > geo.MaxZoom {
		return nil, fmt.Errorf("invalid zoom %d (must be between 0 and %d)", o.Zoom, geo.MaxZoom)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Parser{opts: o}, nil
}

// ParseFile parses the file at path with a parser built from opts.
func ParseFile(ctx context.Context, path string, opts ...Option) (*Result, error) {
	p, err := NewParser(opts...)
	if err != nil {
		return nil, err
	}
	return p.ParseFile(ctx, path)
}

// Parse parses r with a parser built from opts.
func Parse(ctx context.Context, r io.Reader, opts ...Option) (*Result, error) {
	p, err := NewParser(opts...)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, r)
}

// ParseFile opens path and parses it. Failure to open yields an error
// wrapping ErrNotFound.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		err = fmt.Errorf("open %s: %w: %w", path, ErrNotFound, err)
		p.opts.Hooks.parseComplete(path, Stats{}, 0, err)
		p.opts.Logger.Error("failed to open source", "source", path, "error", err)
		return nil, err
	}
	defer f.Close()

	return p.parse(ctx, path, f)
}

// Parse reads r to the end in a single forward pass. Element-level errors
// are reported to the configured sink and the offending element dropped.
// Only a read failure or cancellation of ctx returns an error, in which
// case no result is produced.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Result, error) {
	return p.parse(ctx, "reader", r)
}

func (p *Parser) parse(ctx context.Context, source string, r io.Reader) (*Result, error) {
	ctx, span := tracing.StartParse(ctx, source)
	defer span.End()

	logger := p.opts.Logger.With("source", source)
	start := time.Now()
	p.opts.Hooks.parseStart(source)

	pc := newParseContext(p.opts, source, logger)
	err := pc.run(ctx, r)
	duration := time.Since(start)
	p.opts.Hooks.parseComplete(source, pc.stats, duration, err)

	tracing.Finish(span, err)
	if err != nil {
		logger.Error("parse failed",
			"status", StatusOf(err).String(),
			"line", pc.line,
			"error", err)
		return nil, err
	}

	res := pc.result()
	span.SetAttributes(tracing.ParseAttributes(
		res.Stats.Lines,
		res.Stats.NodesCommitted,
		res.Stats.WaysCommitted,
		res.Stats.Roads,
		res.Stats.LandUses,
		res.Stats.Diagnostics,
	)...)

	logger.Info("parse complete",
		"status", res.Status().String(),
		"lines", res.Stats.Lines,
		"nodes", res.Stats.NodesCommitted,
		"ways", res.Stats.WaysCommitted,
		"roads", res.Stats.Roads,
		"land_uses", res.Stats.LandUses,
		"diagnostics", res.Stats.Diagnostics,
		"bounds_width", res.Scene.Bounds.Width,
		"bounds_height", res.Scene.Bounds.Height,
		"duration_ms", duration.Milliseconds())

	return res, nil
}
