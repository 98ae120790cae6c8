// Package cache keeps parsed scenes in memory so repeated requests for
// the same file skip the parse.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/NERVsystems/osmscene/pkg/monitoring"
	"github.com/NERVsystems/osmscene/pkg/osm"
	"github.com/NERVsystems/osmscene/pkg/tracing"
)

const (
	// DefaultSize is the number of parsed files kept
	DefaultSize = 16
	// DefaultTTL is how long an entry lives after it was added
	DefaultTTL = 10 * time.Minute
)

// Parser is the subset of *osm.Parser the cache needs.
type Parser interface {
	ParseFile(ctx context.Context, path string) (*osm.Result, error)
}

// SceneCache maps files to parse results. Entries are keyed by path, size
// and modification time, so an edited file is parsed again. Concurrent
// loads of the same key share one parse.
type SceneCache struct {
	parser  Parser
	entries *expirable.LRU[string, *osm.Result]
	group   singleflight.Group
	logger  *slog.Logger
}

// NewSceneCache creates a cache holding at most size results for ttl.
// Non-positive arguments fall back to DefaultSize and DefaultTTL.
func NewSceneCache(parser Parser, size int, ttl time.Duration, logger *slog.Logger) *SceneCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &SceneCache{
		parser: parser,
		logger: logger.With("component", "scene_cache"),
	}
	c.entries = expirable.NewLRU(size, func(key string, _ *osm.Result) {
		c.logger.Debug("scene evicted", "key", key)
	}, ttl)
	return c
}

// Key returns the cache key for a file. It changes whenever the file's
// size or modification time does.
func Key(path string, info os.FileInfo) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path + "|" + strconv.FormatInt(info.Size(), 10) + "|" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
}

// Load returns the parse result for path, parsing it on a miss. hit
// reports whether the result came from the cache. Failed parses are not
// cached.
func (c *SceneCache) Load(ctx context.Context, path string) (res *osm.Result, hit bool, err error) {
	ctx, span := tracing.StartCacheLoad(ctx, path)
	defer span.End()

	info, err := os.Stat(path)
	if err != nil {
		err = fmt.Errorf("stat %s: %w: %w", path, osm.ErrNotFound, err)
		tracing.Finish(span, err)
		return nil, false, err
	}
	key := Key(path, info)

	if res, ok := c.entries.Get(key); ok {
		monitoring.RecordCacheHit(tracing.CacheTypeScene)
		span.SetAttributes(tracing.CacheAttributes(tracing.CacheTypeScene, true, key)...)
		c.logger.Debug("scene cache hit", "path", path)
		return res, true, nil
	}

	monitoring.RecordCacheMiss(tracing.CacheTypeScene)
	span.SetAttributes(tracing.CacheAttributes(tracing.CacheTypeScene, false, key)...)

	// The shared parse outlives any single caller; each caller stops
	// waiting on its own context.
	parseCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		res, err := c.parser.ParseFile(parseCtx, path)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, res)
		monitoring.UpdateCacheSize(tracing.CacheTypeScene, c.entries.Len())
		return res, nil
	})

	var r singleflight.Result
	select {
	case r = <-ch:
	case <-ctx.Done():
		r.Err = fmt.Errorf("load %s: %w: %w", path, osm.ErrIO, ctx.Err())
	}
	tracing.Finish(span, r.Err)
	if r.Err != nil {
		return nil, false, r.Err
	}

	c.logger.Debug("scene cache miss", "path", path, "shared", r.Shared)
	return r.Val.(*osm.Result), false, nil
}

// Len returns the number of cached results.
func (c *SceneCache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *SceneCache) Purge() {
	c.entries.Purge()
	monitoring.UpdateCacheSize(tracing.CacheTypeScene, 0)
}
