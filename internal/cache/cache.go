package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/trogers1052/stock-analytics-engine/internal/models"
	"golang.org/x/sync/singleflight"
)

// ErrMiss is returned by a RemoteStore when a key is absent
var ErrMiss = errors.New("cache miss")

const keyPrefix = "analytics:"

// Source reports where a result came from
type Source string

const (
	SourceLocal    Source = "local"
	SourceRemote   Source = "remote"
	SourceComputed Source = "computed"
)

// Key identifies one analysis request: instrument, optional date bounds and
// the SMA window set
type Key struct {
	Symbol  string
	Start   *time.Time
	End     *time.Time
	Windows []int
}

// String renders the key as analytics:{symbol}:{start}:{end}:{windows}
func (k Key) String() string {
	windows := make([]string, len(k.Windows))
	for i, w := range k.Windows {
		windows[i] = strconv.Itoa(w)
	}
	return SymbolPrefix(k.Symbol) + bound(k.Start) + ":" + bound(k.End) + ":" + strings.Join(windows, ",")
}

// SymbolPrefix is the key prefix shared by every entry of one instrument
func SymbolPrefix(symbol string) string {
	return keyPrefix + symbol + ":"
}

func bound(t *time.Time) string {
	if t == nil {
		return "*"
	}
	return t.Format(models.DateLayout)
}

// RemoteStore is a shared second cache tier
type RemoteStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// remoteEntry tags a remote value with the symbol generation it was
// computed under
type remoteEntry struct {
	Generation uint64                 `json:"generation"`
	Result     *models.AnalysisResult `json:"result"`
}

// ComputeFunc produces a fresh result on a miss
type ComputeFunc func(ctx context.Context) (*models.AnalysisResult, error)

// Options configures a Cache. ComputeTimeout bounds a shared computation,
// which outlives the caller that started it; zero means no bound.
type Options struct {
	TTL            time.Duration
	MaxEntries     int
	ComputeTimeout time.Duration
	Remote         RemoteStore
}

type entry struct {
	result  *models.AnalysisResult
	expires time.Time
}

type flight struct {
	result *models.AnalysisResult
	source Source
}

// Cache memoizes analysis results per Key. Concurrent misses on the same key
// share one computation. Results are shared between callers and must be
// treated as read-only.
type Cache struct {
	mu             sync.RWMutex
	local          map[string]entry
	gens           map[string]uint64
	group          singleflight.Group
	remote         RemoteStore
	ttl            time.Duration
	maxEntries     int
	computeTimeout time.Duration
	now            func() time.Time
}

// New creates a cache. A zero TTL keeps entries until invalidated.
func New(opts Options) *Cache {
	return &Cache{
		local:          make(map[string]entry),
		gens:           make(map[string]uint64),
		remote:         opts.Remote,
		ttl:            opts.TTL,
		maxEntries:     opts.MaxEntries,
		computeTimeout: opts.ComputeTimeout,
		now:            time.Now,
	}
}

// Get returns the cached result for key, computing it on a miss. The shared
// computation is detached from ctx: a cancelled caller stops waiting without
// failing the other callers of the same key.
func (c *Cache) Get(ctx context.Context, key Key, compute ComputeFunc) (*models.AnalysisResult, Source, error) {
	k := key.String()
	if res, ok := c.lookup(k); ok {
		return res, SourceLocal, nil
	}

	gen := c.generation(key.Symbol)
	ch := c.group.DoChan(k+"#"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		fctx := context.WithoutCancel(ctx)
		if c.computeTimeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(fctx, c.computeTimeout)
			defer cancel()
		}
		return c.fill(fctx, key.Symbol, k, gen, compute)
	})

	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, "", r.Err
		}
		f := r.Val.(flight)
		return f.result, f.source, nil
	}
}

func (c *Cache) fill(ctx context.Context, symbol, k string, gen uint64, compute ComputeFunc) (interface{}, error) {
	if res, ok := c.lookup(k); ok {
		return flight{res, SourceLocal}, nil
	}
	if res, ok := c.fetchRemote(ctx, k, gen); ok {
		c.store(symbol, k, gen, res)
		return flight{res, SourceRemote}, nil
	}

	res, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if c.store(symbol, k, gen, res) {
		c.pushRemote(ctx, symbol, k, gen, res)
	}
	return flight{res, SourceComputed}, nil
}

// Invalidate drops every entry for symbol. Computations already in flight
// for the symbol finish for their callers but are not stored.
func (c *Cache) Invalidate(ctx context.Context, symbol string) error {
	prefix := SymbolPrefix(symbol)

	c.mu.Lock()
	c.gens[symbol]++
	for k := range c.local {
		if strings.HasPrefix(k, prefix) {
			delete(c.local, k)
		}
	}
	c.mu.Unlock()

	if c.remote != nil {
		if err := c.remote.DeletePrefix(ctx, prefix); err != nil {
			return fmt.Errorf("failed to invalidate remote entries for %s: %w", symbol, err)
		}
	}
	return nil
}

// Len returns the number of locally held entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.local)
}

func (c *Cache) lookup(k string) (*models.AnalysisResult, bool) {
	c.mu.RLock()
	e, ok := c.local[k]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.mu.Lock()
		if cur, ok := c.local[k]; ok && cur.expires.Equal(e.expires) {
			delete(c.local, k)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.result, true
}

func (c *Cache) generation(symbol string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[symbol]
}

// store saves res unless symbol was invalidated after gen was read
func (c *Cache) store(symbol, k string, gen uint64, res *models.AnalysisResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[symbol] != gen {
		return false
	}
	if c.maxEntries > 0 && len(c.local) >= c.maxEntries {
		c.evict()
	}

	e := entry{result: res}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.local[k] = e
	return true
}

// evict removes expired entries, or one arbitrary entry if none expired.
// Caller holds c.mu.
func (c *Cache) evict() {
	now := c.now()
	removed := false
	for k, e := range c.local {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(c.local, k)
			removed = true
		}
	}
	if removed {
		return
	}
	for k := range c.local {
		delete(c.local, k)
		return
	}
}

// fetchRemote returns the remote value for k if it was written under gen
func (c *Cache) fetchRemote(ctx context.Context, k string, gen uint64) (*models.AnalysisResult, bool) {
	if c.remote == nil {
		return nil, false
	}
	data, err := c.remote.Get(ctx, k)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			log.Warn().Err(err).Str("cache", k).Msg("remote cache read failed")
		}
		return nil, false
	}

	var e remoteEntry
	if err := json.Unmarshal(data, &e); err != nil || e.Result == nil {
		log.Warn().Err(err).Str("cache", k).Msg("discarding undecodable remote cache entry")
		return nil, false
	}
	if e.Generation != gen {
		log.Debug().Str("cache", k).Uint64("generation", e.Generation).Msg("skipping remote entry from another generation")
		return nil, false
	}
	return e.Result, true
}

// pushRemote writes res under gen, then removes it again if the symbol was
// invalidated while the write was in progress
func (c *Cache) pushRemote(ctx context.Context, symbol, k string, gen uint64, res *models.AnalysisResult) {
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(remoteEntry{Generation: gen, Result: res})
	if err != nil {
		log.Warn().Err(err).Str("cache", k).Msg("failed to encode result for remote cache")
		return
	}
	if err := c.remote.Set(ctx, k, data, c.ttl); err != nil {
		log.Warn().Err(err).Str("cache", k).Msg("remote cache write failed")
		return
	}
	if c.generation(symbol) != gen {
		if err := c.remote.Delete(ctx, k); err != nil {
			log.Warn().Err(err).Str("cache", k).Msg("failed to drop invalidated remote entry")
		}
	}
}
