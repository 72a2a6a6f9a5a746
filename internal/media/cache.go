package media

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ivlev/scene2video/internal/errs"
)

// ErrStale is returned when a resource was evicted while it was decoding.
var ErrStale = errors.New("media: resource evicted during decode")

type cacheEntry struct {
	handle Handle
	kind   Kind
}

// Cache maps resource identity to a decoded handle. Each resource is decoded
// once even under concurrent requests. A cache belongs to one editing session:
// Retain drops handles for resources that left the scene set, Clear drops
// everything.
type Cache struct {
	loader Loader
	log    *zap.Logger
	group  singleflight.Group

	mu      sync.Mutex
	entries map[string]cacheEntry
	// gens is bumped per identity on eviction, epoch on Clear. A decode that
	// finishes under an older generation releases its handle instead of
	// storing it.
	gens  map[string]uint64
	epoch uint64
}

func NewCache(loader Loader, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		loader:  loader,
		log:     log,
		entries: make(map[string]cacheEntry),
		gens:    make(map[string]uint64),
	}
}

type generation struct {
	epoch, gen uint64
}

func (c *Cache) generationLocked(id string) generation {
	return generation{epoch: c.epoch, gen: c.gens[id]}
}

// Peek returns a handle without decoding.
func (c *Cache) Peek(res *Resource) (Handle, bool) {
	if res == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[res.Identity()]
	return e.handle, ok
}

// Get returns the decoded handle for res, decoding it on first use.
func (c *Cache) Get(ctx context.Context, res *Resource, kind Kind) (Handle, error) {
	if res == nil {
		return nil, errs.MediaDecode("load", "", errEmptyResource)
	}
	id := res.Identity()

	c.mu.Lock()
	if e, ok := c.entries[id]; ok {
		c.mu.Unlock()
		return e.handle, nil
	}
	gen := c.generationLocked(id)
	c.mu.Unlock()

	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		h, err := c.loader.Decode(ctx, res, kind)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generationLocked(id) != gen {
			c.log.Debug("Dropping stale decode", zap.String("id", id))
			if rerr := h.Release(); rerr != nil {
				c.log.Warn("Release stale handle", zap.String("id", id), zap.Error(rerr))
			}
			return nil, errs.MediaDecode("load", id, ErrStale)
		}
		if e, ok := c.entries[id]; ok {
			// a caller with a newer generation stored first
			h.Release()
			return e.handle, nil
		}
		c.entries[id] = cacheEntry{handle: h, kind: kind}
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Handle), nil
}

// Evict releases the handle for one identity and invalidates in-flight decodes.
func (c *Cache) Evict(id string) error {
	c.mu.Lock()
	c.gens[id]++
	e, ok := c.entries[id]
	delete(c.entries, id)
	c.mu.Unlock()

	c.group.Forget(id)
	if !ok {
		return nil
	}
	return e.handle.Release()
}

// Retain evicts every entry whose identity is not in keep.
func (c *Cache) Retain(keep []string) error {
	wanted := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		wanted[k] = struct{}{}
	}

	c.mu.Lock()
	var stale []string
	for id := range c.entries {
		if _, ok := wanted[id]; !ok {
			stale = append(stale, id)
		}
	}
	c.mu.Unlock()

	var err error
	for _, id := range stale {
		err = multierr.Append(err, c.Evict(id))
	}
	return err
}

// Clear releases every handle and invalidates all in-flight decodes.
func (c *Cache) Clear() error {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]cacheEntry)
	c.gens = make(map[string]uint64)
	c.epoch++
	c.mu.Unlock()

	var err error
	for id, e := range entries {
		c.group.Forget(id)
		err = multierr.Append(err, e.handle.Release())
	}
	return err
}

// Keys lists cached identities in sorted order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for id := range c.entries {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
