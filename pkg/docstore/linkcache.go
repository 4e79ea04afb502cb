package docstore

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LinkCache maps collection names to resolved links. Concurrent first lookups
// of the same name share a single resolution.
type LinkCache struct {
	mu    sync.RWMutex
	links map[string]CollectionLink
	// gens and epoch only grow; a resolution stores its link only if
	// neither moved while it ran.
	gens  map[string]uint64
	epoch uint64
	group singleflight.Group
}

// NewLinkCache creates an empty LinkCache.
func NewLinkCache() *LinkCache {
	return &LinkCache{
		links: make(map[string]CollectionLink),
		gens:  make(map[string]uint64),
	}
}

// Get returns the cached link for name, calling resolve once on a miss.
// Failed resolutions are not cached. The shared resolution is not cancelled
// by any one caller; each caller stops waiting when its own ctx is done.
func (c *LinkCache) Get(ctx context.Context, name string, resolve func(context.Context) (CollectionLink, error)) (CollectionLink, error) {
	if link, ok := c.lookup(name); ok {
		return link, nil
	}

	resolveCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(name, func() (any, error) {
		c.mu.RLock()
		link, ok := c.links[name]
		gen := c.generation(name)
		c.mu.RUnlock()
		if ok {
			return link, nil
		}

		link, err := resolve(resolveCtx)
		if err != nil {
			return CollectionLink{}, err
		}
		c.mu.Lock()
		if c.generation(name) == gen {
			c.links[name] = link
		}
		c.mu.Unlock()
		return link, nil
	})

	select {
	case <-ctx.Done():
		return CollectionLink{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return CollectionLink{}, res.Err
		}
		return res.Val.(CollectionLink), nil
	}
}

// generation must be called with mu held.
func (c *LinkCache) generation(name string) uint64 {
	return c.epoch + c.gens[name]
}

func (c *LinkCache) lookup(name string) (CollectionLink, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	link, ok := c.links[name]
	return link, ok
}

// Invalidate drops the link for name so the next Get resolves it again.
// A resolution already in flight for name will not repopulate the cache.
func (c *LinkCache) Invalidate(name string) {
	c.mu.Lock()
	delete(c.links, name)
	c.gens[name]++
	c.mu.Unlock()
	c.group.Forget(name)
}

// Reset drops every cached link and discards every resolution in flight.
func (c *LinkCache) Reset() {
	c.mu.Lock()
	names := make([]string, 0, len(c.links))
	for name := range c.links {
		names = append(names, name)
	}
	c.links = make(map[string]CollectionLink)
	c.epoch++
	c.mu.Unlock()
	for _, name := range names {
		c.group.Forget(name)
	}
}

// Len returns the number of cached links.
func (c *LinkCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.links)
}
