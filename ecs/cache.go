package ecs

// EntityCache is a derived index over entities whose component mask contains
// the mask the cache was registered with. Erase drops a slot index from the
// cache and is a no-op if the index is not cached.
type EntityCache interface {
	Erase(index uint32)
}

// CacheInserter is implemented by caches that want to learn when an entity
// starts matching their mask, rather than rebuilding themselves.
type CacheInserter interface {
	Insert(index uint32)
}

type cacheEntry struct {
	mask  ComponentMask
	cache EntityCache
}

// CacheRegistry holds the derived caches of one world with their subscription masks.
type CacheRegistry struct {
	entries []cacheEntry
}

// NewCacheRegistry creates an empty cache registry.
func NewCacheRegistry() *CacheRegistry {
	return &CacheRegistry{
		entries: make([]cacheEntry, 0, 8),
	}
}

// Register subscribes cache to entities whose mask contains mask.
func (r *CacheRegistry) Register(mask ComponentMask, cache EntityCache) {
	r.entries = append(r.entries, cacheEntry{mask: mask, cache: cache})
}

// Unregister removes every subscription of cache and reports whether one existed.
// It may be called from an Erase or Insert callback; a notification already in
// progress still reaches the caches registered when it started.
func (r *CacheRegistry) Unregister(cache EntityCache) bool {
	kept := make([]cacheEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.cache != cache {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(r.entries) {
		return false
	}
	r.entries = kept
	return true
}

// Len returns the number of subscriptions.
func (r *CacheRegistry) Len() int {
	return len(r.entries)
}

// erase notifies every cache whose mask is a subset of mask.
func (r *CacheRegistry) erase(mask ComponentMask, index uint32) {
	for _, entry := range r.entries {
		if mask.Contains(entry.mask) {
			entry.cache.Erase(index)
		}
	}
}

// transition notifies caches about an entity whose mask changed from before to after.
func (r *CacheRegistry) transition(index uint32, before, after ComponentMask) {
	for _, entry := range r.entries {
		was := before.Contains(entry.mask)
		is := after.Contains(entry.mask)
		switch {
		case was && !is:
			entry.cache.Erase(index)
		case !was && is:
			if inserter, ok := entry.cache.(CacheInserter); ok {
				inserter.Insert(index)
			}
		}
	}
}

// created notifies caches subscribed to the empty mask about a new entity.
func (r *CacheRegistry) created(index uint32) {
	for _, entry := range r.entries {
		if !entry.mask.IsEmpty() {
			continue
		}
		if inserter, ok := entry.cache.(CacheInserter); ok {
			inserter.Insert(index)
		}
	}
}
