package handle

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultStatCacheSize = 256

// StatCache remembers Stat results by resource uri until invalidated.
type StatCache struct {
	cache *lru.Cache[string, Stat]
}

var DefaultStatCache = NewStatCache(defaultStatCacheSize)

func NewStatCache(size int) *StatCache {
	if size <= 0 {
		size = defaultStatCacheSize
	}
	cache, err := lru.New[string, Stat](size)
	if err != nil {
		panic(err)
	}
	return &StatCache{cache: cache}
}

func (c *StatCache) Load(uri string) (Stat, bool) {
	if c == nil || uri == "" {
		return Stat{}, false
	}
	return c.cache.Get(uri)
}

func (c *StatCache) Store(uri string, stat Stat) {
	if c == nil || uri == "" {
		return
	}
	c.cache.Add(uri, stat)
}

func (c *StatCache) Invalidate(uri string) {
	if c == nil || uri == "" {
		return
	}
	c.cache.Remove(uri)
}

func (c *StatCache) Purge() {
	if c == nil {
		return
	}
	c.cache.Purge()
}

func (c *StatCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
