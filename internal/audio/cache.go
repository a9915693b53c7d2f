package audio

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
)

// Cache keeps recently synthesized speech so replaying a phrase does not
// call the synthesizer again. The oldest entry is evicted when full.
type Cache struct {
	mu      sync.Mutex
	max     int
	order   []string
	entries map[string]*Buffer
}

// NewCache creates a cache holding up to max buffers
func NewCache(max int) *Cache {
	if max <= 0 {
		max = 32
	}
	return &Cache{max: max, entries: make(map[string]*Buffer)}
}

// Get returns the cached buffer for text spoken with voice
func (c *Cache) Get(text, voice string) (*Buffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[cacheKey(text, voice)]
	return b, ok
}

// Put stores a buffer
func (c *Cache) Put(text, voice string, b *Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(text, voice)
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = b

	for len(c.order) > c.max {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
}

// Len returns the number of cached buffers
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(text, voice string) string {
	h := md5.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(voice))
	return hex.EncodeToString(h.Sum(nil))
}
