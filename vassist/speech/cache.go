package speech

import (
	"sync"
	"time"

	"github.com/ZanzyTHEbar/virtual-assistant/vassist/media"
)

// synthCache is a small LRU with TTL for synthesized utterances, keyed by
// voice and text. A capacity of zero or less disables caching entirely.
type synthCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*synthEntry
	head     *synthEntry
	tail     *synthEntry
}

type synthEntry struct {
	key     string
	frame   media.Frame
	expires time.Time
	prev    *synthEntry
	next    *synthEntry
}

func newSynthCache(capacity int, ttl time.Duration) *synthCache {
	return &synthCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*synthEntry),
	}
}

func (c *synthCache) get(key string) (media.Frame, bool) {
	if c.capacity <= 0 {
		return media.Frame{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		return media.Frame{}, false
	}
	if time.Now().After(entry.expires) {
		c.unlink(entry)
		delete(c.items, key)
		return media.Frame{}, false
	}

	c.moveToFront(entry)
	return entry.frame, true
}

func (c *synthCache) set(key string, frame media.Frame) {
	if c.capacity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expires := time.Now().Add(c.ttl)
	if entry, ok := c.items[key]; ok {
		entry.frame = frame
		entry.expires = expires
		c.moveToFront(entry)
		return
	}

	entry := &synthEntry{key: key, frame: frame, expires: expires}
	c.pushFront(entry)
	c.items[key] = entry

	if len(c.items) > c.capacity {
		c.evictOldest()
	}
}

func (c *synthCache) moveToFront(entry *synthEntry) {
	if entry == c.head {
		return
	}
	c.unlink(entry)
	c.pushFront(entry)
}

func (c *synthCache) pushFront(entry *synthEntry) {
	entry.next = c.head
	entry.prev = nil
	if c.head != nil {
		c.head.prev = entry
	}
	c.head = entry
	if c.tail == nil {
		c.tail = entry
	}
}

func (c *synthCache) unlink(entry *synthEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}
	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}
	entry.prev = nil
	entry.next = nil
}

func (c *synthCache) evictOldest() {
	if c.tail == nil {
		return
	}
	entry := c.tail
	c.unlink(entry)
	delete(c.items, entry.key)
}
