package authweb

import (
	"container/list"
	"sync"
	"time"
)

const usedStatesMaxEntries = 4096

// usedStates remembers consumed state ids until they expire. The least
// recently added id is evicted when the cache is full.
type usedStates struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	maxEntries int
}

type usedStateEntry struct {
	id        string
	expiresAt time.Time
}

func newUsedStates(maxEntries int) *usedStates {
	if maxEntries <= 0 {
		maxEntries = usedStatesMaxEntries
	}

	return &usedStates{
		entries:    make(map[string]*list.Element, maxEntries),
		order:      list.New(),
		maxEntries: maxEntries,
	}
}

// consume marks id as used and reports whether it was unused.
func (c *usedStates) consume(id string, expiresAt time.Time, now time.Time) bool {
	if id == "" || !expiresAt.After(now) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictExpiredLocked(now)

	if _, ok := c.entries[id]; ok {
		return false
	}

	c.entries[id] = c.order.PushFront(&usedStateEntry{
		id:        id,
		expiresAt: expiresAt,
	})

	c.enforceSizeLimitLocked()

	return true
}

func (c *usedStates) evictExpiredLocked(now time.Time) {
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()

		entry, ok := elem.Value.(*usedStateEntry)
		if ok && now.After(entry.expiresAt) {
			c.removeElement(elem)
		}

		elem = prev
	}
}

func (c *usedStates) enforceSizeLimitLocked() {
	for len(c.entries) > c.maxEntries {
		elem := c.order.Back()
		if elem == nil {
			return
		}
		c.removeElement(elem)
	}
}

func (c *usedStates) removeElement(elem *list.Element) {
	if entry, ok := elem.Value.(*usedStateEntry); ok {
		delete(c.entries, entry.id)
	}
	c.order.Remove(elem)
}
