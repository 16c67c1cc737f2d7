package category

import (
	"strconv"
	"strings"
)

const rootKey = "root"

// Entry is a resolved category
type Entry struct {
	ID   int64
	Slug string
}

type cacheKey struct {
	parent string
	name   string
}

// Cache remembers categories resolved during one import run, keyed by
// parent and lowercased name. It is owned by a single run and never shared
// or persisted.
type Cache struct {
	entries map[cacheKey]Entry
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]Entry)}
}

func keyFor(parent *int64, name string) cacheKey {
	p := rootKey
	if parent != nil {
		p = strconv.FormatInt(*parent, 10)
	}
	return cacheKey{parent: p, name: strings.ToLower(name)}
}

// Get looks up the category named name under parent (nil for the root)
func (c *Cache) Get(parent *int64, name string) (Entry, bool) {
	e, ok := c.entries[keyFor(parent, name)]
	return e, ok
}

// Put records a resolved category
func (c *Cache) Put(parent *int64, name string, e Entry) {
	c.entries[keyFor(parent, name)] = e
}

// Len returns the number of cached categories
func (c *Cache) Len() int {
	return len(c.entries)
}
