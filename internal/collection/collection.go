// Package collection holds the in-memory, order-sensitive entity lists the
// client keeps in sync with the backend. A collection is mutated only through
// four operations — ReplaceAll, Prepend, MergeByKey, RemoveByKey — and never
// contains two entities with the same primary key.
package collection

// Collection is an ordered list of T keyed by K. Lists are small (one team's
// products, suppliers, or ledger), so lookups scan linearly.
type Collection[K comparable, T any] struct {
	keyOf   func(T) K
	items   []T
	version uint64
}

func New[K comparable, T any](keyOf func(T) K) *Collection[K, T] {
	return &Collection[K, T]{keyOf: keyOf}
}

// ReplaceAll swaps in a full server response, preserving its order. Should the
// response ever repeat a key, the first occurrence wins.
func (c *Collection[K, T]) ReplaceAll(items []T) {
	c.items = c.items[:0]
	seen := make(map[K]struct{}, len(items))
	for _, item := range items {
		k := c.keyOf(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		c.items = append(c.items, item)
	}
	c.version++
}

// Prepend inserts a newly created entity at the front (most-recent-first
// display order). An entity whose key is already present is merged instead,
// keeping the uniqueness invariant.
func (c *Collection[K, T]) Prepend(item T) {
	if i := c.indexOf(c.keyOf(item)); i >= 0 {
		c.items[i] = item
		c.version++
		return
	}
	c.items = append([]T{item}, c.items...)
	c.version++
}

// MergeByKey replaces an existing entity in place, or adds an unknown one at
// the front. Replacement never moves a row.
func (c *Collection[K, T]) MergeByKey(item T) {
	if i := c.indexOf(c.keyOf(item)); i >= 0 {
		c.items[i] = item
		c.version++
		return
	}
	c.items = append([]T{item}, c.items...)
	c.version++
}

// RemoveByKey deletes the entity with the given key; absent keys are a no-op.
func (c *Collection[K, T]) RemoveByKey(key K) bool {
	i := c.indexOf(key)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.version++
	return true
}

// Get returns the entity with the given key.
func (c *Collection[K, T]) Get(key K) (T, bool) {
	if i := c.indexOf(key); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Items returns a copy of the list in display order.
func (c *Collection[K, T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[K, T]) Len() int { return len(c.items) }

// Version increases on every mutation; views compare it to know when to
// rebuild and reset paging.
func (c *Collection[K, T]) Version() uint64 { return c.version }

func (c *Collection[K, T]) indexOf(key K) int {
	for i := range c.items {
		if c.keyOf(c.items[i]) == key {
			return i
		}
	}
	return -1
}
