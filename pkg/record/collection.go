package record

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-record/pkg/apperrors"
)

// ErrKeyNotFound is returned by Collection.Get for an absent key.
var ErrKeyNotFound = fmt.Errorf("collection key %w", apperrors.ErrNotFound)

// Entry is a key and its item.
type Entry[T any] struct {
	Key  int
	Item T
}

// Collection is an ordered container keyed by int. Add assigns increasing
// keys starting at 0; Put stores at an explicit key without moving the auto
// key, so a later Add may overwrite an explicitly keyed item. Overwriting a
// key keeps its original position. The zero value is ready to use.
type Collection[T any] struct {
	next  int
	items map[int]T
	order []int
}

// NewCollection returns an empty collection.
func NewCollection[T any]() *Collection[T] {
	return &Collection[T]{}
}

// Add stores item at the next auto key and returns that key.
func (c *Collection[T]) Add(item T) int {
	key := c.next
	c.next++
	c.Put(key, item)
	return key
}

// Put stores item at key.
func (c *Collection[T]) Put(key int, item T) {
	if c.items == nil {
		c.items = make(map[int]T)
	}
	if _, exists := c.items[key]; !exists {
		c.order = append(c.order, key)
	}
	c.items[key] = item
}

// Get returns the item at key or an error wrapping ErrKeyNotFound.
func (c *Collection[T]) Get(key int) (T, error) {
	item, ok := c.items[key]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %d", ErrKeyNotFound, key)
	}
	return item, nil
}

// All returns every entry in insertion order.
func (c *Collection[T]) All() []Entry[T] {
	entries := make([]Entry[T], 0, len(c.order))
	for _, key := range c.order {
		entries = append(entries, Entry[T]{Key: key, Item: c.items[key]})
	}
	return entries
}

// Keys returns the keys in insertion order.
func (c *Collection[T]) Keys() []int {
	return append([]int(nil), c.order...)
}

// Items returns the items in insertion order.
func (c *Collection[T]) Items() []T {
	items := make([]T, 0, len(c.order))
	for _, key := range c.order {
		items = append(items, c.items[key])
	}
	return items
}

// First returns the earliest inserted item.
func (c *Collection[T]) First() (T, bool) {
	if len(c.order) == 0 {
		var zero T
		return zero, false
	}
	return c.items[c.order[0]], true
}

func (c *Collection[T]) Len() int {
	return len(c.order)
}
