// Package stoppoint implements the generic stoppoint collection and the
// BreakpointSite/Watchpoint value types described in spec.md §4.2/§4.3,
// grounded on original_source/include/libsdb/stoppoint_collection.hpp — a
// Go generic standing in for the original's class template.
package stoppoint

import "github.com/gosdb/sdb/sdberr"

// ID is a per-inferior monotonic stoppoint identifier. Unlike the original
// C++'s get_next_id() (a function-local static, effectively process-global
// across every debugged inferior), ID values are handed out by an
// inferior.Inferior-owned counter — see spec.md's Design Note on
// "stoppoint ID scope" — so two Inferiors in the same debugger process
// never collide or interfere with each other's numbering.
type ID int

// Stoppoint is the narrow interface Collection needs: something addressable
// and identifiable that can be toggled on and off.
type Stoppoint interface {
	ID() ID
	Address() uint64
	IsEnabled() bool
	Disable() error
}

// Collection holds a set of stoppoints of one concrete kind (BreakpointSite
// or Watchpoint), indexed for both by-id and by-address lookup.
type Collection[T Stoppoint] struct {
	points []T
}

// Push appends a newly constructed stoppoint and returns it.
func (c *Collection[T]) Push(p T) T {
	c.points = append(c.points, p)
	return p
}

func (c *Collection[T]) findByID(id ID) int {
	for i, p := range c.points {
		if p.ID() == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) findByAddress(addr uint64) int {
	for i, p := range c.points {
		if p.Address() == addr {
			return i
		}
	}
	return -1
}

// ContainsID reports whether id is present in the collection.
func (c *Collection[T]) ContainsID(id ID) bool { return c.findByID(id) >= 0 }

// ContainsAddress reports whether a stoppoint exists at addr.
func (c *Collection[T]) ContainsAddress(addr uint64) bool { return c.findByAddress(addr) >= 0 }

// EnabledStoppointAtAddress reports whether a stoppoint at addr exists and
// is currently enabled.
func (c *Collection[T]) EnabledStoppointAtAddress(addr uint64) bool {
	i := c.findByAddress(addr)
	return i >= 0 && c.points[i].IsEnabled()
}

// GetByID returns the stoppoint with the given id.
func (c *Collection[T]) GetByID(id ID) (T, error) {
	var zero T
	i := c.findByID(id)
	if i < 0 {
		return zero, sdberr.New(sdberr.NotFound, "invalid stoppoint id")
	}
	return c.points[i], nil
}

// GetByAddress returns the stoppoint at the given address.
func (c *Collection[T]) GetByAddress(addr uint64) (T, error) {
	var zero T
	i := c.findByAddress(addr)
	if i < 0 {
		return zero, sdberr.New(sdberr.NotFound, "stoppoint with given address not found")
	}
	return c.points[i], nil
}

// RemoveByID disables and removes the stoppoint with the given id.
func (c *Collection[T]) RemoveByID(id ID) error {
	i := c.findByID(id)
	if i < 0 {
		return sdberr.New(sdberr.NotFound, "invalid stoppoint id")
	}
	if err := c.points[i].Disable(); err != nil {
		return err
	}
	c.points = append(c.points[:i], c.points[i+1:]...)
	return nil
}

// RemoveByAddress disables and removes the stoppoint at the given address.
func (c *Collection[T]) RemoveByAddress(addr uint64) error {
	i := c.findByAddress(addr)
	if i < 0 {
		return sdberr.New(sdberr.NotFound, "stoppoint with given address not found")
	}
	if err := c.points[i].Disable(); err != nil {
		return err
	}
	c.points = append(c.points[:i], c.points[i+1:]...)
	return nil
}

// ForEach calls f for every stoppoint currently in the collection.
func (c *Collection[T]) ForEach(f func(T)) {
	for _, p := range c.points {
		f(p)
	}
}

// InRegion returns every stoppoint whose address falls within [low, high).
func (c *Collection[T]) InRegion(low, high uint64) []T {
	var out []T
	for _, p := range c.points {
		if p.Address() >= low && p.Address() < high {
			out = append(out, p)
		}
	}
	return out
}

// Size reports how many stoppoints the collection currently holds.
func (c *Collection[T]) Size() int { return len(c.points) }

// Empty reports whether the collection holds no stoppoints.
func (c *Collection[T]) Empty() bool { return len(c.points) == 0 }
