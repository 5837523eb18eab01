// Package slots implements the server's bounded table of peer slots.
//
// A slot index is stable for the whole time a connection occupies it, so the
// relay can address "every other occupied slot" by index. The table is not
// safe for concurrent use; it is owned by the relay loop.
package slots

import (
	"net"

	"github.com/google/uuid"
)

// Slot is one entry of the table.
type Slot struct {
	Index int
	// Session identifies one occupancy period in logs.
	Session uuid.UUID
	Conn    net.Conn
}

// Table is a fixed-capacity array of slots.
type Table struct {
	slots    []*Slot
	occupied int
}

// NewTable creates an empty table with the given capacity.
func NewTable(capacity int) *Table {
	return &Table{
		slots: make([]*Slot, capacity),
	}
}

// Cap returns the table capacity.
func (t *Table) Cap() int {
	return len(t.slots)
}

// Len returns the number of occupied slots.
func (t *Table) Len() int {
	return t.occupied
}

// FindFree returns the lowest empty index, or false if the table is full.
func (t *Table) FindFree() (int, bool) {
	for i, s := range t.slots {
		if s == nil {
			return i, true
		}
	}
	return 0, false
}

// Assign binds conn to the empty slot at index.
func (t *Table) Assign(index int, conn net.Conn) (Slot, error) {
	if index < 0 || index >= len(t.slots) {
		return Slot{}, ErrSlotOutOfRange
	}
	if t.slots[index] != nil {
		return Slot{}, ErrSlotOccupied
	}
	s := &Slot{
		Index:   index,
		Session: uuid.New(),
		Conn:    conn,
	}
	t.slots[index] = s
	t.occupied++
	return *s, nil
}

// Release empties the slot at index and returns what occupied it.
// Releasing an empty or out-of-range slot is a no-op and returns false.
func (t *Table) Release(index int) (Slot, bool) {
	if index < 0 || index >= len(t.slots) || t.slots[index] == nil {
		return Slot{}, false
	}
	s := t.slots[index]
	t.slots[index] = nil
	t.occupied--
	return *s, true
}

// Get returns the slot at index if it is occupied.
func (t *Table) Get(index int) (Slot, bool) {
	if !t.IsOccupied(index) {
		return Slot{}, false
	}
	return *t.slots[index], true
}

// IsOccupied reports whether a connection is bound to index.
func (t *Table) IsOccupied(index int) bool {
	return index >= 0 && index < len(t.slots) && t.slots[index] != nil
}

// Occupied returns the occupied indices in ascending order.
func (t *Table) Occupied() []int {
	out := make([]int, 0, t.occupied)
	for i, s := range t.slots {
		if s != nil {
			out = append(out, i)
		}
	}
	return out
}
