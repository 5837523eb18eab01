package slots

import "errors"

// ErrSlotOutOfRange is returned for an index outside the table.
var ErrSlotOutOfRange = errors.New("slot index out of range")

// ErrSlotOccupied is returned when assigning to a slot that is already occupied.
var ErrSlotOccupied = errors.New("slot already occupied")
