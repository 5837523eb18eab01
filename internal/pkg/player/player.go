// Package player holds the client's local participant: its initial state and
// a headless walker that moves it every tick in place of keyboard input.
package player

import (
	"math/rand"

	"netdemo/internal/pkg/snapshot"
)

const (
	// Speed is the distance moved per tick along each axis.
	Speed = 1
	// FieldWidth and FieldHeight bound the playing field.
	FieldWidth  = 640
	FieldHeight = 360
	// Size is the side of a participant's square.
	Size = 16
)

// RandomColor returns an opaque color with random channels.
func RandomColor(rnd *rand.Rand) snapshot.Color {
	return snapshot.Color{
		R: uint8(rnd.Intn(256)),
		G: uint8(rnd.Intn(256)),
		B: uint8(rnd.Intn(256)),
		A: 255,
	}
}

// New returns a participant at the origin with a random opaque color.
func New(rnd *rand.Rand) snapshot.Snapshot {
	return snapshot.Snapshot{
		Tag:   snapshot.TagEntity,
		Color: RandomColor(rnd),
	}
}

// direction is one of the eight compass moves plus standing still.
type direction struct {
	dx, dy int32
}

var directions = []direction{
	{0, 0},
	{-Speed, 0}, {Speed, 0}, {0, -Speed}, {0, Speed},
	{-Speed, -Speed}, {-Speed, Speed}, {Speed, -Speed}, {Speed, Speed},
}

// Walker moves a participant one step per tick, holding a direction for a
// random number of ticks before picking another.
type Walker struct {
	rnd  *rand.Rand
	dir  direction
	hold int
}

// NewWalker creates a Walker driven by rnd.
func NewWalker(rnd *rand.Rand) *Walker {
	return &Walker{rnd: rnd}
}

// Step moves s by one tick, keeping it inside the field. Y grows upwards,
// so the field spans [0, FieldWidth-Size] by [-(FieldHeight-Size), 0].
func (w *Walker) Step(s *snapshot.Snapshot) {
	if w.hold <= 0 {
		w.dir = directions[w.rnd.Intn(len(directions))]
		w.hold = 10 + w.rnd.Intn(50)
	}
	w.hold--
	s.X = clamp(s.X+w.dir.dx, 0, FieldWidth-Size)
	s.Y = clamp(s.Y+w.dir.dy, -(FieldHeight - Size), 0)
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
