// Package snapshot implements the fixed-size wire record exchanged between
// clients and relayed by the server.
//
// A Snapshot is encoded big-endian as:
//
//	offset  size  field
//	0       1     tag
//	1       4     x (int32)
//	5       4     y (int32)
//	9       1     red
//	10      1     green
//	11      1     blue
//	12      1     alpha
//
// There is no length prefix or delimiter, so the stream is framed purely by Size.
package snapshot

import (
	"encoding"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Size is the encoded length of a Snapshot in bytes.
const Size = 13

// TagEntity is the tag carried by every player record.
const TagEntity byte = 'h'

// Color is an RGBA color with 8 bits per channel.
type Color struct {
	R, G, B, A uint8
}

// Snapshot is one participant's transmissible state.
type Snapshot struct {
	Tag   byte
	X     int32
	Y     int32
	Color Color
}

var (
	_ encoding.BinaryMarshaler   = Snapshot{}
	_ encoding.BinaryUnmarshaler = (*Snapshot)(nil)
)

// Put encodes s into the first Size bytes of dst.
func (s Snapshot) Put(dst []byte) error {
	if len(dst) < Size {
		return ErrShortBuffer
	}
	dst[0] = s.Tag
	binary.BigEndian.PutUint32(dst[1:5], uint32(s.X))
	binary.BigEndian.PutUint32(dst[5:9], uint32(s.Y))
	dst[9] = s.Color.R
	dst[10] = s.Color.G
	dst[11] = s.Color.B
	dst[12] = s.Color.A
	return nil
}

// MarshalBinary returns the Size-byte encoding of s.
func (s Snapshot) MarshalBinary() ([]byte, error) {
	b := make([]byte, Size)
	if err := s.Put(b); err != nil {
		return nil, err
	}
	return b, nil
}

// UnmarshalBinary decodes the first Size bytes of data into s.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	if len(data) < Size {
		return ErrShortBuffer
	}
	s.Tag = data[0]
	s.X = int32(binary.BigEndian.Uint32(data[1:5]))
	s.Y = int32(binary.BigEndian.Uint32(data[5:9]))
	s.Color = Color{R: data[9], G: data[10], B: data[11], A: data[12]}
	return nil
}

// Decode is a convenience wrapper around UnmarshalBinary.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	err := s.UnmarshalBinary(data)
	return s, err
}

// Write writes exactly one encoded Snapshot to w.
func Write(w io.Writer, s Snapshot) error {
	var buf [Size]byte
	if err := s.Put(buf[:]); err != nil {
		return err
	}
	if _, err := w.Write(buf[:]); err != nil {
		return errors.Wrap(err, "write snapshot failed")
	}
	return nil
}

// Read blocks until exactly one Snapshot has been read from r.
// A clean close before any byte returns io.EOF; a close mid-record returns
// io.ErrUnexpectedEOF.
func Read(r io.Reader) (Snapshot, error) {
	var buf [Size]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Snapshot{}, err
	}
	return Decode(buf[:])
}
