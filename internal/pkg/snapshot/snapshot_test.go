package snapshot

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalLayout(t *testing.T) {
	s := Snapshot{Tag: TagEntity, X: 5, Y: -3, Color: Color{R: 10, G: 20, B: 30, A: 255}}
	b, err := s.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, []byte{
		'h',
		0x00, 0x00, 0x00, 0x05,
		0xff, 0xff, 0xff, 0xfd,
		10, 20, 30, 255,
	}, b)
}

func TestSizeIsFixed(t *testing.T) {
	for _, s := range []Snapshot{
		{},
		{Tag: TagEntity, X: 1<<31 - 1, Y: -1 << 31, Color: Color{255, 255, 255, 255}},
	} {
		b, err := s.MarshalBinary()
		require.NoError(t, err)
		require.Len(t, b, Size)
	}
}

func TestUnmarshal(t *testing.T) {
	want := Snapshot{Tag: TagEntity, X: -40000, Y: 123456, Color: Color{R: 1, G: 2, B: 3, A: 255}}
	b, err := want.MarshalBinary()
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = Decode(b[:Size-1])
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestPutShortBuffer(t *testing.T) {
	require.ErrorIs(t, Snapshot{}.Put(make([]byte, Size-1)), ErrShortBuffer)
}

func TestReadWrite(t *testing.T) {
	var buf bytes.Buffer
	a := Snapshot{Tag: TagEntity, X: 5, Y: -3, Color: Color{10, 20, 30, 255}}
	b := Snapshot{Tag: TagEntity, Color: Color{1, 2, 3, 255}}
	require.NoError(t, Write(&buf, a))
	require.NoError(t, Write(&buf, b))
	require.Equal(t, 2*Size, buf.Len())

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, a, got)
	got, err = Read(&buf)
	require.NoError(t, err)
	require.Equal(t, b, got)

	_, err = Read(&buf)
	require.ErrorIs(t, err, io.EOF)

	_, err = Read(bytes.NewReader([]byte{'h', 0, 0}))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
