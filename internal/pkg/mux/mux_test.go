package mux

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newPipe(t *testing.T) (local, remote net.Conn) {
	t.Helper()
	local, remote = net.Pipe()
	t.Cleanup(func() {
		_ = local.Close()
		_ = remote.Close()
	})
	return local, remote
}

// waitReady waits until h has a parked result.
func waitReady(t *testing.T, m *Mux, h Handle) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !m.IsReady(h) {
		require.True(t, time.Now().Before(deadline), "handle never became ready")
		_, err := m.Wait(context.Background(), 50*time.Millisecond)
		require.NoError(t, err)
	}
}

func TestFullFrame(t *testing.T) {
	m, err := New(WithFrameSize(4))
	require.NoError(t, err)
	defer m.Close()

	local, remote := newPipe(t)
	require.NoError(t, m.RegisterConn(local))
	require.False(t, m.IsReady(local))

	go func() {
		_, _ = remote.Write([]byte{1, 2})
		_, _ = remote.Write([]byte{3, 4})
	}()
	waitReady(t, m, local)

	res, err := m.Take(local)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	require.Equal(t, []byte{1, 2, 3, 4}, res.Data)
	require.False(t, m.IsReady(local))

	_, err = m.Take(local)
	require.ErrorIs(t, err, ErrNotReady)
}

func TestRearmAfterTake(t *testing.T) {
	m, err := New(WithFrameSize(2))
	require.NoError(t, err)
	defer m.Close()

	local, remote := newPipe(t)
	require.NoError(t, m.RegisterConn(local))
	go func() {
		_, _ = remote.Write([]byte{1, 1})
		_, _ = remote.Write([]byte{2, 2})
	}()

	for _, want := range [][]byte{{1, 1}, {2, 2}} {
		waitReady(t, m, local)
		res, err := m.Take(local)
		require.NoError(t, err)
		require.Equal(t, want, res.Data)
	}
}

func TestZeroLengthReadOnClose(t *testing.T) {
	m, err := New(WithFrameSize(4))
	require.NoError(t, err)
	defer m.Close()

	local, remote := newPipe(t)
	require.NoError(t, m.RegisterConn(local))
	require.NoError(t, remote.Close())
	waitReady(t, m, local)

	res, err := m.Take(local)
	require.NoError(t, err)
	require.Empty(t, res.Data)
	require.ErrorIs(t, res.Err, io.EOF)
}

func TestShortFrameOnClose(t *testing.T) {
	m, err := New(WithFrameSize(4))
	require.NoError(t, err)
	defer m.Close()

	local, remote := newPipe(t)
	require.NoError(t, m.RegisterConn(local))
	go func() {
		_, _ = remote.Write([]byte{9})
		_ = remote.Close()
	}()
	waitReady(t, m, local)

	res, err := m.Take(local)
	require.NoError(t, err)
	require.Equal(t, []byte{9}, res.Data)
	require.Error(t, res.Err)
}

func TestShortFrameOnTimeout(t *testing.T) {
	m, err := New(WithFrameSize(4), WithFrameTimeout(50*time.Millisecond))
	require.NoError(t, err)
	defer m.Close()

	local, remote := newPipe(t)
	require.NoError(t, m.RegisterConn(local))
	go func() {
		_, _ = remote.Write([]byte{9, 9})
	}()
	waitReady(t, m, local)

	res, err := m.Take(local)
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	var ne net.Error
	require.ErrorAs(t, res.Err, &ne)
	require.True(t, ne.Timeout())
}

func TestWaitTimeoutAndCancel(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	defer m.Close()

	local, _ := newPipe(t)
	require.NoError(t, m.RegisterConn(local))

	n, err := m.Wait(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	require.Zero(t, n)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Wait(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCapacity(t *testing.T) {
	m, err := New(WithCapacity(2))
	require.NoError(t, err)
	defer m.Close()

	a, _ := newPipe(t)
	b, _ := newPipe(t)
	c, _ := newPipe(t)
	require.NoError(t, m.RegisterConn(a))
	require.ErrorIs(t, m.RegisterConn(a), ErrAlreadyRegistered)
	require.NoError(t, m.RegisterConn(b))
	require.ErrorIs(t, m.RegisterConn(c), ErrCapacityExceeded)
	require.Equal(t, 2, m.Len())

	require.NoError(t, m.Deregister(a))
	require.ErrorIs(t, m.Deregister(a), ErrNotRegistered)
	require.NoError(t, m.RegisterConn(c))
}

func TestDeregisterDropsParkedResult(t *testing.T) {
	m, err := New(WithFrameSize(1))
	require.NoError(t, err)
	defer m.Close()

	local, remote := newPipe(t)
	require.NoError(t, m.RegisterConn(local))
	go func() { _, _ = remote.Write([]byte{1}) }()
	waitReady(t, m, local)

	require.NoError(t, m.Deregister(local))
	require.False(t, m.IsReady(local))
	require.Zero(t, m.Len())
}

func TestListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	m, err := New()
	require.NoError(t, err)
	defer m.Close()
	require.NoError(t, m.RegisterListener(ln))

	c, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	waitReady(t, m, ln)
	res, err := m.Take(ln)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	require.NotNil(t, res.Conn)
	require.NoError(t, res.Conn.Close())
}

func TestClosed(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	local, _ := newPipe(t)
	require.ErrorIs(t, m.RegisterConn(local), ErrClosed)
	_, err = m.Wait(context.Background(), time.Millisecond)
	require.ErrorIs(t, err, ErrClosed)
}

func TestInvalidCfg(t *testing.T) {
	_, err := New(WithCapacity(0))
	require.Error(t, err)
	_, err = New(WithFrameSize(0))
	require.Error(t, err)
}
