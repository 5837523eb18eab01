package mux

import (
	"context"
	"io"
	"net"
	"time"

	"netdemo/internal/pkg/snapshot"

	"github.com/pkg/errors"
)

// Handle is a watched resource: a net.Listener or a net.Conn.
type Handle = io.Closer

// Result is what a watcher parked for its handle.
type Result struct {
	// Conn is the accepted connection, set for listener handles.
	Conn net.Conn
	// Data holds the bytes read, set for connection handles. A zero length
	// means the peer closed before sending anything.
	Data []byte
	Err  error
}

type watch struct {
	h      Handle
	resume chan struct{}
	quit   chan struct{}
}

type event struct {
	w   *watch
	res Result
}

// Mux multiplexes readiness across registered handles.
type Mux struct {
	capacity     int
	frameSize    int
	frameTimeout time.Duration

	events  chan event
	watches map[Handle]*watch
	ready   map[Handle]Result
	closed  bool
}

// Cfg configures a Mux.
type Cfg func(*Mux) error

// WithCapacity sets the maximum number of simultaneously registered handles.
func WithCapacity(n int) Cfg {
	return func(m *Mux) error {
		if n < 1 {
			return errors.Errorf("invalid capacity %d", n)
		}
		m.capacity = n
		return nil
	}
}

// WithFrameSize sets the number of bytes a connection watcher reads per result.
func WithFrameSize(n int) Cfg {
	return func(m *Mux) error {
		if n < 1 {
			return errors.Errorf("invalid frame size %d", n)
		}
		m.frameSize = n
		return nil
	}
}

// WithFrameTimeout bounds how long the remainder of a started frame may take
// to arrive. Zero disables the bound.
func WithFrameTimeout(d time.Duration) Cfg {
	return func(m *Mux) error {
		m.frameTimeout = d
		return nil
	}
}

// New creates a new Mux with the given configuration.
func New(cfgs ...Cfg) (*Mux, error) {
	m := &Mux{
		capacity:     3,
		frameSize:    snapshot.Size,
		frameTimeout: time.Second,
		watches:      make(map[Handle]*watch),
		ready:        make(map[Handle]Result),
	}
	for _, cfg := range cfgs {
		if err := cfg(m); err != nil {
			return nil, errors.Wrap(err, "apply Mux cfg failed")
		}
	}
	// stale results from deregistered watchers may occupy the buffer too
	m.events = make(chan event, 2*m.capacity)
	return m, nil
}

// Len returns the number of registered handles.
func (m *Mux) Len() int {
	return len(m.watches)
}

// RegisterListener starts watching l for incoming connections.
func (m *Mux) RegisterListener(l net.Listener) error {
	return m.register(l, func() Result {
		c, err := l.Accept()
		return Result{Conn: c, Err: err}
	})
}

// RegisterConn starts watching c for inbound frames.
func (m *Mux) RegisterConn(c net.Conn) error {
	return m.register(c, func() Result {
		return m.readFrame(c)
	})
}

func (m *Mux) register(h Handle, op func() Result) error {
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.watches[h]; ok {
		return ErrAlreadyRegistered
	}
	if len(m.watches) >= m.capacity {
		return ErrCapacityExceeded
	}
	w := &watch{
		h:      h,
		resume: make(chan struct{}, 1),
		quit:   make(chan struct{}),
	}
	w.resume <- struct{}{}
	m.watches[h] = w
	go m.run(w, op)
	return nil
}

// Deregister stops watching h and drops any parked result. It does not close
// h; closing it is what unblocks a watcher stuck in a read or accept.
func (m *Mux) Deregister(h Handle) error {
	w, ok := m.watches[h]
	if !ok {
		return ErrNotRegistered
	}
	close(w.quit)
	delete(m.watches, h)
	if res, ok := m.ready[h]; ok {
		discard(res)
		delete(m.ready, h)
	}
	return nil
}

// Wait blocks until at least one registered handle has a parked result, the
// timeout elapses or ctx is done. It returns the number of ready handles.
func (m *Mux) Wait(ctx context.Context, timeout time.Duration) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	if len(m.ready) == 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
			return 0, nil
		case ev := <-m.events:
			m.park(ev)
		}
	}
	for {
		select {
		case ev := <-m.events:
			m.park(ev)
		default:
			return len(m.ready), nil
		}
	}
}

// IsReady reports whether h has a parked result.
func (m *Mux) IsReady(h Handle) bool {
	_, ok := m.ready[h]
	return ok
}

// Take consumes the parked result of h and re-arms its watcher.
func (m *Mux) Take(h Handle) (Result, error) {
	res, ok := m.ready[h]
	if !ok {
		return Result{}, ErrNotReady
	}
	delete(m.ready, h)
	if w, ok := m.watches[h]; ok {
		select {
		case w.resume <- struct{}{}:
		default:
		}
	}
	return res, nil
}

// Close stops every watcher. Registered handles are not closed.
func (m *Mux) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	for h := range m.watches {
		_ = m.Deregister(h)
	}
	return nil
}

func (m *Mux) park(ev event) {
	if w, ok := m.watches[ev.w.h]; !ok || w != ev.w {
		discard(ev.res)
		return
	}
	m.ready[ev.w.h] = ev.res
}

func (m *Mux) run(w *watch, op func() Result) {
	for {
		select {
		case <-w.quit:
			return
		case <-w.resume:
		}
		res := op()
		select {
		case m.events <- event{w: w, res: res}:
		case <-w.quit:
			discard(res)
			return
		}
	}
}

// readFrame reads up to one frame. The first read waits indefinitely; once a
// frame has started, the rest must arrive within frameTimeout.
func (m *Mux) readFrame(c net.Conn) Result {
	buf := make([]byte, m.frameSize)
	n, err := c.Read(buf)
	for n == 0 && err == nil {
		n, err = c.Read(buf)
	}
	if err == nil && n < len(buf) {
		if m.frameTimeout > 0 {
			_ = c.SetReadDeadline(time.Now().Add(m.frameTimeout))
		}
		var k int
		k, err = io.ReadFull(c, buf[n:])
		n += k
		if m.frameTimeout > 0 {
			_ = c.SetReadDeadline(time.Time{})
		}
	}
	return Result{Data: buf[:n], Err: err}
}

// discard closes an accepted connection nobody will take.
func discard(res Result) {
	if res.Conn != nil {
		_ = res.Conn.Close()
	}
}
