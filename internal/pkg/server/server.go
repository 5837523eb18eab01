package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"netdemo/internal/pkg/log"
	"netdemo/internal/pkg/mux"
	"netdemo/internal/pkg/slots"
	"netdemo/internal/pkg/snapshot"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

const (
	// DefaultMaxPlayers is the number of peer slots.
	DefaultMaxPlayers = 2
	// DefaultPollTimeout bounds one multiplexer wait.
	DefaultPollTimeout = 10 * time.Second
	// DefaultFrameTimeout bounds the tail of a started frame and each relay write.
	DefaultFrameTimeout = time.Second
)

// Observer is notified of relay lifecycle changes. Calls are made from the
// relay goroutine and must not block.
type Observer interface {
	Listening(addr net.Addr)
	Occupancy(occupied, capacity int)
	Stopped()
}

// Server relays snapshots between connected peers.
type Server struct {
	addr         string
	maxPlayers   int
	pollTimeout  time.Duration
	frameTimeout time.Duration
	placeholder  []byte
	observer     Observer

	ln        net.Listener
	listening bool
	table     *slots.Table
	mux       *mux.Mux
}

// Cfg configures a Server.
type Cfg func(*Server) error

// WithAddr sets the address to listen on.
func WithAddr(addr string) Cfg {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithPort listens on the given port on all interfaces.
func WithPort(port uint16) Cfg {
	return func(s *Server) error {
		s.addr = fmt.Sprintf(":%d", port)
		return nil
	}
}

// WithListener uses an already bound listener instead of opening one.
func WithListener(ln net.Listener) Cfg {
	return func(s *Server) error {
		s.ln = ln
		return nil
	}
}

// WithMaxPlayers sets the number of peer slots.
func WithMaxPlayers(n int) Cfg {
	return func(s *Server) error {
		if n < 1 {
			return errors.Errorf("invalid max players %d", n)
		}
		s.maxPlayers = n
		return nil
	}
}

// WithPollTimeout sets how long one multiplexer wait may block. Shorter values
// make cancellation more responsive.
func WithPollTimeout(d time.Duration) Cfg {
	return func(s *Server) error {
		if d <= 0 {
			return errors.Errorf("invalid poll timeout %s", d)
		}
		s.pollTimeout = d
		return nil
	}
}

// WithFrameTimeout bounds partial frames and relay writes.
func WithFrameTimeout(d time.Duration) Cfg {
	return func(s *Server) error {
		s.frameTimeout = d
		return nil
	}
}

// WithPlaceholder makes the server answer a lone peer with p.
func WithPlaceholder(p snapshot.Snapshot) Cfg {
	return func(s *Server) error {
		b, err := p.MarshalBinary()
		if err != nil {
			return errors.Wrap(err, "marshal placeholder failed")
		}
		s.placeholder = b
		return nil
	}
}

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Cfg {
	return func(s *Server) error {
		s.observer = o
		return nil
	}
}

// NewServer creates a new Server with the given configuration.
func NewServer(cfgs ...Cfg) (*Server, error) {
	s := &Server{
		maxPlayers:   DefaultMaxPlayers,
		pollTimeout:  DefaultPollTimeout,
		frameTimeout: DefaultFrameTimeout,
	}
	for _, cfg := range cfgs {
		if err := cfg(s); err != nil {
			return nil, errors.Wrap(err, "apply Server cfg failed")
		}
	}
	var err error
	s.mux, err = mux.New(
		// one listener plus one connection per slot
		mux.WithCapacity(s.maxPlayers+1),
		mux.WithFrameSize(snapshot.Size),
		mux.WithFrameTimeout(s.frameTimeout),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create mux failed")
	}
	s.table = slots.NewTable(s.maxPlayers)
	return s, nil
}

// Listen binds the listening socket and starts watching it.
func (s *Server) Listen() error {
	if s.listening {
		return nil
	}
	if s.ln == nil {
		ln, err := net.Listen("tcp", s.addr)
		if err != nil {
			return errors.Wrapf(err, "listen on %q failed", s.addr)
		}
		s.ln = ln
	}
	if err := s.mux.RegisterListener(s.ln); err != nil {
		return errors.Wrap(err, "register listener failed")
	}
	s.listening = true
	logger.WithFields(logrus.Fields{
		"addr":        s.ln.Addr().String(),
		"max_players": s.maxPlayers,
	}).Info("server listening")
	if s.observer != nil {
		s.observer.Listening(s.ln.Addr())
	}
	return nil
}

// Addr returns the listening address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Run relays snapshots until ctx is done. It listens first if Listen has not
// been called. Resources are released before Run returns, even on error.
func (s *Server) Run(ctx context.Context) error {
	defer s.shutdown()
	if err := s.Listen(); err != nil {
		return err
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.step(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return errors.Wrap(err, "relay step failed")
		}
	}
}

// step runs one wake cycle: accept first, then reads in slot order.
func (s *Server) step(ctx context.Context) error {
	if !s.listening {
		return ErrNotListening
	}
	n, err := s.mux.Wait(ctx, s.pollTimeout)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	logger.WithField("ready", n).Trace("socket activity")
	if s.mux.IsReady(s.ln) {
		if err := s.accept(); err != nil {
			return err
		}
	}
	for _, i := range s.table.Occupied() {
		slot, ok := s.table.Get(i)
		if !ok || !s.mux.IsReady(slot.Conn) {
			// released while relaying an earlier slot
			continue
		}
		res, err := s.mux.Take(slot.Conn)
		if err != nil {
			return errors.Wrap(err, "take read result failed")
		}
		s.handleRead(slot, res)
	}
	return nil
}

func (s *Server) accept() error {
	res, err := s.mux.Take(s.ln)
	if err != nil {
		return errors.Wrap(err, "take accept result failed")
	}
	if res.Err != nil {
		if errors.Is(res.Err, net.ErrClosed) {
			return ErrListenerClosed
		}
		logger.WithError(res.Err).Error("accept failed")
		return nil
	}
	conn := res.Conn
	i, ok := s.table.FindFree()
	if !ok {
		logger.WithField("remote", conn.RemoteAddr().String()).Warn("server full, rejecting connection")
		_ = conn.Close()
		return nil
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	if err := s.mux.RegisterConn(conn); err != nil {
		logger.WithError(err).Error("register connection failed")
		_ = conn.Close()
		return nil
	}
	slot, err := s.table.Assign(i, conn)
	if err != nil {
		logger.WithError(err).Error("assign slot failed")
		_ = s.mux.Deregister(conn)
		_ = conn.Close()
		return nil
	}
	logger.WithFields(log.SlotToFields(slot.Index, slot.Session, conn.RemoteAddr())).
		WithField("occupied", s.table.Len()).
		Info("client connected")
	s.notify()
	return nil
}

// handleRead classifies one read result by its length.
func (s *Server) handleRead(slot slots.Slot, res mux.Result) {
	fields := log.SlotToFields(slot.Index, slot.Session, slot.Conn.RemoteAddr())
	switch n := len(res.Data); {
	case n == 0:
		l := logger.WithFields(fields)
		if res.Err != nil {
			l = l.WithField("reason", res.Err.Error())
		}
		l.Debug("zero-length read")
		s.release(slot.Index)
	case n < snapshot.Size:
		logger.WithFields(fields).WithError(res.Err).WithField("bytes", n).Warn("short read, closing connection")
		s.release(slot.Index)
	default:
		s.relay(slot, res.Data)
	}
}

// relay writes frame to every other occupied slot. Peers whose write fails are
// released once the relay is complete.
func (s *Server) relay(from slots.Slot, frame []byte) {
	if snap, err := snapshot.Decode(frame); err == nil {
		logger.WithFields(log.SnapshotToFields(snap)).WithField("slot", from.Index).Trace("relaying snapshot")
	}
	var failed []int
	others := 0
	for _, j := range s.table.Occupied() {
		if j == from.Index {
			continue
		}
		others++
		peer, _ := s.table.Get(j)
		if err := s.write(peer.Conn, frame); err != nil {
			logger.WithFields(log.SlotToFields(peer.Index, peer.Session, peer.Conn.RemoteAddr())).
				WithError(err).
				Warn("relay write failed")
			failed = append(failed, j)
		}
	}
	if others == 0 {
		if s.placeholder == nil {
			logger.WithField("slot", from.Index).Debug("no peer to relay to")
		} else if err := s.write(from.Conn, s.placeholder); err != nil {
			logger.WithField("slot", from.Index).WithError(err).Warn("placeholder write failed")
			failed = append(failed, from.Index)
		}
	}
	for _, j := range failed {
		s.release(j)
	}
}

func (s *Server) write(c net.Conn, b []byte) error {
	if s.frameTimeout > 0 {
		_ = c.SetWriteDeadline(time.Now().Add(s.frameTimeout))
		defer func() { _ = c.SetWriteDeadline(time.Time{}) }()
	}
	_, err := c.Write(b)
	return err
}

// release empties slot i and closes its connection. It is a no-op for an
// empty slot, so a connection is closed exactly once.
func (s *Server) release(i int) {
	slot, ok := s.table.Release(i)
	if !ok {
		return
	}
	_ = s.mux.Deregister(slot.Conn)
	if err := slot.Conn.Close(); err != nil {
		logger.WithError(err).WithField("slot", i).Debug("close connection failed")
	}
	logger.WithFields(log.SlotToFields(slot.Index, slot.Session, slot.Conn.RemoteAddr())).
		WithField("occupied", s.table.Len()).
		Info("client disconnected")
	s.notify()
}

func (s *Server) notify() {
	if s.observer != nil {
		s.observer.Occupancy(s.table.Len(), s.table.Cap())
	}
}

func (s *Server) shutdown() {
	for _, i := range s.table.Occupied() {
		s.release(i)
	}
	if s.ln != nil {
		_ = s.mux.Deregister(s.ln)
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.WithError(err).Warn("close listener failed")
		}
	}
	_ = s.mux.Close()
	if s.listening {
		s.listening = false
		if s.observer != nil {
			s.observer.Stopped()
		}
		logger.Info("server stopped")
	}
}
