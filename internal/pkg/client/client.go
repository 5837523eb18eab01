package client

import (
	"context"
	"net"
	"strconv"
	"time"

	"netdemo/internal/pkg/log"
	"netdemo/internal/pkg/snapshot"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

const (
	// DefaultDialTimeout bounds the initial connection attempt.
	DefaultDialTimeout = 5 * time.Second
	// DefaultIOTimeout bounds one send/receive exchange.
	DefaultIOTimeout = 5 * time.Second
)

// Client exchanges snapshots with a relay server.
type Client struct {
	serverAddr  string
	uuid        uuid.UUID
	dialTimeout time.Duration
	ioTimeout   time.Duration

	conn    net.Conn
	offline bool
}

// Cfg configures a Client.
type Cfg func(*Client) error

// WithServerAddr sets the server host and port to connect to.
func WithServerAddr(host string, port uint16) Cfg {
	return func(c *Client) error {
		c.serverAddr = net.JoinHostPort(host, strconv.Itoa(int(port)))
		return nil
	}
}

// WithDialTimeout bounds the connection attempt.
func WithDialTimeout(d time.Duration) Cfg {
	return func(c *Client) error {
		c.dialTimeout = d
		return nil
	}
}

// WithIOTimeout bounds each exchange. Zero means no bound beyond the context.
func WithIOTimeout(d time.Duration) Cfg {
	return func(c *Client) error {
		c.ioTimeout = d
		return nil
	}
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfgs ...Cfg) (*Client, error) {
	client := &Client{
		dialTimeout: DefaultDialTimeout,
		ioTimeout:   DefaultIOTimeout,
	}
	for _, cfg := range cfgs {
		if err := cfg(client); err != nil {
			return nil, errors.Wrap(err, "apply Client cfg failed")
		}
	}
	if client.serverAddr == "" {
		return nil, errors.New("server address is required")
	}
	client.uuid = uuid.New()
	return client, nil
}

// ID identifies the client in logs.
func (c *Client) ID() uuid.UUID {
	return c.uuid
}

// Offline reports whether the client has given up on the server.
func (c *Client) Offline() bool {
	return c.offline
}

// Connected reports whether the client holds a live connection.
func (c *Client) Connected() bool {
	return c.conn != nil
}

// Connect establishes the connection to the server. On failure the client
// goes offline and the dial error is returned; the caller may keep running
// locally.
func (c *Client) Connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	if c.offline {
		return ErrOffline
	}
	d := net.Dialer{Timeout: c.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.serverAddr)
	if err != nil {
		c.offline = true
		logger.WithFields(logrus.Fields{
			"uuid":   c.uuid.String(),
			"server": c.serverAddr,
		}).WithError(err).Warn("connect failed, running offline")
		return errors.Wrapf(err, "connect to %s failed", c.serverAddr)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	c.conn = conn
	logger.WithFields(logrus.Fields{
		"uuid":   c.uuid.String(),
		"server": c.serverAddr,
	}).Info("connected")
	return nil
}

// Sync sends local and blocks for the next remote snapshot. ok is false when
// the client is offline. A failed exchange closes the connection, switches the
// client offline and is not retried.
func (c *Client) Sync(ctx context.Context, local snapshot.Snapshot) (remote snapshot.Snapshot, ok bool, err error) {
	if c.offline {
		return snapshot.Snapshot{}, false, nil
	}
	if c.conn == nil {
		return snapshot.Snapshot{}, false, ErrNotConnected
	}
	if c.ioTimeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.ioTimeout))
	}
	// unblock the exchange if ctx is cancelled mid-way
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := snapshot.Write(c.conn, local); err != nil {
		return snapshot.Snapshot{}, false, c.fail(errors.Wrap(err, "send snapshot failed"))
	}
	remote, err = snapshot.Read(c.conn)
	if err != nil {
		return snapshot.Snapshot{}, false, c.fail(errors.Wrap(err, "receive snapshot failed"))
	}
	logger.WithFields(log.SnapshotToFields(remote)).WithField("uuid", c.uuid.String()).Trace("received snapshot")
	return remote, true, nil
}

func (c *Client) fail(err error) error {
	logger.WithField("uuid", c.uuid.String()).WithError(err).Warn("exchange failed, going offline")
	c.offline = true
	if cerr := c.conn.Close(); cerr != nil {
		logger.WithError(cerr).Debug("close connection failed")
	}
	c.conn = nil
	return err
}

// Close closes the connection to the server.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return errors.Wrap(err, "close client connection failed")
	}
	return nil
}
