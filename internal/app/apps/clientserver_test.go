package apps

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// with applies a function to either app.
type with struct {
	client func(*ClientApp)
	server func(*ServerApp)
}

func (w with) ApplyClientApp(app *ClientApp) error {
	if w.client != nil {
		w.client(app)
	}
	return nil
}

func (w with) ApplyServerApp(app *ServerApp) error {
	if w.server != nil {
		w.server(app)
	}
	return nil
}

func freePort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return uint16(port)
}

func TestNewServerApp(t *testing.T) {
	_, err := NewServerApp()
	require.Error(t, err, "port is required")

	app, err := NewServerApp(with{server: func(a *ServerApp) { a.Port = 4000 }})
	require.NoError(t, err)
	require.Equal(t, 2, app.MaxPlayers)
	require.Positive(t, app.PollTimeout)
	require.Positive(t, app.FrameTimeout)

	_, err = NewServerApp(with{server: func(a *ServerApp) {
		a.Port = 4000
		a.MaxPlayers = 100
	}})
	require.Error(t, err)
}

func TestNewClientApp(t *testing.T) {
	_, err := NewClientApp(with{client: func(a *ClientApp) { a.Port = 4000 }})
	require.Error(t, err, "host is required")

	app, err := NewClientApp(with{client: func(a *ClientApp) {
		a.Host = "localhost"
		a.Port = 4000
	}})
	require.NoError(t, err)
	require.Positive(t, app.Tick)
	require.Positive(t, app.DialTimeout)
}

func TestClientAppOffline(t *testing.T) {
	port := freePort(t)
	app, err := NewClientApp(with{client: func(a *ClientApp) {
		a.Host = "127.0.0.1"
		a.Port = port
		a.Tick = time.Millisecond
		a.Ticks = 5
		a.DialTimeout = time.Second
	}})
	require.NoError(t, err)
	require.NoError(t, app.Run(context.Background(), nil))
	require.Zero(t, app.Received())
}

func TestClientServerApps(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	port := freePort(t)
	s, err := NewServerApp(with{server: func(a *ServerApp) {
		a.Port = port
		a.PollTimeout = 20 * time.Millisecond
		a.Placeholder = true
	}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() { serverDone <- s.Run(ctx, nil) }()

	var wg sync.WaitGroup
	clients := make([]*ClientApp, 2)
	for i := range clients {
		c, err := NewClientApp(with{client: func(a *ClientApp) {
			a.Host = "127.0.0.1"
			a.Port = port
			a.Tick = 2 * time.Millisecond
			a.Ticks = 50
			a.IOTimeout = time.Second
		}})
		require.NoError(t, err)
		clients[i] = c
	}
	// give the server time to bind
	time.Sleep(100 * time.Millisecond)
	for _, c := range clients {
		wg.Add(1)
		go func(c *ClientApp) {
			defer wg.Done()
			assert.NoError(t, c.Run(ctx, nil))
		}(c)
	}
	wg.Wait()
	cancel()
	require.NoError(t, <-serverDone)

	// the last exchanges may be lost to a partner that already finished
	for _, c := range clients {
		require.Positive(t, c.Received())
		require.LessOrEqual(t, c.Received(), 50)
	}
}
