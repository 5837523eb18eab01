// build +integration
package main_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"netdemo/internal/app/apps"
	"netdemo/internal/app/cfg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerAndClientApps(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip()
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())

	s, err := apps.NewServerApp(cfg.FromEnv(), cfg.NewPortCfg(port))
	require.NoError(t, err)
	s.Placeholder = true

	ctx, cancel := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() { serverDone <- s.Run(ctx, nil) }()
	time.Sleep(100 * time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		c, err := apps.NewClientApp(cfg.FromEnv(), cfg.NewHostCfg("127.0.0.1"), cfg.NewPortCfg(port))
		require.NoError(t, err)
		c.Ticks = 100
		c.IOTimeout = time.Second
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Run(ctx, nil))
			assert.Positive(t, c.Received())
		}()
	}
	wg.Wait()
	cancel()
	require.NoError(t, <-serverDone)
}
