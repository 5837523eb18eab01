package apps

import (
	"context"
	"math/rand"
	"time"

	"netdemo/internal"
	"netdemo/internal/pkg/client"
	"netdemo/internal/pkg/log"
	"netdemo/internal/pkg/player"
	"netdemo/internal/pkg/validate"

	"github.com/pkg/errors"
)

// ClientAppCfg configures a ClientApp.
type ClientAppCfg interface {
	ApplyClientApp(*ClientApp) error
}

// ClientApp is the headless netdemo client application.
type ClientApp struct {
	Host        string        `validate:"required"`
	Port        uint16        `validate:"required"`
	Tick        time.Duration `validate:"gt=0"`
	Ticks       int           `validate:"gte=0"`
	DialTimeout time.Duration `validate:"gt=0"`
	IOTimeout   time.Duration `validate:"gte=0"`

	received int
}

// NewClientApp creates a new ClientApp.
func NewClientApp(cfgs ...ClientAppCfg) (*ClientApp, error) {
	app := &ClientApp{}
	for _, cfg := range cfgs {
		if err := cfg.ApplyClientApp(app); err != nil {
			return nil, errors.Wrap(err, "apply ClientApp cfg failed")
		}
	}
	if app.Tick == 0 {
		app.Tick = time.Duration(internal.TickMS) * time.Millisecond
	}
	if app.DialTimeout == 0 {
		app.DialTimeout = time.Duration(internal.DialTimeoutMS) * time.Millisecond
	}
	if app.IOTimeout == 0 {
		app.IOTimeout = time.Duration(internal.IOTimeoutMS) * time.Millisecond
	}
	if err := validate.Validate().Struct(app); err != nil {
		return nil, errors.Wrap(err, "validate ClientApp failed")
	}
	return app, nil
}

// Received returns how many remote snapshots the last Run received.
func (app *ClientApp) Received() int {
	return app.received
}

// Run moves the local participant every tick and exchanges it with the
// server. If the server cannot be reached the client keeps running offline.
func (app *ClientApp) Run(ctx context.Context, _ []string) error {
	c, err := client.NewClient(
		client.WithServerAddr(app.Host, app.Port),
		client.WithDialTimeout(app.DialTimeout),
		client.WithIOTimeout(app.IOTimeout),
	)
	if err != nil {
		return errors.Wrap(err, "create client failed")
	}
	if err := c.Connect(ctx); err != nil {
		logger.WithError(err).Warn("server unreachable, playing offline")
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.WithError(err).Warn("close client failed")
		}
	}()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano())) // nolint: gosec // movement only
	local := player.New(rnd)
	remote := local
	walker := player.NewWalker(rnd)
	app.received = 0

	ticker := time.NewTicker(app.Tick)
	defer ticker.Stop()
	for tick := 0; app.Ticks == 0 || tick < app.Ticks; tick++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		s, ok, err := c.Sync(ctx, local)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.WithError(err).Warn("sync failed, continuing offline")
		}
		if ok {
			remote = s
			app.received++
		}
		walker.Step(&local)
	}
	logger.WithFields(log.SnapshotToFields(local)).
		WithField("uuid", c.ID().String()).
		WithField("received", app.received).
		Info("client finished")
	logger.WithFields(log.SnapshotToFields(remote)).Debug("last remote state")
	return nil
}
