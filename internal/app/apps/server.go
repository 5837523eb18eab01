package apps

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"netdemo/internal"
	"netdemo/internal/pkg/health"
	"netdemo/internal/pkg/player"
	"netdemo/internal/pkg/server"
	"netdemo/internal/pkg/snapshot"
	"netdemo/internal/pkg/validate"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// ServerAppCfg configures a ServerApp.
type ServerAppCfg interface {
	ApplyServerApp(*ServerApp) error
}

// ServerApp is the netdemo relay server application.
type ServerApp struct {
	Port         uint16 `validate:"required"`
	HealthPort   uint16
	MaxPlayers   int           `validate:"gte=1,lte=64"`
	PollTimeout  time.Duration `validate:"gt=0"`
	FrameTimeout time.Duration `validate:"gte=0"`
	Placeholder  bool
}

// NewServerApp creates a new ServerApp.
func NewServerApp(cfgs ...ServerAppCfg) (*ServerApp, error) {
	app := &ServerApp{}
	for _, cfg := range cfgs {
		if err := cfg.ApplyServerApp(app); err != nil {
			return nil, errors.Wrap(err, "apply ServerApp cfg failed")
		}
	}
	if app.MaxPlayers == 0 {
		app.MaxPlayers = internal.MaxPlayers
	}
	if app.PollTimeout == 0 {
		app.PollTimeout = time.Duration(internal.PollTimeoutMS) * time.Millisecond
	}
	if app.FrameTimeout == 0 {
		app.FrameTimeout = time.Duration(internal.FrameTimeoutMS) * time.Millisecond
	}
	if err := validate.Validate().Struct(app); err != nil {
		return nil, errors.Wrap(err, "validate ServerApp failed")
	}
	return app, nil
}

// Run runs the relay until ctx is cancelled, along with the health endpoint
// when a health port is configured.
func (app *ServerApp) Run(ctx context.Context, _ []string) error {
	cfgs := []server.Cfg{
		server.WithPort(app.Port),
		server.WithMaxPlayers(app.MaxPlayers),
		server.WithPollTimeout(app.PollTimeout),
		server.WithFrameTimeout(app.FrameTimeout),
	}
	if app.Placeholder {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano())) // nolint: gosec // colors only
		cfgs = append(cfgs, server.WithPlaceholder(snapshot.Snapshot{
			Tag:   snapshot.TagEntity,
			Color: player.RandomColor(rnd),
		}))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	if app.HealthPort != 0 {
		h, err := health.NewServer(health.WithPort(app.HealthPort))
		if err != nil {
			return errors.Wrap(err, "create health server failed")
		}
		cfgs = append(cfgs, server.WithObserver(h))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.Serve(ctx); err != nil {
				logger.WithError(err).Error("health server failed")
			}
		}()
	}

	s, err := server.NewServer(cfgs...)
	if err != nil {
		cancel()
		wg.Wait()
		return errors.Wrap(err, "create server failed")
	}
	err = s.Run(ctx)
	cancel()
	wg.Wait()
	if err != nil {
		return errors.Wrap(err, "run server failed")
	}
	return nil
}
