// Package cfg implements functionaltiy to configure an app.
//
// The configuration objects defined here need only be implemented once,
// but can be applied to multiple types.
//
// In order to add support for a new type, the configuration
// need only implement an ApplyX method.
package cfg

import (
	"time"

	"netdemo/internal"
	"netdemo/internal/app/apps"

	"github.com/pkg/errors"
)

// PortCfg is configuration for the relay server port.
type PortCfg struct {
	port uint16
}

// NewPortCfg creates a new PortCfg from the given config.
func NewPortCfg(port uint16) *PortCfg {
	return &PortCfg{
		port: port,
	}
}

// ApplyClientApp applies the PortCfg to a ClientApp.
func (cfg PortCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.Port = cfg.port
	return nil
}

// ApplyServerApp applies the PortCfg to a ServerApp.
func (cfg PortCfg) ApplyServerApp(app *apps.ServerApp) error {
	app.Port = cfg.port
	return nil
}

// HostCfg is configuration for the relay server host a client connects to.
type HostCfg struct {
	host string
}

// NewHostCfg creates a new HostCfg from the given config.
func NewHostCfg(host string) *HostCfg {
	return &HostCfg{
		host: host,
	}
}

// ApplyClientApp applies the HostCfg to a ClientApp.
func (cfg HostCfg) ApplyClientApp(app *apps.ClientApp) error {
	if cfg.host == "" {
		return errors.New("empty host")
	}
	app.Host = cfg.host
	return nil
}

// EnvCfg applies the runtime settings of the current environment.
type EnvCfg struct{}

// FromEnv creates a new EnvCfg.
func FromEnv() *EnvCfg {
	return &EnvCfg{}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// ApplyClientApp applies the EnvCfg to a ClientApp.
func (EnvCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.Tick = ms(internal.TickMS)
	app.Ticks = internal.Ticks
	app.DialTimeout = ms(internal.DialTimeoutMS)
	app.IOTimeout = ms(internal.IOTimeoutMS)
	return nil
}

// ApplyServerApp applies the EnvCfg to a ServerApp.
func (EnvCfg) ApplyServerApp(app *apps.ServerApp) error {
	if internal.HealthPort < 0 || internal.HealthPort > 65535 {
		return errors.Errorf("invalid health port %d", internal.HealthPort)
	}
	app.HealthPort = uint16(internal.HealthPort)
	app.MaxPlayers = internal.MaxPlayers
	app.PollTimeout = ms(internal.PollTimeoutMS)
	app.FrameTimeout = ms(internal.FrameTimeoutMS)
	app.Placeholder = internal.Placeholder
	return nil
}
