// Package health exposes the relay's status over the standard gRPC health
// checking protocol.
//
// The relay service reports SERVING while the relay listens and NOT_SERVING
// before it starts and after it stops. The overall ("") service is SERVING
// for as long as the health endpoint itself is up.
package health

import (
	"context"
	"fmt"
	"net"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// Service is the health service name of the relay.
const Service = "netdemo.Relay"

// Server serves gRPC health checks and observes a relay server.
type Server struct {
	addr   string
	ln     net.Listener
	grpc   *grpc.Server
	health *health.Server
}

// Cfg configures a Server.
type Cfg func(*Server) error

// WithPort serves health checks on the given port on all interfaces.
func WithPort(port uint16) Cfg {
	return func(s *Server) error {
		s.addr = fmt.Sprintf(":%d", port)
		return nil
	}
}

// WithListener serves health checks on an already bound listener.
func WithListener(ln net.Listener) Cfg {
	return func(s *Server) error {
		s.ln = ln
		return nil
	}
}

// NewServer creates a new Server with the given configuration.
func NewServer(cfgs ...Cfg) (*Server, error) {
	s := &Server{
		health: health.NewServer(),
	}
	for _, cfg := range cfgs {
		if err := cfg(s); err != nil {
			return nil, errors.Wrap(err, "apply health Server cfg failed")
		}
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)
	s.grpc = grpc.NewServer()
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s, nil
}

// Serve serves health checks until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		ln, err := net.Listen("tcp", s.addr)
		if err != nil {
			return errors.Wrapf(err, "listen on %q failed", s.addr)
		}
		s.ln = ln
	}
	logger.WithField("addr", s.ln.Addr().String()).Info("health server listening")
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpc.Serve(s.ln)
	}()
	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		return errors.Wrap(err, "serve health checks failed")
	}
}

// Listening marks the relay as serving.
func (s *Server) Listening(addr net.Addr) {
	s.health.SetServingStatus(Service, healthpb.HealthCheckResponse_SERVING)
	logger.WithField("relay", addr.String()).Debug("relay serving")
}

// Occupancy records the relay's slot usage.
func (s *Server) Occupancy(occupied, capacity int) {
	logger.WithFields(logrus.Fields{
		"occupied": occupied,
		"capacity": capacity,
	}).Debug("relay occupancy changed")
}

// Stopped marks the relay as not serving.
func (s *Server) Stopped() {
	s.health.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)
}
