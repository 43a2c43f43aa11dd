package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/nspcc-dev/midikit/pkg/config"
	"go.uber.org/zap"
)

// Service serves metrics.
type Service struct {
	http        []*http.Server
	config      config.BasicService
	log         *zap.Logger
	serviceType string

	lock      sync.Mutex
	listeners []net.Listener
}

// NewService configures logger and returns a new service instance.
func NewService(name string, httpServers []*http.Server, cfg config.BasicService, log *zap.Logger) *Service {
	return &Service{
		http:        httpServers,
		config:      cfg,
		serviceType: name,
		log:         log.With(zap.String("service", name)),
	}
}

// Start runs http services with the exposed endpoints on the configured
// addresses. It returns an error if any of the addresses can't be bound,
// previously bound ones are closed then.
func (ms *Service) Start() error {
	if !ms.config.Enabled {
		ms.log.Info("service hasn't started since it's disabled")
		return nil
	}
	ms.lock.Lock()
	defer ms.lock.Unlock()
	for i, srv := range ms.http {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, started := range ms.http[:i] {
				_ = started.Close()
			}
			ms.listeners = nil
			return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
		}
		ms.listeners = append(ms.listeners, ln)
		ms.log.Info("starting service", zap.String("endpoint", ln.Addr().String()))
		go func(srv *http.Server, ln net.Listener) {
			err := srv.Serve(ln)
			if !errors.Is(err, http.ErrServerClosed) {
				ms.log.Error("failed to serve", zap.String("endpoint", ln.Addr().String()), zap.Error(err))
			}
		}(srv, ln)
	}
	return nil
}

// Addrs returns the addresses services are actually listening on.
func (ms *Service) Addrs() []string {
	ms.lock.Lock()
	defer ms.lock.Unlock()
	res := make([]string, len(ms.listeners))
	for i, ln := range ms.listeners {
		res[i] = ln.Addr().String()
	}
	return res
}

// ShutDown stops the service.
func (ms *Service) ShutDown() {
	if !ms.config.Enabled {
		return
	}
	ms.lock.Lock()
	defer ms.lock.Unlock()
	for _, srv := range ms.http {
		ms.log.Info("shutting down service", zap.String("endpoint", srv.Addr))
		err := srv.Shutdown(context.Background())
		if err != nil {
			ms.log.Error("can't shut service down", zap.String("endpoint", srv.Addr), zap.Error(err))
		}
	}
	ms.listeners = nil
	_ = ms.log.Sync()
}
