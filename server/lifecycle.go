package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/teranos/kgmap/am"
	"github.com/teranos/kgmap/errors"
	"github.com/teranos/kgmap/logger"
)

// portFallbacks is how many ports above the requested one Start tries
const portFallbacks = 10

func (st ServerState) String() string {
	switch st {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	}
	return "unknown"
}

func (s *Server) getState() ServerState {
	return ServerState(s.state.Load())
}

func (s *Server) setState(st ServerState) {
	s.state.Store(int32(st))
	s.logger.Infow("Server state changed", "state", st.String())
}

// Start runs the hub and serves HTTP on port, falling back to the default
// port and then the next few ports when it is taken. It blocks until Stop.
func (s *Server) Start(port int) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run()
	}()

	ln, err := listenWithFallback(port)
	if err != nil {
		return err
	}
	if bound := ln.Addr().(*net.TCPAddr).Port; bound != port {
		s.logger.Infow("Requested port busy, using another",
			"requested_port", port,
			"port", bound,
		)
	}
	return s.Serve(ln)
}

// listenWithFallback binds the first free port among port, DefaultServerPort
// and port+1..port+portFallbacks
func listenWithFallback(port int) (net.Listener, error) {
	candidates := []int{port}
	if port != am.DefaultServerPort {
		candidates = append(candidates, am.DefaultServerPort)
	}
	for p := port + 1; p <= port+portFallbacks; p++ {
		candidates = append(candidates, p)
	}

	var lastErr error
	for _, p := range candidates {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", p))
		if err == nil {
			return ln, nil
		}
		lastErr = err
	}
	return nil, errors.WithHintf(
		errors.Wrapf(lastErr, "no free port among %d, %d and %d-%d", port, am.DefaultServerPort, port+1, port+portFallbacks),
		"pass --port or set server.port in am.toml")
}

// Serve runs the HTTP surface on ln until Stop
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Infow("Serving", logger.FieldAddress, ln.Addr().String(), "url", "http://"+ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

// Stop refuses new connections, then cancels the hub so each client gets a
// close frame, and waits up to ShutdownTimeout for the goroutines.
func (s *Server) Stop() error {
	s.setState(ServerStateDraining)

	s.mu.RLock()
	srv := s.httpServer
	s.mu.RUnlock()

	var shutdownErr error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		shutdownErr = srv.Shutdown(ctx)
		cancel()
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(ShutdownTimeout):
		s.logger.Warnw("Timed out waiting for client goroutines", "timeout", ShutdownTimeout)
	}

	s.setState(ServerStateStopped)
	if shutdownErr != nil {
		return errors.Wrap(shutdownErr, "http shutdown failed")
	}
	return nil
}
