// Package server provides the HTTP server container for confirmd services
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/confirmd/confirmd/pkg/config"
	"gopkg.in/inconshreveable/log15.v2"
)

const shutdownTimeout = 10 * time.Second

// Server is a confirmd server
type Server struct {
	ctx context.Context
	log log15.Logger

	httpServers []*http.Server

	// errors while serving
	errors chan error
}

// NewServer creates a new confirmd server
func NewServer(ctx context.Context, log log15.Logger) *Server {
	return &Server{
		ctx: ctx,
		log: log.New(log15.Ctx{"pkg": "github.com/confirmd/confirmd/pkg/server"}),

		httpServers: make([]*http.Server, 0, 3),
		errors:      make(chan error, 3),
	}
}

// RegisterService adds a service to the server
// It will serve the HTTP with the given service
func (s *Server) RegisterService(cfg config.ServiceConfig, handler http.Handler) error {
	srv := &http.Server{
		Addr:           cfg.Address,
		Handler:        handler,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}
	var err error
	srv.ReadTimeout, err = cfg.ReadTimeout.Duration()
	if err != nil {
		return fmt.Errorf("error parsing duration for server %s: %v", cfg.Address, err)
	}
	srv.WriteTimeout, err = cfg.WriteTimeout.Duration()
	if err != nil {
		return fmt.Errorf("error parsing duration for server %s: %v", cfg.Address, err)
	}
	s.httpServers = append(s.httpServers, srv)
	return nil
}

// Serve starts serving and blocks until the server context is cancelled or
// a listener fails
func (s *Server) Serve() error {
	if len(s.httpServers) == 0 {
		return errors.New("no services registered")
	}
	for _, srv := range s.httpServers {
		go func(srv *http.Server) {
			s.log.Info("server listening", log15.Ctx{"address": srv.Addr})
			err := srv.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				s.errors <- err
			}
		}(srv)
	}
	select {
	case <-s.ctx.Done():
		s.log.Info("shutting down servers...")
		return s.shutdown()
	case err := <-s.errors:
		s.log.Error("error serving", log15.Ctx{"err": err})
		s.shutdown()
		return err
	}
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var wg sync.WaitGroup
	errs := make(chan error, len(s.httpServers))
	for _, srv := range s.httpServers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil {
				s.log.Warn("error on server shutdown", log15.Ctx{
					"address": srv.Addr,
					"err":     err,
				})
				errs <- err
			}
		}(srv)
	}
	wg.Wait()
	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}
