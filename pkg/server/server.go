// Package server hosts the StoreService gRPC endpoint.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/api/storepb"
)

// Config holds the gRPC server settings.
type Config struct {
	// ListenAddress is the host:port the server binds to.
	ListenAddress string

	// ShutdownTimeout bounds graceful shutdown. When it expires the server
	// stops hard, closing in-flight connections.
	ShutdownTimeout time.Duration

	// MaxRecvMsgSize caps the size of inbound messages in bytes.
	// Zero keeps the gRPC default.
	MaxRecvMsgSize int
}

func (c *Config) applyDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = ":50051"
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Server wraps a grpc.Server with lifecycle management.
//
// The server is created in a stopped state; call Start to begin serving.
// Cancelling the Start context triggers graceful shutdown bounded by
// ShutdownTimeout.
type Server struct {
	grpcServer   *grpc.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer creates a gRPC server exposing the given StoreService handler.
//
// Defaults are applied here so the server works correctly even when created
// directly in tests, idempotent with the defaults applied during config
// loading.
func NewServer(config Config, handler storepb.StoreServiceServer, opts ...grpc.ServerOption) *Server {
	config.applyDefaults()

	if config.MaxRecvMsgSize > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(config.MaxRecvMsgSize))
	}

	grpcServer := grpc.NewServer(opts...)
	storepb.RegisterStoreServiceServer(grpcServer, handler)

	return &Server{
		grpcServer: grpcServer,
		config:     config,
	}
}

// Start binds the listen address and serves until the context is cancelled
// or the server fails.
//
// Returns nil on graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.ListenAddress, err)
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("store server listening", "address", listener.Addr().String())

		if err := s.grpcServer.Serve(listener); err != nil {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("store server shutdown signal received")
		s.Stop()
		return nil
	case err := <-errChan:
		return fmt.Errorf("store server failed: %w", err)
	}
}

// Stop drains in-flight RPCs and stops the server. If graceful shutdown does
// not finish within ShutdownTimeout the server stops hard.
//
// Stop is safe to call multiple times and concurrently with Start.
func (s *Server) Stop() {
	s.shutdownOnce.Do(func() {
		logger.Debug("store server shutdown initiated")

		done := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(done)
		}()

		select {
		case <-done:
			logger.Info("store server stopped gracefully")
		case <-time.After(s.config.ShutdownTimeout):
			logger.Warn("graceful shutdown timed out, stopping hard",
				"timeout", s.config.ShutdownTimeout)
			s.grpcServer.Stop()
		}
	})
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.ListenAddress
}
