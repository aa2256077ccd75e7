// Package service implements the StoreService RPC handlers on top of the
// block-aligned store and the in-memory index.
//
// Handlers never surface application failures as RPC errors: every call
// returns a response message whose success flag and error_message field carry
// the outcome, so a missing identifier and a disk failure both travel back to
// the client as a well-formed response. Transport-level errors remain the
// domain of gRPC itself.
package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/peer"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/internal/telemetry"
	"github.com/marmos91/dittostore/pkg/api/storepb"
	"github.com/marmos91/dittostore/pkg/index"
	"github.com/marmos91/dittostore/pkg/metrics"
	"github.com/marmos91/dittostore/pkg/store"
)

// Service handles StoreService RPCs.
type Service struct {
	storepb.UnimplementedStoreServiceServer

	store   *store.Store
	index   *index.Index
	metrics metrics.StoreMetrics
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches a metrics recorder. A nil recorder is valid and
// disables recording.
func WithMetrics(m metrics.StoreMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a Service backed by the given store and index.
func New(st *store.Store, idx *index.Index, opts ...Option) *Service {
	s := &Service{
		store: st,
		index: idx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// requestContext attaches the request-scoped logging context, including the
// client address when the transport reports one.
func requestContext(ctx context.Context, requestID, procedure string) context.Context {
	lc := logger.NewLogContext(requestID, procedure)
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		lc = lc.WithClientAddr(p.Addr.String())
	}
	return logger.WithContext(ctx, lc)
}

// Write appends the request payload to the store and records its location in
// the index under the request identifier. A repeated identifier silently
// supersedes the previous entry; the superseded bytes stay on disk but become
// unreachable.
func (s *Service) Write(ctx context.Context, req *storepb.WriteRequest) (*storepb.WriteResponse, error) {
	start := time.Now()
	ctx = requestContext(ctx, req.RequestId, "WRITE")

	ctx, span := telemetry.StartSpan(ctx, "service.Write",
		trace.WithAttributes(
			attribute.String("store.request_id", req.RequestId),
			attribute.Int("store.payload_bytes", len(req.Data)),
		))
	defer span.End()

	logger.DebugCtx(ctx, "write request received",
		logger.KeyLength, len(req.Data))

	offset, err := s.store.Append(ctx, req.Data)
	if err != nil {
		telemetry.RecordError(ctx, err)
		metrics.ObserveWrite(s.metrics, int64(len(req.Data)), 0, time.Since(start), metrics.OutcomeError)
		logger.ErrorCtx(ctx, "write failed",
			logger.KeyStatus, metrics.OutcomeError,
			logger.Err(err))

		return &storepb.WriteResponse{
			RequestId:    req.RequestId,
			Success:      false,
			ErrorMessage: fmt.Sprintf("write failed: %v", err),
		}, nil
	}

	s.index.Record(req.RequestId, offset, uint64(len(req.Data)))

	padded := store.PaddedLength(uint64(len(req.Data)))
	metrics.ObserveWrite(s.metrics, int64(len(req.Data)), int64(padded), time.Since(start), metrics.OutcomeOK)
	if s.metrics != nil {
		s.metrics.SetIndexEntries(s.index.Len())
		s.metrics.SetStoreSize(s.store.Size())
	}

	logger.InfoCtx(ctx, "write completed",
		logger.KeyStatus, metrics.OutcomeOK,
		logger.KeyOffset, offset,
		logger.KeyLength, len(req.Data),
		logger.KeyPaddedLength, padded,
		logger.KeyDurationMs, logger.Duration(start))

	return &storepb.WriteResponse{
		RequestId: req.RequestId,
		Offset:    offset,
		Success:   true,
	}, nil
}

// Read looks up the request identifier in the index and returns the payload
// bytes stored for it. An unknown identifier yields a failed response, not an
// RPC error.
func (s *Service) Read(ctx context.Context, req *storepb.ReadRequest) (*storepb.ReadResponse, error) {
	start := time.Now()
	ctx = requestContext(ctx, req.RequestId, "READ")

	ctx, span := telemetry.StartSpan(ctx, "service.Read",
		trace.WithAttributes(attribute.String("store.request_id", req.RequestId)))
	defer span.End()

	logger.DebugCtx(ctx, "read request received")

	entry, ok := s.index.Lookup(req.RequestId)
	if !ok {
		metrics.ObserveRead(s.metrics, 0, time.Since(start), metrics.OutcomeNotFound)
		logger.WarnCtx(ctx, "request id not found",
			logger.KeyStatus, metrics.OutcomeNotFound)

		return &storepb.ReadResponse{
			RequestId:    req.RequestId,
			Success:      false,
			ErrorMessage: fmt.Sprintf("request id %q not found", req.RequestId),
		}, nil
	}

	data, err := s.store.ReadAt(ctx, entry.Offset, entry.Length)
	if err != nil {
		telemetry.RecordError(ctx, err)
		metrics.ObserveRead(s.metrics, 0, time.Since(start), metrics.OutcomeError)
		logger.ErrorCtx(ctx, "read failed",
			logger.KeyStatus, metrics.OutcomeError,
			logger.KeyOffset, entry.Offset,
			logger.KeyLength, entry.Length,
			logger.Err(err))

		return &storepb.ReadResponse{
			RequestId:    req.RequestId,
			Success:      false,
			ErrorMessage: fmt.Sprintf("read failed: %v", err),
		}, nil
	}

	metrics.ObserveRead(s.metrics, int64(len(data)), time.Since(start), metrics.OutcomeOK)

	logger.InfoCtx(ctx, "read completed",
		logger.KeyStatus, metrics.OutcomeOK,
		logger.KeyOffset, entry.Offset,
		logger.KeyBytesRead, len(data),
		logger.KeyDurationMs, logger.Duration(start))

	return &storepb.ReadResponse{
		RequestId: req.RequestId,
		Data:      data,
		Success:   true,
	}, nil
}
