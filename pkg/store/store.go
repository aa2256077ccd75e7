// Package store implements the append-only, block-aligned storage engine.
//
// The engine owns a single backing file opened for uncached access (O_DIRECT
// on Linux). Direct I/O mandates that file offsets and transfer lengths are
// multiples of the device logical block size, conservatively fixed at 512
// bytes here. Every payload is therefore padded with zeros up to the next
// block boundary before it is written; the padding is never interpreted and
// never returned to callers.
//
// The file layout is deliberately not self-describing: a record at offset o
// with original length L occupies bytes [o, o+pad(L)) with no header, no
// checksum and no length prefix. Locating a record requires the in-memory
// index kept by pkg/index.
package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/marmos91/dittostore/internal/bytesize"
	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/bufpool"
)

// BlockSize is the alignment unit for all file offsets and transfer lengths.
const BlockSize = 512

// slowOpThreshold is the duration above which a single disk operation is
// logged at warn level. Direct I/O is used for predictable latency, so an
// operation this slow is worth surfacing.
const slowOpThreshold = 50 * time.Millisecond

// PaddedLength returns length rounded up to the next multiple of BlockSize.
func PaddedLength(length uint64) uint64 {
	return (length + BlockSize - 1) / BlockSize * BlockSize
}

// Config holds configuration for the aligned store.
type Config struct {
	// Path is the backing file, created if absent.
	Path string

	// Direct opens the file with O_DIRECT where the platform supports it.
	// When false (or unsupported) the page cache is used; the alignment
	// discipline is kept either way.
	Direct bool

	// Preallocate reserves disk extents for the backing file at startup.
	// Zero disables preallocation.
	Preallocate bytesize.ByteSize
}

// Store is the append-only aligned storage engine.
//
// Appends are serialized: the end-of-data position and the write that claims
// it are a single critical section, so concurrent writers can never compute
// the same offset or interleave into overlapping ranges. Reads use pread at
// committed offsets and run concurrently without any lock.
type Store struct {
	mu     sync.Mutex
	file   *os.File
	offset uint64 // end of data; always a BlockSize multiple
	path   string
	closed bool
}

// New opens (creating if necessary) the backing file and positions the
// append cursor at the current end of data.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: path is required")
	}

	file, err := openFile(cfg.Path, cfg.Direct)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.Path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("store: stat %s: %w", cfg.Path, err)
	}

	// A file written only by this engine is always a whole number of
	// blocks. If something else touched it, resume at the next boundary
	// rather than corrupting alignment for every subsequent append.
	offset := PaddedLength(uint64(info.Size()))

	if cfg.Preallocate > 0 {
		if err := preallocate(file, cfg.Preallocate.Int64()); err != nil {
			logger.Warn("store preallocation failed",
				logger.KeyPath, cfg.Path,
				"preallocate", cfg.Preallocate.String(),
				logger.KeyError, err.Error())
		}
	}

	logger.Info("store opened",
		logger.KeyPath, cfg.Path,
		logger.KeyOffset, offset,
		"direct", cfg.Direct && directIOSupported)

	return &Store{
		file:   file,
		offset: offset,
		path:   cfg.Path,
	}, nil
}

// Append writes data as a zero-padded block run at the current end of data
// and returns the offset at which the run begins.
//
// The returned offset is always a BlockSize multiple: the file starts at
// offset 0 and every append grows it by a whole number of blocks. An empty
// payload is valid; it claims a fresh offset and writes nothing.
//
// On failure nothing is recorded anywhere: the end-of-data position is left
// unchanged, so the failed region is reused by the next append.
func (s *Store) Append(ctx context.Context, data []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	padded := PaddedLength(uint64(len(data)))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	offset := s.offset
	if padded == 0 {
		return offset, nil
	}

	buf := bufpool.Get(int(padded))
	defer bufpool.Put(buf)

	n := copy(buf, data)
	clear(buf[n:]) // pooled buffers carry stale bytes; the padding must be zeros

	start := time.Now()
	if _, err := s.file.WriteAt(buf, int64(offset)); err != nil {
		return 0, fmt.Errorf("store: append at offset %d: %w", offset, err)
	}
	elapsed := time.Since(start)

	s.offset += padded

	if elapsed > slowOpThreshold {
		logger.Warn("slow append",
			logger.KeyOffset, logger.FormatOffset(offset),
			logger.KeyPaddedLength, padded,
			logger.KeyDurationMs, logger.Duration(start))
	} else {
		logger.Debug("append complete",
			logger.KeyOffset, offset,
			logger.KeyBytesWritten, len(data),
			logger.KeyPaddedLength, padded,
			logger.KeyDurationMs, logger.Duration(start))
	}

	return offset, nil
}

// ReadAt reads length payload bytes from the record beginning at offset.
//
// Whole blocks are read for direct-I/O compliance; only the first length
// bytes are returned, the rest is padding and is discarded here. The offset
// must be a BlockSize multiple — it can only legitimately come from Append,
// so a misaligned offset is reported as ErrInvalidAlignment instead of being
// rounded.
func (s *Store) ReadAt(ctx context.Context, offset, length uint64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if offset%BlockSize != 0 {
		return nil, fmt.Errorf("store: read at offset %d: %w", offset, ErrInvalidAlignment)
	}

	if length == 0 {
		return []byte{}, nil
	}

	readLen := PaddedLength(length)

	buf := bufpool.Get(int(readLen))
	defer bufpool.Put(buf)

	start := time.Now()
	if _, err := s.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("store: read %d bytes at offset %d: %w", readLen, offset, err)
	}
	elapsed := time.Since(start)

	if elapsed > slowOpThreshold {
		logger.Warn("slow read",
			logger.KeyOffset, logger.FormatOffset(offset),
			logger.KeyLength, readLen,
			logger.KeyDurationMs, logger.Duration(start))
	} else {
		logger.Debug("read complete",
			logger.KeyOffset, offset,
			logger.KeyBytesRead, length,
			logger.KeyDurationMs, logger.Duration(start))
	}

	out := make([]byte, length)
	copy(out, buf)
	return out, nil
}

// Size returns the current end of data in bytes.
func (s *Store) Size() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the file handle. Further operations fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}
