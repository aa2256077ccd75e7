package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore opens a store on a temp file with direct I/O disabled so the
// tests run on any filesystem (tmpfs rejects O_DIRECT).
func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.bin")
	s, err := New(Config{Path: path, Direct: false})
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func TestPaddedLength(t *testing.T) {
	tests := []struct {
		length uint64
		want   uint64
	}{
		{0, 0},
		{1, 512},
		{13, 512},
		{511, 512},
		{512, 512},
		{513, 1024},
		{1024, 1024},
		{4097, 4608},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PaddedLength(tt.length), "PaddedLength(%d)", tt.length)
	}
}

func TestAppendReturnsPriorEndOfData(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	off1, err := s.Append(ctx, []byte("Hello, World!")) // 13 bytes
	require.NoError(t, err)
	assert.Equal(t, uint64(0), off1)

	off2, err := s.Append(ctx, []byte("This is a test message")) // 22 bytes
	require.NoError(t, err)
	assert.Equal(t, uint64(512), off2)

	off3, err := s.Append(ctx, bytes.Repeat([]byte("x"), 513))
	require.NoError(t, err)
	assert.Equal(t, uint64(1024), off3)

	assert.Equal(t, uint64(2048), s.Size())
}

func TestAppendGrowsFileByPaddedLength(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Append(ctx, []byte("Hello, World!"))
	require.NoError(t, err)

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, int64(512), info.Size(), "13-byte payload occupies one padded block")
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	payloads := [][]byte{
		[]byte("Hello, World!"),
		bytes.Repeat([]byte{0xAB}, 512),
		bytes.Repeat([]byte{0xCD}, 1000),
		{0x00}, // single zero byte must survive, not be confused with padding
	}

	type rec struct {
		offset uint64
		data   []byte
	}
	var recs []rec

	for _, p := range payloads {
		off, err := s.Append(ctx, p)
		require.NoError(t, err)
		recs = append(recs, rec{off, p})
	}

	for _, r := range recs {
		got, err := s.ReadAt(ctx, r.offset, uint64(len(r.data)))
		require.NoError(t, err)
		assert.Equal(t, r.data, got, "payload at offset %d", r.offset)
	}
}

func TestReadTruncatesPadding(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	data := []byte("short")
	off, err := s.Append(ctx, data)
	require.NoError(t, err)

	got, err := s.ReadAt(ctx, off, uint64(len(data)))
	require.NoError(t, err)
	assert.Len(t, got, len(data), "trailing zero padding must not be returned")
	assert.Equal(t, data, got)
}

func TestEmptyPayload(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	off, err := s.Append(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), off)
	assert.Equal(t, uint64(0), s.Size(), "empty payload writes no blocks")

	// A following append still lands at the same fresh offset
	off2, err := s.Append(ctx, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), off2)

	got, err := s.ReadAt(ctx, off, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadMisalignedOffset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Append(ctx, []byte("data"))
	require.NoError(t, err)

	_, err = s.ReadAt(ctx, 7, 4)
	assert.ErrorIs(t, err, ErrInvalidAlignment)
}

func TestReadPastEndOfFile(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.ReadAt(ctx, 512, 10)
	assert.Error(t, err)
}

func TestReopenResumesAtEndOfData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.bin")

	s, err := New(Config{Path: path})
	require.NoError(t, err)

	_, err = s.Append(ctx, []byte("first"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := New(Config{Path: path})
	require.NoError(t, err)
	defer s2.Close()

	off, err := s2.Append(ctx, []byte("second"))
	require.NoError(t, err)
	assert.Equal(t, uint64(512), off, "append after reopen must not overwrite existing blocks")
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.Append(ctx, []byte("data"))
	assert.ErrorIs(t, err, ErrStoreClosed)

	// Double close is a no-op
	assert.NoError(t, s.Close())
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const writers = 16
	const perWriter = 20

	var wg sync.WaitGroup
	offsets := make(chan uint64, writers*perWriter)

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			payload := bytes.Repeat([]byte{byte(w)}, 100+w)
			for j := 0; j < perWriter; j++ {
				off, err := s.Append(ctx, payload)
				if err != nil {
					t.Errorf("writer %d: %v", w, err)
					return
				}
				offsets <- off
			}
		}(w)
	}

	wg.Wait()
	close(offsets)

	// Every append claimed a distinct, block-aligned offset
	seen := make(map[uint64]bool)
	for off := range offsets {
		assert.Zero(t, off%BlockSize, "offset %d not aligned", off)
		assert.False(t, seen[off], "offset %d claimed twice", off)
		seen[off] = true
	}
	assert.Len(t, seen, writers*perWriter)
	assert.Equal(t, uint64(writers*perWriter*512), s.Size())
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Seed some committed records
	type rec struct {
		offset uint64
		data   []byte
	}
	var recs []rec
	for i := 0; i < 8; i++ {
		data := bytes.Repeat([]byte{byte(i + 1)}, 64*(i+1))
		off, err := s.Append(ctx, data)
		require.NoError(t, err)
		recs = append(recs, rec{off, data})
	}

	var wg sync.WaitGroup

	// Readers hammer committed offsets while writers keep appending
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rec := recs[j%len(recs)]
				got, err := s.ReadAt(ctx, rec.offset, uint64(len(rec.data)))
				if err != nil {
					t.Errorf("read: %v", err)
					return
				}
				if !bytes.Equal(got, rec.data) {
					t.Error("read returned wrong bytes under concurrency")
					return
				}
			}
		}()
	}
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := s.Append(ctx, []byte("concurrent append")); err != nil {
					t.Errorf("append: %v", err)
					return
				}
			}
		}()
	}

	wg.Wait()
}

func TestCanceledContext(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Append(ctx, []byte("data"))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.ReadAt(ctx, 0, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
