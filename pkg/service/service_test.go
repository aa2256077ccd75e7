package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/api/storepb"
	"github.com/marmos91/dittostore/pkg/index"
	"github.com/marmos91/dittostore/pkg/store"
)

// newTestService builds a Service over a real store file in a temp directory.
// Direct I/O is disabled so tests run on filesystems without O_DIRECT support.
func newTestService(t *testing.T) *Service {
	t.Helper()

	st, err := store.New(store.Config{
		Path:   filepath.Join(t.TempDir(), "store.bin"),
		Direct: false,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return New(st, index.New())
}

func TestWriteThenRead(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	payload := []byte("Hello, World!")

	wr, err := svc.Write(ctx, &storepb.WriteRequest{
		RequestId: "test-1",
		Data:      payload,
	})
	require.NoError(t, err)
	require.True(t, wr.Success)
	assert.Equal(t, "test-1", wr.RequestId)
	assert.Equal(t, uint64(0), wr.Offset)
	assert.Empty(t, wr.ErrorMessage)

	rr, err := svc.Read(ctx, &storepb.ReadRequest{RequestId: "test-1"})
	require.NoError(t, err)
	require.True(t, rr.Success)
	assert.Equal(t, "test-1", rr.RequestId)
	assert.Equal(t, payload, rr.Data)
}

func TestWriteRecordsIndexEntry(t *testing.T) {
	st, err := store.New(store.Config{
		Path:   filepath.Join(t.TempDir(), "store.bin"),
		Direct: false,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	idx := index.New()
	svc := New(st, idx)
	ctx := context.Background()

	_, err = svc.Write(ctx, &storepb.WriteRequest{
		RequestId: "first",
		Data:      make([]byte, 700),
	})
	require.NoError(t, err)

	wr, err := svc.Write(ctx, &storepb.WriteRequest{
		RequestId: "second",
		Data:      []byte("short payload"),
	})
	require.NoError(t, err)
	require.True(t, wr.Success)

	entry, ok := idx.Lookup("second")
	require.True(t, ok)
	assert.Equal(t, wr.Offset, entry.Offset)
	assert.Equal(t, uint64(1024), entry.Offset, "700 bytes pad to two blocks")
	assert.Equal(t, uint64(len("short payload")), entry.Length,
		"index keeps the unpadded length")
	assert.Equal(t, 2, idx.Len())
}

func TestReadUnknownIDFailsWithoutRPCError(t *testing.T) {
	svc := newTestService(t)

	rr, err := svc.Read(context.Background(), &storepb.ReadRequest{RequestId: "missing"})
	require.NoError(t, err, "application failures must not become RPC errors")
	assert.False(t, rr.Success)
	assert.Equal(t, "missing", rr.RequestId)
	assert.Contains(t, rr.ErrorMessage, "not found")
	assert.Empty(t, rr.Data)
}

func TestRewriteSameIDReturnsLatest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Write(ctx, &storepb.WriteRequest{
		RequestId: "doc",
		Data:      []byte("first version"),
	})
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := svc.Write(ctx, &storepb.WriteRequest{
		RequestId: "doc",
		Data:      []byte("second version, a bit longer"),
	})
	require.NoError(t, err)
	require.True(t, second.Success)
	assert.Greater(t, second.Offset, first.Offset)

	rr, err := svc.Read(ctx, &storepb.ReadRequest{RequestId: "doc"})
	require.NoError(t, err)
	require.True(t, rr.Success)
	assert.Equal(t, []byte("second version, a bit longer"), rr.Data)
}

func TestWriteEmptyPayload(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	wr, err := svc.Write(ctx, &storepb.WriteRequest{RequestId: "empty"})
	require.NoError(t, err)
	require.True(t, wr.Success)

	rr, err := svc.Read(ctx, &storepb.ReadRequest{RequestId: "empty"})
	require.NoError(t, err)
	require.True(t, rr.Success)
	assert.Empty(t, rr.Data)
}

func TestOffsetsAdvanceByBlockMultiples(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sizes := []int{13, 512, 513, 1, 1024}
	var expected uint64

	for i, size := range sizes {
		wr, err := svc.Write(ctx, &storepb.WriteRequest{
			RequestId: fmt.Sprintf("obj-%d", i),
			Data:      make([]byte, size),
		})
		require.NoError(t, err)
		require.True(t, wr.Success)
		assert.Equal(t, expected, wr.Offset, "payload %d of size %d", i, size)

		expected += store.PaddedLength(uint64(size))
	}
}

func TestConcurrentWritersReadBackTheirOwnData(t *testing.T) {
	svc := newTestService(t)

	const writers = 16

	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx := context.Background()
			id := fmt.Sprintf("writer-%d", i)
			payload := []byte(fmt.Sprintf("payload from writer %d", i))

			wr, err := svc.Write(ctx, &storepb.WriteRequest{RequestId: id, Data: payload})
			assert.NoError(t, err)
			assert.True(t, wr.Success)

			rr, err := svc.Read(ctx, &storepb.ReadRequest{RequestId: id})
			assert.NoError(t, err)
			assert.True(t, rr.Success)
			assert.Equal(t, payload, rr.Data)
		}()
	}
	wg.Wait()
}

func TestHandlerLogsCarryStatusField(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "DEBUG", "json", false)
	t.Cleanup(func() { logger.InitWithWriter(io.Discard, "INFO", "text", false) })

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Write(ctx, &storepb.WriteRequest{RequestId: "logged", Data: []byte("x")})
	require.NoError(t, err)
	_, err = svc.Read(ctx, &storepb.ReadRequest{RequestId: "absent"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"status":"ok"`)
	assert.Contains(t, out, `"status":"not_found"`)
	assert.Contains(t, out, `"request_id":"absent"`)
}

func TestWriteAfterStoreClosed(t *testing.T) {
	st, err := store.New(store.Config{
		Path:   filepath.Join(t.TempDir(), "store.bin"),
		Direct: false,
	})
	require.NoError(t, err)

	svc := New(st, index.New())
	require.NoError(t, st.Close())

	wr, err := svc.Write(context.Background(), &storepb.WriteRequest{
		RequestId: "late",
		Data:      []byte("too late"),
	})
	require.NoError(t, err)
	assert.False(t, wr.Success)
	assert.Contains(t, wr.ErrorMessage, "write failed")
}
