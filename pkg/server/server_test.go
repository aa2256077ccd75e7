package server

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/marmos91/dittostore/pkg/api/storepb"
	"github.com/marmos91/dittostore/pkg/index"
	"github.com/marmos91/dittostore/pkg/service"
	"github.com/marmos91/dittostore/pkg/store"
)

func newTestHandler(t *testing.T) storepb.StoreServiceServer {
	t.Helper()

	st, err := store.New(store.Config{
		Path:   filepath.Join(t.TempDir(), "store.bin"),
		Direct: false,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return service.New(st, index.New())
}

// dialBuf wires a client to an in-memory listener, avoiding real sockets.
func dialBuf(t *testing.T, listener *bufconn.Listener) storepb.StoreServiceClient {
	t.Helper()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return storepb.NewStoreServiceClient(conn)
}

func TestWriteReadOverWire(t *testing.T) {
	listener := bufconn.Listen(1 << 20)

	grpcServer := grpc.NewServer()
	storepb.RegisterStoreServiceServer(grpcServer, newTestHandler(t))
	go func() { _ = grpcServer.Serve(listener) }()
	t.Cleanup(grpcServer.Stop)

	rpc := dialBuf(t, listener)
	ctx := context.Background()

	wr, err := rpc.Write(ctx, &storepb.WriteRequest{
		RequestId: "wire-1",
		Data:      []byte("over the wire"),
	})
	require.NoError(t, err)
	require.True(t, wr.Success)
	assert.Equal(t, uint64(0), wr.Offset)

	rr, err := rpc.Read(ctx, &storepb.ReadRequest{RequestId: "wire-1"})
	require.NoError(t, err)
	require.True(t, rr.Success)
	assert.Equal(t, []byte("over the wire"), rr.Data)

	missing, err := rpc.Read(ctx, &storepb.ReadRequest{RequestId: "nope"})
	require.NoError(t, err, "not-found must be a failed response, not an RPC error")
	assert.False(t, missing.Success)
	assert.Contains(t, missing.ErrorMessage, "not found")
}

func TestServerGracefulShutdown(t *testing.T) {
	srv := NewServer(Config{
		ListenAddress:   "127.0.0.1:0",
		ShutdownTimeout: 2 * time.Second,
	}, newTestHandler(t))

	ctx, cancel := context.WithCancel(context.Background())

	errChan := make(chan error, 1)
	go func() { errChan <- srv.Start(ctx) }()

	// Give the listener a moment to bind, then request shutdown.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()

	assert.Equal(t, ":50051", cfg.ListenAddress)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}
