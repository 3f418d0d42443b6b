package pipeline

import (
	"bytes"
	"compress/gzip"
	"context"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"

	"github.com/idoschwartz11/MySmartCart/internal/db"
	"github.com/idoschwartz11/MySmartCart/internal/names"
	"github.com/idoschwartz11/MySmartCart/internal/storage"
)

func testHandle(t *testing.T) *db.Handle {
	t.Helper()
	h, err := db.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, h.Migrate())
	t.Cleanup(func() { h.Close() })
	return h
}

func testStore(t *testing.T) *storage.FS {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	return store
}

// testChain is a minimal strategy for exercising the pipeline against
// httptest servers.
type testChain struct {
	client *resty.Client
	urls   []string
}

func (c *testChain) Name() string { return "testchain" }

func (c *testChain) Discover(ctx context.Context, maxPages int) ([]string, error) {
	return c.urls, nil
}

func (c *testChain) StoreID(candidates ...string) (string, bool) {
	return names.ResolveStoreID(candidates...)
}

func (c *testChain) Client() *resty.Client { return c.client }

func gzipBytes(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func strptr(s string) *string { return &s }
