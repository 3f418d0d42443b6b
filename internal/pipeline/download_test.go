package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idoschwartz11/MySmartCart/internal/db"
)

const catalogName = "PriceFull7290803800003-009-202601140501.gz"

func newDownloadServer(t *testing.T, requests *int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(requests, 1)
		w.Write(gzipBytes(t, "<Root></Root>"))
	})
	mux.HandleFunc("/login.html", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(requests, 1)
		w.Write([]byte("<html><body>session expired</body></html>"))
	})
	mux.HandleFunc("/missing.gz", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(requests, 1)
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestDownloadSuccess(t *testing.T) {
	var requests int64
	server := newDownloadServer(t, &requests)
	h := testHandle(t)
	store := testStore(t)

	r := NewRunner(zerolog.Nop(), h, store)
	r.Seeds = []string{server.URL + "/files/" + catalogName}
	ch := &testChain{client: resty.New()}

	sum, err := r.Fetch(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Downloaded)
	assert.EqualValues(t, 1, requests)

	rec, err := h.FindRawFile("testchain", r.Seeds[0])
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, db.StatusDownloaded, rec.Status)
	require.NotNil(t, rec.StoreID)
	assert.Equal(t, "009", *rec.StoreID)
	require.NotNil(t, rec.ContentHash)
	assert.Len(t, *rec.ContentHash, 64)
	assert.Nil(t, rec.Error)

	require.NotNil(t, rec.StoragePath)
	data, err := store.Get(context.Background(), *rec.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, gzipBytes(t, "<Root></Root>"), data)
}

func TestDownloadDedupSkipsNetwork(t *testing.T) {
	var requests int64
	server := newDownloadServer(t, &requests)
	h := testHandle(t)

	fileURL := server.URL + "/files/" + catalogName
	fetched := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	existing := &db.RawFile{
		Chain:       "testchain",
		FileURL:     fileURL,
		Status:      db.StatusDownloaded,
		StoreID:     strptr("009"),
		StoragePath: strptr("testchain/2026-01-14/009/" + catalogName),
		Attempts:    1,
		FetchedAt:   fetched,
	}
	require.NoError(t, h.UpsertRawFile(existing))

	r := NewRunner(zerolog.Nop(), h, testStore(t))
	r.Seeds = []string{fileURL}
	sum, err := r.Fetch(context.Background(), &testChain{client: resty.New()})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Known)
	assert.Zero(t, sum.Downloaded)
	assert.Zero(t, requests, "a known file must not be fetched again")

	rec, err := h.FindRawFile("testchain", fileURL)
	require.NoError(t, err)
	assert.Equal(t, db.StatusDownloaded, rec.Status)
	assert.Equal(t, 1, rec.Attempts)
	assert.Equal(t, fetched.Unix(), rec.FetchedAt.Unix(), "record must be left unchanged")
}

func TestDownloadRetriesFailed(t *testing.T) {
	var requests int64
	server := newDownloadServer(t, &requests)
	h := testHandle(t)

	fileURL := server.URL + "/files/" + catalogName
	require.NoError(t, h.UpsertRawFile(&db.RawFile{
		Chain:     "testchain",
		FileURL:   fileURL,
		Status:    db.StatusFailed,
		Error:     strptr("fetch: http 503"),
		Attempts:  1,
		FetchedAt: time.Now(),
	}))

	r := NewRunner(zerolog.Nop(), h, testStore(t))
	r.Seeds = []string{fileURL}
	sum, err := r.Fetch(context.Background(), &testChain{client: resty.New()})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Downloaded)

	rec, err := h.FindRawFile("testchain", fileURL)
	require.NoError(t, err)
	assert.Equal(t, db.StatusDownloaded, rec.Status)
	assert.Equal(t, 2, rec.Attempts)
	assert.Nil(t, rec.Error)
}

func TestDownloadNotGzipRecordedFailed(t *testing.T) {
	var requests int64
	server := newDownloadServer(t, &requests)
	h := testHandle(t)

	fileURL := server.URL + "/login.html"
	r := NewRunner(zerolog.Nop(), h, testStore(t))
	r.Seeds = []string{fileURL}
	sum, err := r.Fetch(context.Background(), &testChain{client: resty.New()})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)

	rec, err := h.FindRawFile("testchain", fileURL)
	require.NoError(t, err)
	assert.Equal(t, db.StatusFailed, rec.Status)
	require.NotNil(t, rec.Error)
	assert.Contains(t, *rec.Error, "not gzip")
	assert.Contains(t, *rec.Error, "<html>", "diagnostic must carry the first bytes")
	assert.Nil(t, rec.StoragePath)
}

func TestDownloadHTTPErrorRecordedFailed(t *testing.T) {
	var requests int64
	server := newDownloadServer(t, &requests)
	h := testHandle(t)

	fileURL := server.URL + "/missing.gz"
	r := NewRunner(zerolog.Nop(), h, testStore(t))
	r.Seeds = []string{fileURL}
	sum, err := r.Fetch(context.Background(), &testChain{client: resty.New()})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)

	rec, err := h.FindRawFile("testchain", fileURL)
	require.NoError(t, err)
	assert.Equal(t, db.StatusFailed, rec.Status)
	require.NotNil(t, rec.Error)
	assert.Contains(t, *rec.Error, "http 404")
}

func TestDownloadNoStoreIDSkipped(t *testing.T) {
	var requests int64
	server := newDownloadServer(t, &requests)
	h := testHandle(t)

	// valid gzip, but the name encodes no store
	fileURL := server.URL + "/files/StoresFull7290803800003-202601140501.gz"
	r := NewRunner(zerolog.Nop(), h, testStore(t))
	r.Seeds = []string{fileURL}
	sum, err := r.Fetch(context.Background(), &testChain{client: resty.New()})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)

	rec, err := h.FindRawFile("testchain", fileURL)
	require.NoError(t, err)
	assert.Equal(t, db.StatusSkipped, rec.Status)
	assert.Nil(t, rec.StoreID)
}

func TestDownloadCap(t *testing.T) {
	var requests int64
	server := newDownloadServer(t, &requests)
	h := testHandle(t)

	r := NewRunner(zerolog.Nop(), h, testStore(t))
	r.MaxDownloads = 1
	r.Seeds = []string{
		server.URL + "/files/PriceFull7290803800003-001-202601140501.gz",
		server.URL + "/files/PriceFull7290803800003-002-202601140501.gz",
	}
	sum, err := r.Fetch(context.Background(), &testChain{client: resty.New()})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Downloaded)
	assert.EqualValues(t, 1, requests, "cap must stop before the next fetch")
}
