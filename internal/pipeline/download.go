// internal/pipeline/download.go
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"net/url"
	"path"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/idoschwartz11/MySmartCart/internal/chains"
	"github.com/idoschwartz11/MySmartCart/internal/db"
	"github.com/idoschwartz11/MySmartCart/internal/storage"
)

// outcomeKnown: the ledger already holds a non-failed record for this URL, so
// no network fetch happened and the record was left untouched.
const outcomeKnown = "known"

// gzip signature. An auth failure typically hands back an HTML login page
// with a 200, so the content check is what actually catches it.
var gzipMagic = []byte{0x1f, 0x8b}

// downloadOne fetches a single candidate URL and records the outcome in the
// ledger. The returned string is the recorded status (or outcomeKnown).
func (r *Runner) downloadOne(ctx context.Context, ch chains.Chain, fileURL string) string {
	log := r.log.With().Str("chain", ch.Name()).Str("url", fileURL).Logger()

	existing, err := r.db.FindRawFile(ch.Name(), fileURL)
	if err != nil {
		log.Error().Err(err).Msg("ledger lookup failed")
		return db.StatusFailed
	}
	if existing != nil && existing.Status != db.StatusFailed {
		log.Debug().Str("status", existing.Status).Msg("already attempted, skipping")
		return outcomeKnown
	}
	attempts := 1
	if existing != nil {
		attempts = existing.Attempts + 1
		log.Info().Int("attempt", attempts).Msg("retrying previously failed file")
	}

	rec := db.RawFile{
		Chain:     ch.Name(),
		FileURL:   fileURL,
		Attempts:  attempts,
		FetchedAt: r.now(),
	}

	res, err := ch.Client().R().SetContext(ctx).Get(fileURL)
	if err != nil {
		return r.record(log, &rec, db.StatusFailed, fmt.Sprintf("fetch: %v", err))
	}
	if res.IsError() {
		return r.record(log, &rec, db.StatusFailed, fmt.Sprintf("fetch: http %d", res.StatusCode()))
	}
	body := res.Body()

	sum := sha256.Sum256(body)
	hash := hex.EncodeToString(sum[:])
	rec.ContentHash = &hash

	if len(body) < 2 || body[0] != gzipMagic[0] || body[1] != gzipMagic[1] {
		return r.record(log, &rec, db.StatusFailed,
			fmt.Sprintf("not gzip, first bytes: %q", preview(body, 16)))
	}

	declared := dispositionFilename(res)
	finalURL := fileURL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}
	storeID, ok := ch.StoreID(declared, finalURL, fileURL)
	if !ok {
		// not a per-store catalog (store list, aggregate export); skip, don't guess
		return r.record(log, &rec, db.StatusSkipped, "no store id resolvable from filename")
	}
	rec.StoreID = &storeID

	filename := declared
	if filename == "" {
		if u, err := url.Parse(finalURL); err == nil && u.Path != "" {
			filename = path.Base(u.Path)
		} else {
			filename = path.Base(finalURL)
		}
	}
	key := storage.Key(ch.Name(), rec.FetchedAt, storeID, filename)
	if err := r.store.Put(ctx, key, body); err != nil && err != storage.ErrExists {
		// bytes were fetched but not persisted, so the attempt did not succeed
		return r.record(log, &rec, db.StatusFailed, fmt.Sprintf("upload: %v", err))
	}
	rec.StoragePath = &key

	return r.record(log, &rec, db.StatusDownloaded, "")
}

func (r *Runner) record(log zerolog.Logger, rec *db.RawFile, status, errMsg string) string {
	rec.Status = status
	if errMsg != "" {
		rec.Error = &errMsg
	}
	if err := r.db.UpsertRawFile(rec); err != nil {
		log.Error().Err(err).Msg("ledger upsert failed")
		return db.StatusFailed
	}
	switch status {
	case db.StatusDownloaded:
		log.Info().Str("path", *rec.StoragePath).Msg("downloaded")
	case db.StatusSkipped:
		log.Info().Str("reason", errMsg).Msg("skipped")
	default:
		log.Warn().Str("error", errMsg).Msg("download failed")
	}
	return status
}

func dispositionFilename(res *resty.Response) string {
	cd := res.Header().Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func preview(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
