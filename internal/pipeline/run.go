// internal/pipeline/run.go
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/idoschwartz11/MySmartCart/internal/chains"
	"github.com/idoschwartz11/MySmartCart/internal/db"
	"github.com/idoschwartz11/MySmartCart/internal/storage"
)

// Runner drives one chain through discovery and download. Files are attempted
// sequentially in discovery order; MaxDownloads caps successful downloads and
// MaxPages caps discovery pagination, both as plain circuit breakers.
type Runner struct {
	log   zerolog.Logger
	db    *db.Handle
	store storage.ObjectStore

	MaxDownloads int
	MaxPages     int
	Seeds        []string // operational override: skips discovery entirely
	FileTimeout  time.Duration

	now func() time.Time
}

func NewRunner(log zerolog.Logger, h *db.Handle, store storage.ObjectStore) *Runner {
	return &Runner{
		log:         log,
		db:          h,
		store:       store,
		FileTimeout: 2 * time.Minute,
		now:         time.Now,
	}
}

type FetchSummary struct {
	Discovered int
	Downloaded int
	Skipped    int
	Failed     int
	Known      int // already in the ledger, no network fetch performed
}

// Fetch runs discovery (or the seed override) and downloads each candidate.
// Per-file failures are absorbed into the ledger; only discovery itself can
// fail the run.
func (r *Runner) Fetch(ctx context.Context, ch chains.Chain) (FetchSummary, error) {
	var sum FetchSummary

	urls := dedup(r.Seeds)
	if len(urls) == 0 {
		discovered, err := ch.Discover(ctx, r.MaxPages)
		if err != nil {
			return sum, err
		}
		urls = dedup(discovered)
	} else {
		r.log.Info().Int("urls", len(urls)).Msg("seed list supplied, skipping discovery")
	}
	sum.Discovered = len(urls)

	for _, fileURL := range urls {
		if r.MaxDownloads > 0 && sum.Downloaded >= r.MaxDownloads {
			r.log.Info().Int("max", r.MaxDownloads).Msg("download cap reached")
			break
		}
		fileCtx, cancel := context.WithTimeout(ctx, r.fileTimeout())
		outcome := r.downloadOne(fileCtx, ch, fileURL)
		cancel()

		switch outcome {
		case db.StatusDownloaded:
			sum.Downloaded++
		case db.StatusSkipped:
			sum.Skipped++
		case db.StatusFailed:
			sum.Failed++
		case outcomeKnown:
			sum.Known++
		}
	}

	r.log.Info().
		Str("chain", ch.Name()).
		Int("discovered", sum.Discovered).
		Int("downloaded", sum.Downloaded).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Int("known", sum.Known).
		Msg("fetch run done")
	return sum, nil
}

func (r *Runner) fileTimeout() time.Duration {
	if r.FileTimeout <= 0 {
		return 2 * time.Minute
	}
	return r.FileTimeout
}

func dedup(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	var out []string
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
