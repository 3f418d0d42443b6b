// internal/chains/types.go
package chains

import (
	"context"
	"encoding/json"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/idoschwartz11/MySmartCart/internal/scrape"
)

// Chain is one supermarket retailer's access strategy: how to enumerate its
// catalog download URLs and how to read store identity out of its filenames.
// Adding a chain means registering a new implementation, not branching
// existing code.
type Chain interface {
	Name() string

	// Discover returns the deduplicated candidate download URLs for one run.
	// maxPages bounds pagination for strategies that page; others ignore it.
	Discover(ctx context.Context, maxPages int) ([]string, error)

	// StoreID resolves a store identifier from filename candidates, in the
	// order given. No match means the file is not a per-store catalog.
	StoreID(candidates ...string) (string, bool)

	// Client is the HTTP client carrying whatever auth state Discover
	// established; the downloader fetches candidate URLs through it.
	Client() *resty.Client
}

// Env carries run-scoped collaborators into chain construction. SessionDir is
// where authenticated chains persist login state between runs; Browser, when
// non-nil, replaces the default form login for chains that need interactive
// automation.
type Env struct {
	SessionDir string
	Browser    scrape.Browser
}

type Factory func(log zerolog.Logger, raw json.RawMessage, env Env) (Chain, error)
