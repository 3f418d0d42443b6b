// Paginated-listing strategy: the chain publishes catalog files behind a
// category listing endpoint that pages until empty. Full price catalogs are
// allowed through; promo exports published on the same listing are not.
package shufersal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/idoschwartz11/MySmartCart/internal/chains"
	"github.com/idoschwartz11/MySmartCart/internal/names"
	"github.com/idoschwartz11/MySmartCart/internal/scrape"
)

type Config struct {
	BaseURL    string `json:"base_url"`
	CategoryID int    `json:"category_id"` // listing category holding the full price files
}

type Shufersal struct {
	log    zerolog.Logger
	cfg    Config
	client *resty.Client
	base   *url.URL
}

var (
	allowRe = regexp.MustCompile(`(?i)pricefull`)
	denyRe  = regexp.MustCompile(`(?i)promo`)
)

func (s *Shufersal) Name() string { return "shufersal" }

func (s *Shufersal) Client() *resty.Client { return s.client }

func (s *Shufersal) StoreID(candidates ...string) (string, bool) {
	return names.ResolveStoreID(candidates...)
}

func (s *Shufersal) Discover(ctx context.Context, maxPages int) ([]string, error) {
	if maxPages <= 0 {
		maxPages = 20
	}
	seen := map[string]bool{}
	var out []string

	for page := 1; page <= maxPages; page++ {
		res, err := s.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"catID":   fmt.Sprintf("%d", s.cfg.CategoryID),
				"storeId": "0",
				"page":    fmt.Sprintf("%d", page),
			}).
			Get("/FileObject/UpdateCategory")
		if err != nil {
			return nil, fmt.Errorf("listing page %d: %w", page, err)
		}
		if res.IsError() {
			return nil, fmt.Errorf("listing page %d: http %d", page, res.StatusCode())
		}

		anchors, err := scrape.Anchors(res.Body())
		if err != nil {
			return nil, fmt.Errorf("listing page %d: %w", page, err)
		}
		links := scrape.FilterLinks(s.base, anchors, allowRe, denyRe)
		if len(links) == 0 {
			break
		}
		added := 0
		for _, l := range links {
			if seen[l] {
				continue
			}
			seen[l] = true
			out = append(out, l)
			added++
		}
		s.log.Debug().Int("page", page).Int("links", added).Msg("listing page scraped")
		// a page of nothing-but-known links means the listing wrapped around
		if added == 0 {
			break
		}
	}
	s.log.Info().Int("urls", len(out)).Msg("discovery done")
	return out, nil
}

func factory(log zerolog.Logger, raw json.RawMessage, _ chains.Env) (chains.Chain, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("shufersal: base_url is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("shufersal: bad base_url: %w", err)
	}
	client, err := scrape.NewClient(scrape.ClientOptions{BaseURL: cfg.BaseURL})
	if err != nil {
		return nil, err
	}
	return &Shufersal{log: log, cfg: cfg, client: client, base: base}, nil
}

func init() {
	chains.Register("shufersal", factory)
}
