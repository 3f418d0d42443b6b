// Authenticated-homepage strategy: no listing endpoint exists; the landing
// page itself links the current catalog files and wants a credential header.
package kingstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/idoschwartz11/MySmartCart/internal/chains"
	conf "github.com/idoschwartz11/MySmartCart/internal/config"
	"github.com/idoschwartz11/MySmartCart/internal/names"
	"github.com/idoschwartz11/MySmartCart/internal/scrape"
)

type Config struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type KingStore struct {
	log    zerolog.Logger
	cfg    Config
	client *resty.Client
	base   *url.URL
}

var allowRe = regexp.MustCompile(`(?i)pricefull.*\.gz`)

func (k *KingStore) Name() string { return "kingstore" }

func (k *KingStore) Client() *resty.Client { return k.client }

func (k *KingStore) StoreID(candidates ...string) (string, bool) {
	return names.ResolveStoreID(candidates...)
}

func (k *KingStore) Discover(ctx context.Context, _ int) ([]string, error) {
	res, err := k.client.R().SetContext(ctx).Get("/")
	if err != nil {
		return nil, fmt.Errorf("landing page: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("landing page: http %d", res.StatusCode())
	}
	anchors, err := scrape.Anchors(res.Body())
	if err != nil {
		return nil, fmt.Errorf("landing page: %w", err)
	}
	links := scrape.FilterLinks(k.base, anchors, allowRe, nil)
	k.log.Info().Int("urls", len(links)).Msg("discovery done")
	return links, nil
}

func factory(log zerolog.Logger, raw json.RawMessage, _ chains.Env) (chains.Chain, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("kingstore: base_url is required")
	}
	cfg.Username = conf.EnvCredential("kingstore", "username", cfg.Username)
	cfg.Password = conf.EnvCredential("kingstore", "password", cfg.Password)

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("kingstore: bad base_url: %w", err)
	}
	client, err := scrape.NewClient(scrape.ClientOptions{
		BaseURL:  cfg.BaseURL,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, err
	}
	return &KingStore{log: log, cfg: cfg, client: client, base: base}, nil
}

func init() {
	chains.Register("kingstore", factory)
}
