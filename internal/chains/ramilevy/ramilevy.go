// Authenticated-session strategy: catalog files sit behind an interactive
// login. The login is established once (headless automation can be plugged in
// through chains.Env.Browser; the default is the plain form POST), its cookie
// state is persisted, and later runs reuse it non-interactively until it
// expires or the listing answers with an auth error.
package ramilevy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/idoschwartz11/MySmartCart/internal/chains"
	conf "github.com/idoschwartz11/MySmartCart/internal/config"
	"github.com/idoschwartz11/MySmartCart/internal/names"
	"github.com/idoschwartz11/MySmartCart/internal/scrape"
)

type Config struct {
	BaseURL    string `json:"base_url"`
	LoginPath  string `json:"login_path"`
	ListPath   string `json:"list_path"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	LoadPages  int    `json:"load_pages"`  // extra content loads before enumeration
	MaxAgeHour int    `json:"max_age_hour"` // session reuse window
}

type RamiLevy struct {
	log     zerolog.Logger
	cfg     Config
	client  *resty.Client
	base    *url.URL
	browser scrape.Browser
	sesFile string
}

var (
	allowRe = regexp.MustCompile(`(?i)pricefull`)
	denyRe  = regexp.MustCompile(`(?i)promo`)
)

func (r *RamiLevy) Name() string { return "ramilevy" }

func (r *RamiLevy) Client() *resty.Client { return r.client }

func (r *RamiLevy) StoreID(candidates ...string) (string, bool) {
	return names.ResolveStoreID(candidates...)
}

func (r *RamiLevy) Discover(ctx context.Context, _ int) ([]string, error) {
	if err := r.ensureSession(ctx); err != nil {
		return nil, err
	}
	links, authFailed, err := r.enumerate(ctx)
	if err != nil {
		return nil, err
	}
	if authFailed {
		// persisted session went stale; log in fresh and try once more
		r.log.Info().Msg("session rejected, re-establishing login")
		if err := r.login(ctx); err != nil {
			return nil, err
		}
		links, authFailed, err = r.enumerate(ctx)
		if err != nil {
			return nil, err
		}
		if authFailed {
			return nil, scrape.ErrLoginFailed
		}
	}
	r.log.Info().Int("urls", len(links)).Msg("discovery done")
	return links, nil
}

// enumerate walks the authenticated listing, optionally asking for additional
// content pages the way the in-browser infinite scroll would, then collects
// matching links across everything loaded.
func (r *RamiLevy) enumerate(ctx context.Context) (links []string, authFailed bool, err error) {
	loads := r.cfg.LoadPages
	if loads <= 0 {
		loads = 1
	}
	seen := map[string]bool{}
	for page := 1; page <= loads; page++ {
		req := r.client.R().SetContext(ctx)
		if page > 1 {
			req.SetQueryParam("page", fmt.Sprintf("%d", page))
		}
		res, err := req.Get(r.cfg.ListPath)
		if err != nil {
			return nil, false, fmt.Errorf("listing: %w", err)
		}
		if res.StatusCode() == 401 || res.StatusCode() == 403 {
			return nil, true, nil
		}
		if res.IsError() {
			return nil, false, fmt.Errorf("listing: http %d", res.StatusCode())
		}
		anchors, err := scrape.Anchors(res.Body())
		if err != nil {
			return nil, false, fmt.Errorf("listing: %w", err)
		}
		for _, l := range scrape.FilterLinks(r.base, anchors, allowRe, denyRe) {
			if seen[l] {
				continue
			}
			seen[l] = true
			links = append(links, l)
		}
	}
	return links, false, nil
}

func (r *RamiLevy) ensureSession(ctx context.Context) error {
	ses, err := scrape.LoadSession(r.sesFile)
	if err != nil {
		r.log.Warn().Err(err).Msg("unreadable session state, logging in fresh")
		ses = nil
	}
	maxAge := time.Duration(r.cfg.MaxAgeHour) * time.Hour
	if maxAge <= 0 {
		maxAge = 12 * time.Hour
	}
	if ses != nil && !ses.Expired(maxAge) {
		ses.Apply(r.client, r.base)
		return nil
	}
	return r.login(ctx)
}

func (r *RamiLevy) login(ctx context.Context) error {
	ses, err := r.browser.Login(ctx, r.cfg.LoginPath, r.cfg.Username, r.cfg.Password)
	if err != nil {
		return fmt.Errorf("ramilevy login: %w", err)
	}
	ses.Chain = r.Name()
	ses.Apply(r.client, r.base)
	if err := ses.Save(r.sesFile); err != nil {
		r.log.Warn().Err(err).Msg("could not persist session state")
	}
	return nil
}

func factory(log zerolog.Logger, raw json.RawMessage, env chains.Env) (chains.Chain, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ramilevy: base_url is required")
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login/user"
	}
	if cfg.ListPath == "" {
		cfg.ListPath = "/file"
	}
	cfg.Username = conf.EnvCredential("ramilevy", "username", cfg.Username)
	cfg.Password = conf.EnvCredential("ramilevy", "password", cfg.Password)
	if cfg.Username == "" {
		return nil, fmt.Errorf("ramilevy: missing credentials")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("ramilevy: bad base_url: %w", err)
	}
	client, err := scrape.NewClient(scrape.ClientOptions{BaseURL: cfg.BaseURL})
	if err != nil {
		return nil, err
	}
	browser := env.Browser
	if browser == nil {
		browser = &scrape.FormLogin{Client: client, Chain: "ramilevy"}
	}
	return &RamiLevy{
		log:     log,
		cfg:     cfg,
		client:  client,
		base:    base,
		browser: browser,
		sesFile: filepath.Join(env.SessionDir, "ramilevy.json"),
	}, nil
}

func init() {
	chains.Register("ramilevy", factory)
}
