package scrape

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
)

// Session is the cookie-equivalent state of an authenticated login, owned by
// the run that established it. Persisting it lets a later non-interactive
// download run reuse the login instead of repeating it.
type Session struct {
	Chain     string         `json:"chain"`
	CreatedAt time.Time      `json:"created_at"`
	Cookies   []*http.Cookie `json:"cookies"`
}

// LoadSession reads persisted session state. A missing file is (nil, nil):
// no previous login to reuse.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Session) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Apply installs the session cookies on a client for the given site.
func (s *Session) Apply(client *resty.Client, site *url.URL) {
	if jar := client.GetClient().Jar; jar != nil {
		jar.SetCookies(site, s.Cookies)
	}
}

// Expired reports whether the session is older than maxAge and should be
// re-established rather than reused.
func (s *Session) Expired(maxAge time.Duration) bool {
	return time.Since(s.CreatedAt) > maxAge
}
