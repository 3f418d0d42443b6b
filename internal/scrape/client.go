// internal/scrape/client.go
package scrape

import (
	"net/http/cookiejar"
	"time"

	"github.com/go-resty/resty/v2"
)

// userAgent identifies us to the chain front-ends. The catalog endpoints serve
// browsers; a default Go user agent gets some of them to answer with an error
// page instead of the file listing.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	BaseURL  string
	Username string // basic auth, when the chain requires a credential header
	Password string
	Timeout  time.Duration
}

// NewClient builds a resty client with identifying headers, a cookie jar and
// an explicit per-request deadline.
func NewClient(opts ClientOptions) (*resty.Client, error) {
	client := resty.New()
	if opts.BaseURL != "" {
		client.SetBaseURL(opts.BaseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)

	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept-Language", "he-IL,he;q=0.9,en;q=0.5")
	if opts.Username != "" {
		client.SetBasicAuth(opts.Username, opts.Password)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)
	return client, nil
}
