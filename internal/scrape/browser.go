package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

var ErrLoginFailed = fmt.Errorf("login failed")

// Browser is the interactive-login boundary. The production deployment can
// plug a headless-browser automation behind it for chains whose login only
// works with scripting enabled; FormLogin is the default implementation for
// the plain form-POST logins.
type Browser interface {
	Login(ctx context.Context, loginURL, username, password string) (*Session, error)
}

// FormLogin logs in by fetching the login page, lifting the hidden CSRF token
// out of the form, and posting the credentials. The resulting cookie state is
// returned as a reusable Session.
type FormLogin struct {
	Client     *resty.Client
	Chain      string
	UserField  string // form field names, defaulted for the common login form
	PassField  string
	TokenField string
}

func (f *FormLogin) Login(ctx context.Context, loginURL, username, password string) (*Session, error) {
	userField := f.UserField
	if userField == "" {
		userField = "username"
	}
	passField := f.PassField
	if passField == "" {
		passField = "password"
	}
	tokenField := f.TokenField
	if tokenField == "" {
		tokenField = "csrftoken"
	}

	res, err := f.Client.R().SetContext(ctx).Get(loginURL)
	if err != nil {
		return nil, fmt.Errorf("fetching login page: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("login page: http %d", res.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parsing login page: %w", err)
	}

	form := map[string]string{
		userField: username,
		passField: password,
	}
	token := doc.Find(fmt.Sprintf("input[name=%s]", tokenField)).AttrOr("value", "")
	if token != "" {
		form[tokenField] = token
	}

	res, err = f.Client.R().
		SetContext(ctx).
		SetFormData(form).
		Post(loginURL)
	if err != nil {
		return nil, fmt.Errorf("posting login form: %w", err)
	}
	if res.IsError() {
		return nil, ErrLoginFailed
	}

	site, err := url.Parse(f.Client.BaseURL)
	if err != nil || site.Host == "" {
		site = res.RawResponse.Request.URL
	}
	jar := f.Client.GetClient().Jar
	if jar == nil {
		return nil, fmt.Errorf("login client has no cookie jar")
	}
	cookies := jar.Cookies(site)
	if len(cookies) == 0 {
		return nil, ErrLoginFailed
	}
	return &Session{
		Chain:     f.Chain,
		CreatedAt: time.Now(),
		Cookies:   cookies,
	}, nil
}
