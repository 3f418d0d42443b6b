package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchors(t *testing.T) {
	page := []byte(`<html><body>
		<a href="/files/PriceFull123-001.gz">מחירון   מלא
		חנות 1</a>
		<a href="promo.gz">Promo</a>
		<a>no href</a>
	</body></html>`)

	anchors, err := Anchors(page)
	require.NoError(t, err)
	require.Len(t, anchors, 2)
	assert.Equal(t, "/files/PriceFull123-001.gz", anchors[0].Href)
	assert.Equal(t, "מחירון מלא חנות 1", anchors[0].Name)
}

func TestFilterLinks(t *testing.T) {
	base, _ := url.Parse("https://prices.example.co.il/list")
	anchors := []Anchor{
		{Href: "/files/PriceFull1-001.gz"},
		{Href: "/files/PromoFull1-001.gz"},
		{Href: "/files/PriceFull1-002.gz"},
		{Href: "/files/PriceFull1-001.gz"}, // duplicate
		{Href: "::bad::url"},
	}
	allow := regexp.MustCompile(`(?i)pricefull`)
	deny := regexp.MustCompile(`(?i)promo`)

	links := FilterLinks(base, anchors, allow, deny)
	assert.Equal(t, []string{
		"https://prices.example.co.il/files/PriceFull1-001.gz",
		"https://prices.example.co.il/files/PriceFull1-002.gz",
	}, links)
}

func TestFormLogin(t *testing.T) {
	var gotUser, gotPass, gotToken string
	mux := http.NewServeMux()
	mux.HandleFunc("/login/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`<html><form>
				<input name="csrftoken" value="tok-123">
				<input name="username"><input name="password">
			</form></html>`))
			return
		}
		require.NoError(t, r.ParseForm())
		gotUser = r.PostFormValue("username")
		gotPass = r.PostFormValue("password")
		gotToken = r.PostFormValue("csrftoken")
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseURL: server.URL})
	require.NoError(t, err)

	login := &FormLogin{Client: client, Chain: "testchain"}
	ses, err := login.Login(context.Background(), "/login/user", "user1", "pw1")
	require.NoError(t, err)

	assert.Equal(t, "user1", gotUser)
	assert.Equal(t, "pw1", gotPass)
	assert.Equal(t, "tok-123", gotToken)
	require.NotEmpty(t, ses.Cookies)
	assert.Equal(t, "sid", ses.Cookies[0].Name)
}

func TestFormLoginBadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`<html><form></form></html>`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseURL: server.URL})
	require.NoError(t, err)

	login := &FormLogin{Client: client, Chain: "testchain"}
	_, err = login.Login(context.Background(), "/login/user", "user1", "wrong")
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions", "testchain.json")

	// nothing persisted yet
	ses, err := LoadSession(path)
	require.NoError(t, err)
	assert.Nil(t, ses)

	orig := &Session{
		Chain:     "testchain",
		CreatedAt: time.Now().Add(-time.Hour),
		Cookies:   []*http.Cookie{{Name: "sid", Value: "abc"}},
	}
	require.NoError(t, orig.Save(path))

	loaded, err := LoadSession(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "testchain", loaded.Chain)
	require.Len(t, loaded.Cookies, 1)
	assert.Equal(t, "abc", loaded.Cookies[0].Value)

	assert.False(t, loaded.Expired(2*time.Hour))
	assert.True(t, loaded.Expired(30*time.Minute))
}
