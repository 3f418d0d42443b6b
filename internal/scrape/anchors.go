package scrape

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Anchor struct {
	Name string
	Href string
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// Anchors parses an HTML page and returns every <a> element with an href,
// with link text whitespace collapsed.
func Anchors(page []byte) ([]Anchor, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	var anchors []Anchor
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		name := strings.TrimSpace(innerWhitespace.ReplaceAllString(sel.Text(), " "))
		anchors = append(anchors, Anchor{Name: name, Href: href})
	})
	return anchors, nil
}

// FilterLinks keeps anchors whose target matches allow and does not match
// deny (deny may be nil), resolved against base, deduplicated in order.
func FilterLinks(base *url.URL, anchors []Anchor, allow, deny *regexp.Regexp) []string {
	seen := make(map[string]bool, len(anchors))
	var out []string
	for _, a := range anchors {
		if !allow.MatchString(a.Href) && !allow.MatchString(a.Name) {
			continue
		}
		if deny != nil && (deny.MatchString(a.Href) || deny.MatchString(a.Name)) {
			continue
		}
		ref, err := url.Parse(a.Href)
		if err != nil {
			continue
		}
		abs := ref.String()
		if base != nil {
			abs = base.ResolveReference(ref).String()
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	return out
}
