// internal/names/names.go
package names

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// StoreIDWidth is the normalized width of a store identifier. Chains publish
// store numbers as "9", "09" or "009" depending on the export tool; everything
// downstream compares against the padded form.
const StoreIDWidth = 3

// A grammar is one filename shape a chain is known to publish. Grammars are
// ordered most specific first (longest capture sequence wins); the first match
// is taken and the rest are never consulted.
type grammar struct {
	re *regexp.Regexp
}

// Chain catalog filenames, in priority order:
//
//	PriceFull7290696200003-050-012-20260114-050100.gz  (chain-sub-store-date-time)
//	PriceFull7290803800003-009-202601140501.gz         (chain-store-timestamp)
//
// plus the "Full"-prefixed spellings some chains use. The single capture group
// in each grammar is the store digits.
var catalogGrammars = []grammar{
	{regexp.MustCompile(`(?i)^(?:full)?(?:price|promo)(?:full)?(\d{9,13})-(?:\d{1,6})-(\d{1,4})-(\d{8})-(\d{6})`)},
	{regexp.MustCompile(`(?i)^(?:full)?(?:price|promo)(?:full)?(\d{9,13})-(\d{1,4})-(\d{12,14})`)},
}

// storeGroup maps each grammar to the index of its store-digits capture group.
var storeGroup = []int{2, 2}

// full catalogs only: plain Price files are incremental updates and not
// decoded here
var catalogFileRe = regexp.MustCompile(`(?i)^(?:fullprice|pricefull)\d{9,13}-`)

// StoreIDFromName resolves a store identifier from a single filename. The name
// may carry a path or query string; only the base name is matched.
func StoreIDFromName(name string) (string, bool) {
	base := baseName(name)
	if base == "" {
		return "", false
	}
	for i, g := range catalogGrammars {
		m := g.re.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		return PadStoreID(m[storeGroup[i]]), true
	}
	return "", false
}

// ResolveStoreID tries each candidate name in order (declared filename, final
// URL, requested URL) and returns the first store id that resolves. A file
// whose every candidate fails is not an identifiable store catalog.
func ResolveStoreID(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if id, ok := StoreIDFromName(c); ok {
			return id, true
		}
	}
	return "", false
}

// PadStoreID normalizes raw store digits to the fixed comparison width.
func PadStoreID(digits string) string {
	digits = strings.TrimLeft(strings.TrimSpace(digits), "0")
	if digits == "" {
		digits = "0"
	}
	for len(digits) < StoreIDWidth {
		digits = "0" + digits
	}
	return digits
}

// IsCatalogFile reports whether a name looks like a full price catalog,
// as opposed to promo or store-list exports published alongside them.
func IsCatalogFile(name string) bool {
	return catalogFileRe.MatchString(baseName(name))
}

// baseName strips any URL structure around the actual file name.
func baseName(name string) string {
	if u, err := url.Parse(name); err == nil && u.Path != "" {
		name = u.Path
	}
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return name
}
