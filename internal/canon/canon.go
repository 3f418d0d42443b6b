// internal/canon/canon.go
//
// Canonical product keys: the same physical product shows up across chains as
// "חלב תנובה 3% 1 ליטר", "חלב תנובה 1 ל' 3%" or "(מבצע) חלב תנובה". Stripping
// quantity, multiplier, percentage and bracketed noise leaves a comparable key.
package canon

import (
	"regexp"
	"strings"
)

// unit vocabulary recognized after a numeric value. Tokens are compared after
// lowercasing and removing quote marks, so קג covers ק"ג and גר covers גר'.
var unitWords = map[string]bool{
	// weight
	"קג": true, "קילו": true, "קילוגרם": true, "גרם": true, "גר": true, "ג": true, "מג": true,
	"kg": true, "g": true, "gr": true, "gram": true, "grams": true, "mg": true,
	// volume
	"ליטר": true, "ליטרים": true, "ל": true, "מל": true,
	"l": true, "lt": true, "liter": true, "liters": true, "litre": true, "ml": true, "cl": true,
	// count
	"יח": true, "יחידות": true, "יחידה": true, "מארז": true,
	"unit": true, "units": true, "pc": true, "pcs": true, "pack": true,
}

var (
	bracketsRe   = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	numberRe     = regexp.MustCompile(`^\d+([.,]\d+)?$`)
	percentRe    = regexp.MustCompile(`^\d+([.,]\d+)?%$|^%\d+([.,]\d+)?$`)
	numberUnitRe = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)(\D+)$`)
	multNumRe    = regexp.MustCompile(`^[x×*]\d+$|^\d+[x×*]$`)
	trimCutset   = "'\"`׳״.,:;- \t"
)

// quote marks may sit inside a unit abbreviation (ק"ג, מ"ל), so trimming the
// token edges is not enough before the vocabulary lookup
var quoteStripper = strings.NewReplacer(`"`, "", "'", "", "`", "", "׳", "", "״", "")

// Normalize maps a raw product label to its canonical comparison key. It is
// deterministic and idempotent. ok is false when nothing of the label survives
// stripping; such products get no canonical key rather than an empty one.
func Normalize(label string) (string, bool) {
	s := strings.ToLower(label)
	// Stripping can create new quantity+unit adjacencies ("3 x 500 מל" loses
	// "x 500" and leaves "3 מל"), so run to a fixed point. Each pass only ever
	// removes tokens, so this terminates.
	for {
		next := stripOnce(s)
		if next == s {
			break
		}
		s = next
	}
	if s == "" {
		return "", false
	}
	return s, true
}

func stripOnce(s string) string {
	s = bracketsRe.ReplaceAllString(s, " ")

	fields := strings.Fields(s)
	kept := make([]string, 0, len(fields))
	skipNext := false
	for i, tok := range fields {
		if skipNext {
			skipNext = false
			continue
		}
		t := strings.Trim(tok, trimCutset)
		if t == "" {
			continue
		}
		if percentRe.MatchString(t) {
			continue
		}
		// "x3" / "3x", or a lone multiplier sign consuming the next number
		if multNumRe.MatchString(t) {
			continue
		}
		if t == "x" || t == "×" || t == "*" {
			if i+1 < len(fields) && numberRe.MatchString(strings.Trim(fields[i+1], trimCutset)) {
				skipNext = true
			}
			continue
		}
		// numeric token followed by a unit word ("500 גרם"). A bare number
		// with no unit is part of the name and stays.
		if numberRe.MatchString(t) && i+1 < len(fields) && isUnit(fields[i+1]) {
			skipNext = true
			continue
		}
		// value and unit glued together ("500גרם", "1.5ל")
		if m := numberUnitRe.FindStringSubmatch(t); m != nil && isUnit(m[2]) {
			continue
		}
		kept = append(kept, t)
	}
	return strings.Join(kept, " ")
}

func isUnit(tok string) bool {
	t := quoteStripper.Replace(strings.ToLower(tok))
	return unitWords[strings.Trim(t, trimCutset)]
}
