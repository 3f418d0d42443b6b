package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "חלב תנובה 1 ליטר", want: "חלב תנובה", ok: true},
		{in: `קמח מלא 1 ק"ג`, want: "קמח מלא", ok: true},
		{in: `מיץ ענבים 750 מ"ל`, want: "מיץ ענבים", ok: true},
		{in: `סוכר לבן 1ק"ג`, want: "סוכר לבן", ok: true},
		{in: "שוקולד פרה 100גרם", want: "שוקולד פרה", ok: true},
		{in: "מים מינרליים 1.5ל", want: "מים מינרליים", ok: true},
		{in: "יוגורט תות x 8", want: "יוגורט תות", ok: true},
		{in: "יוגורט תות x8", want: "יוגורט תות", ok: true},
		{in: "קוטג' 5%", want: "קוטג", ok: true},
		{in: "גבינה צהובה (מבצע) 200 גר'", want: "גבינה צהובה", ok: true},
		{in: "טונה בשמן [מהדורה] 4 יח'", want: "טונה בשמן", ok: true},
		{in: "Coca Cola 1.5L", want: "coca cola", ok: true},
		{in: "Heinz Ketchup 500 ml", want: "heinz ketchup", ok: true},
		{in: "   מלפפון   חמוץ  ", want: "מלפפון חמוץ", ok: true},
		// numbers that are part of the name survive
		{in: "מאפין 7 דגנים", want: "מאפין 7 דגנים", ok: true},
		// nothing left after stripping means no key, not an empty key
		{in: "500 גרם", want: "", ok: false},
		{in: "(מבצע)", want: "", ok: false},
		{in: "", want: "", ok: false},
	}
	for _, tc := range testCases {
		got, ok := Normalize(tc.in)
		require.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"חלב תנובה 1 ליטר",
		"שוקולד פרה 100גרם",
		"יוגורט תות x 8",
		"אריזת חיסכון 3 x 500 מל",
		"גבינה צהובה (מבצע) 200 גר'",
		"Coca Cola 1.5L",
		"קוטג' 5%",
		"מאפין 7 דגנים",
	}
	for _, in := range inputs {
		once, ok1 := Normalize(in)
		if !ok1 {
			continue
		}
		twice, ok2 := Normalize(once)
		require.True(t, ok2, "input %q", in)
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", in)
	}
}
