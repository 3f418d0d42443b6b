package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreIDFromName(t *testing.T) {
	testCases := []struct {
		name  string
		want  string
		match bool
	}{
		{name: "PriceFull7290803800003-009-202601140501.gz", want: "009", match: true},
		{name: "PriceFull7290696200003-050-012-20260114-050100.gz", want: "012", match: true},
		{name: "pricefull7290803800003-9-202601140501.gz", want: "009", match: true},
		{name: "PromoFull7290803800003-021-202601140501.gz", want: "021", match: true},
		{name: "FullPrice7290803800003-104-202601140501.gz", want: "104", match: true},
		{name: "Price7290027600007-001-2026011.gz", match: false},
		{name: "Stores7290803800003-202601140501.xml", match: false},
		{name: "readme.txt", match: false},
		{name: "", match: false},
	}
	for _, tc := range testCases {
		got, ok := StoreIDFromName(tc.name)
		assert.Equal(t, tc.match, ok, "input %q", tc.name)
		if tc.match {
			assert.Equal(t, tc.want, got, "input %q", tc.name)
			assert.Len(t, got, StoreIDWidth, "input %q", tc.name)
		}
	}
}

func TestStoreIDFromURL(t *testing.T) {
	got, ok := StoreIDFromName("https://prices.example.co.il/20260114/PriceFull7290803800003-009-202601140501.gz?d=1&v=2")
	require.True(t, ok)
	assert.Equal(t, "009", got)
}

func TestResolveStoreIDOrder(t *testing.T) {
	// declared filename wins over the URLs that follow it
	got, ok := ResolveStoreID(
		"PriceFull7290803800003-007-202601140501.gz",
		"https://cdn.example.com/PriceFull7290803800003-008-202601140501.gz",
		"https://www.example.com/download?id=42",
	)
	require.True(t, ok)
	assert.Equal(t, "007", got)

	// empty candidates are passed over, not treated as failures
	got, ok = ResolveStoreID("", "https://cdn.example.com/PriceFull7290803800003-008-202601140501.gz")
	require.True(t, ok)
	assert.Equal(t, "008", got)

	_, ok = ResolveStoreID("", "https://www.example.com/download?id=42", "login.html")
	assert.False(t, ok, "unrecognized names must never yield a guessed id")
}

func TestPadStoreID(t *testing.T) {
	assert.Equal(t, "009", PadStoreID("9"))
	assert.Equal(t, "009", PadStoreID("009"))
	assert.Equal(t, "012", PadStoreID("0012"))
	assert.Equal(t, "1024", PadStoreID("1024"))
	assert.Equal(t, "000", PadStoreID("0"))
}

func TestIsCatalogFile(t *testing.T) {
	assert.True(t, IsCatalogFile("PriceFull7290803800003-009-202601140501.gz"))
	assert.True(t, IsCatalogFile("pricefull7290803800003-009-202601140501.gz"))
	assert.False(t, IsCatalogFile("PromoFull7290803800003-009-202601140501.gz"))
	assert.False(t, IsCatalogFile("Stores7290803800003-202601140501.xml"))
}
