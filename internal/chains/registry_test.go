package chains

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	f := Factory(func(zerolog.Logger, json.RawMessage, Env) (Chain, error) { return nil, nil })
	Register("zzz-b", f)
	Register("zzz-a", f)

	got, ok := Get("zzz-a")
	require.True(t, ok)
	assert.NotNil(t, got)

	_, ok = Get("nope")
	assert.False(t, ok)

	names := Names()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "zzz-a")
	assert.Contains(t, names, "zzz-b")
}
