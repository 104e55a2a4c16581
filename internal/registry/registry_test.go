package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownType(t *testing.T) {
	e, ok := Lookup("Malware")
	require.True(t, ok)
	assert.Equal(t, "malware", e.Icon)
	assert.Equal(t, "/static/images/leaflet/malware.svg", e.RawIcon)
	assert.Equal(t, 1, e.Level)

	assert.Equal(t, 2, Level("Report"))
	assert.Equal(t, "relationship", Icon("relationship"))
}

func TestUnknownTypeDefaults(t *testing.T) {
	_, ok := Lookup("Not-A-Type")
	assert.False(t, ok)
	assert.Empty(t, Icon("Not-A-Type"))
	assert.Empty(t, RawIcon("Not-A-Type"))
	assert.Equal(t, DefaultLevel, Level("Not-A-Type"))
	assert.Equal(t, DefaultLevel, Level(""))
}

func TestItemColor(t *testing.T) {
	assert.Equal(t, "#e91e63", ItemColor("Malware", false))
	assert.Equal(t, "#2196f3", ItemColor("Hardware", false))
	assert.Equal(t, FallbackColor, ItemColor("Not-A-Type", true))
	assert.Equal(t, UnknownColor, ItemColor("Not-A-Type", false))
	assert.Equal(t, UnknownColor, ItemColor("", false))
}

func TestEveryEntryHasIcon(t *testing.T) {
	for _, typ := range Types() {
		e, ok := Lookup(typ)
		require.True(t, ok, typ)
		assert.NotEmpty(t, e.Icon, typ)
		assert.GreaterOrEqual(t, e.Level, 1, typ)
	}
}
