package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	for _, d := range []string{"hunza", "skardu", "murree"} {
		hotels, ok := c.Hotels(d)
		require.True(t, ok, d)
		assert.Len(t, hotels, 2, d)
	}
	assert.Len(t, c.Foods("skardu"), 3)
	assert.Len(t, c.Attractions("skardu"), 4)
	assert.Empty(t, c.Foods("murree"))
}

func TestParseCatalog_NormalisesKeys(t *testing.T) {
	c, err := ParseCatalog([]byte(`
" Fairy Meadows ":
  attractions: [Nanga Parbat viewpoint]
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Nanga Parbat viewpoint"}, c.Attractions("fairy meadows"))
	_, ok := c.Hotels("fairy meadows")
	assert.False(t, ok)
}

func TestParseCatalog_Duplicate(t *testing.T) {
	_, err := ParseCatalog([]byte("Hunza: {}\nhunza: {}\n"))

	assert.Error(t, err)
}

func TestParseCatalog_Malformed(t *testing.T) {
	_, err := ParseCatalog([]byte("hunza: [not, a, map"))

	assert.Error(t, err)
}
