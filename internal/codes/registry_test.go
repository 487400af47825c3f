package codes

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/bestfour/internal/models"
)

func TestSeedRegistry(t *testing.T) {
	r, err := Seed()
	require.NoError(t, err)
	assert.Greater(t, r.Len(), 30)

	tsmc, ok := r.Lookup("2330")
	require.True(t, ok)
	assert.Equal(t, "台積電", tsmc.Name)
	assert.Equal(t, models.MarketListed, tsmc.Market)

	otc, ok := r.Lookup(" 6488 ")
	require.True(t, ok)
	assert.Equal(t, models.MarketOTC, otc.Market)

	_, ok = r.Lookup("9999")
	assert.False(t, ok)
}

func TestLoadCSVRejectsShortRows(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("type,code,name,ISIN,start,market,group,CFI\n股票,2330,台積電\n"))
	assert.Error(t, err)
}

func TestRegistryKeepsFirstDuplicate(t *testing.T) {
	r := NewRegistry([]models.CodeInfo{
		{Code: "2330", Name: "first"},
		{Code: "1101", Name: "台泥"},
		{Code: "2330", Name: "second"},
	})
	assert.Equal(t, 2, r.Len())
	info, _ := r.Lookup("2330")
	assert.Equal(t, "first", info.Name)
	assert.Equal(t, "1101", r.All()[0].Code, "entries are ordered by code")
}

func TestSaveThenOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "codes.csv")
	entries := []models.CodeInfo{
		{Type: "股票", Code: "2330", Name: "台積電", ISIN: "TW0002330008", Start: "1994/09/05", Market: models.MarketListed, Group: "半導體業", CFI: "ESVUFR"},
	}
	require.NoError(t, Save(path, entries))

	r, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
	info, ok := r.Lookup("2330")
	require.True(t, ok)
	assert.Equal(t, entries[0], info)

	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, files, 1, "no temp files left behind")
}

func TestOpenFallsBackToSeed(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)
	_, ok := r.Lookup("0050")
	assert.True(t, ok)
}

func TestWriteCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "type,code,name,ISIN,start,market,group,CFI\n", buf.String())
}
