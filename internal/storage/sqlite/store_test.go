package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/bestfour/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "prices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleMonth() *models.MonthData {
	return &models.MonthData{
		Code:   "2330",
		Year:   2024,
		Month:  9,
		Source: "twse",
		Stat:   "OK",
		Data: []models.DailyData{
			{
				Date:        time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC),
				Capacity:    25000000,
				Turnover:    23750000000,
				Open:        decimal.NewNullDecimal(decimal.RequireFromString("944.00")),
				High:        decimal.NewNullDecimal(decimal.RequireFromString("955.00")),
				Low:         decimal.NewNullDecimal(decimal.RequireFromString("940.00")),
				Close:       decimal.NewNullDecimal(decimal.RequireFromString("950.50")),
				Change:      decimal.RequireFromString("6.50"),
				Transaction: 30000,
			},
			{
				Date:     time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC),
				Capacity: 0,
				Change:   decimal.Zero,
			},
		},
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestLoadMonthMissing(t *testing.T) {
	s := openTestStore(t)

	m, ok, err := s.LoadMonth(context.Background(), "twse", "2330", 2024, 9)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestSaveThenLoadMonth(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	want := sampleMonth()

	require.NoError(t, s.SaveMonth(ctx, want))

	got, ok, err := s.LoadMonth(ctx, "twse", "2330", 2024, 9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "OK", got.Stat)
	require.Len(t, got.Data, 2)

	first := got.Data[0]
	assert.Equal(t, want.Data[0].Date, first.Date)
	assert.Equal(t, int64(23750000000), first.Turnover)
	assert.True(t, first.Close.Valid)
	assert.True(t, first.Close.Decimal.Equal(decimal.RequireFromString("950.5")))
	assert.True(t, first.Change.Equal(decimal.RequireFromString("6.5")))

	assert.False(t, got.Data[1].Close.Valid, "missing prices stay null")
	assert.False(t, got.Data[1].Open.Valid)

	_, ok, err = s.LoadMonth(ctx, "yahoo", "2330", 2024, 9)
	require.NoError(t, err)
	assert.False(t, ok, "months are keyed by source")
}

func TestSaveMonthReplaces(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	m := sampleMonth()
	require.NoError(t, s.SaveMonth(ctx, m))

	m.Data = m.Data[:1]
	require.NoError(t, s.SaveMonth(ctx, m))

	got, ok, err := s.LoadMonth(ctx, "twse", "2330", 2024, 9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got.Data, 1)
}
