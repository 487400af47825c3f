package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/bestfour/internal/models"
)

func history(closes, opens string, capacity []int64) []models.DailyData {
	c := decimals(closes)
	o := decimals(opens)
	out := make([]models.DailyData, len(c))
	day := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	for i := range c {
		out[i] = models.DailyData{
			Date:     day.AddDate(0, 0, i),
			Capacity: capacity[i],
			Open:     decimal.NewNullDecimal(o[i]),
			Close:    decimal.NewNullDecimal(c[i]),
		}
	}
	return out
}

func volumes(n int, last int64) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = 10
	}
	out[n-1] = last
	return out
}

func TestBestFourPointBuy(t *testing.T) {
	data := history(
		"100 100 100 100 100 100 99 97 94 93 94",
		"100 100 100 100 100 100 100 99 97 94 92",
		volumes(11, 20),
	)
	b, err := NewBestFourPoint(data)
	require.NoError(t, err)

	assert.True(t, b.MinusBiasRatio())
	assert.True(t, b.BestBuy1())
	assert.False(t, b.BestBuy2())
	assert.False(t, b.BestBuy3())
	assert.False(t, b.BestBuy4())

	signal, ok := b.Evaluate()
	require.True(t, ok)
	assert.True(t, signal.Buy)
	assert.Equal(t, BuyReason1, signal.Reason)
}

func TestBestFourPointSell(t *testing.T) {
	data := history(
		"110 109 108 107 106 105 104 103 102 101 100",
		"111 110 109 108 107 106 105 104 103 102 101",
		volumes(11, 20),
	)
	b, err := NewBestFourPoint(data)
	require.NoError(t, err)

	assert.Empty(t, b.ToBuy())
	assert.False(t, b.PlusBiasRatio(), "a steady slide has no bias peak")

	signal, ok := b.Evaluate()
	require.True(t, ok)
	assert.False(t, signal.Buy)
	assert.Equal(t, "量大收黑, 三日均價小於六日均價", signal.Reason)
}

func TestBestFourPointSteadyTrendsSignal(t *testing.T) {
	t.Run("uptrend buys", func(t *testing.T) {
		data := history(
			"100 101 102 103 104 105 106 107 108 109 110",
			"99 100 101 102 103 104 105 106 107 108 109",
			volumes(11, 20),
		)
		b, err := NewBestFourPoint(data)
		require.NoError(t, err)

		assert.False(t, b.MinusBiasRatio())
		assert.False(t, b.PlusBiasRatio())

		signal, ok := b.Evaluate()
		require.True(t, ok)
		assert.True(t, signal.Buy)
		assert.Equal(t, "量大收紅, 三日均價大於六日均價", signal.Reason)
	})

	t.Run("buy wins when both sides hold", func(t *testing.T) {
		data := history(
			"100 100 100 100 100 100 101 103 106 107 106",
			"100 100 100 100 100 100 100 101 103 106 108",
			volumes(11, 20),
		)
		b, err := NewBestFourPoint(data)
		require.NoError(t, err)

		assert.True(t, b.BestSell1())
		assert.True(t, b.BestBuy4())

		signal, ok := b.Evaluate()
		require.True(t, ok)
		assert.True(t, signal.Buy)
		assert.Equal(t, BuyReason4, signal.Reason)
	})
}

func TestReasonsJoinedInRuleOrder(t *testing.T) {
	got := reasons([]rule{
		{func() bool { return true }, BuyReason1},
		{func() bool { return false }, BuyReason2},
		{func() bool { return true }, BuyReason4},
	})
	assert.Equal(t, "量大收紅, 三日均價大於六日均價", got)
}

func TestBestFourPointFlatIsNoSignal(t *testing.T) {
	data := history(
		"100 100 100 100 100 100 100 100",
		"100 100 100 100 100 100 100 100",
		volumes(8, 10),
	)
	b, err := NewBestFourPoint(data)
	require.NoError(t, err)

	_, ok := b.Evaluate()
	assert.False(t, ok)
}

func TestNewBestFourPointValidatesHistory(t *testing.T) {
	_, err := NewBestFourPoint(history("1 2 3", "1 2 3", volumes(3, 1)))
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = NewBestFourPoint(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	data := history("1 2 3 4 5 6 7", "1 2 3 4 5 6 7", volumes(7, 1))
	data[3].Close = decimal.NullDecimal{}
	_, err = NewBestFourPoint(data)
	assert.ErrorIs(t, err, ErrIncompleteData)

	data = history("1 2 3 4 5 6 7", "1 2 3 4 5 6 7", volumes(7, 1))
	data[0].Open = decimal.NullDecimal{}
	_, err = NewBestFourPoint(data)
	assert.NoError(t, err, "only the last two opens are required")

	data[6].Open = decimal.NullDecimal{}
	_, err = NewBestFourPoint(data)
	assert.ErrorIs(t, err, ErrIncompleteData)
}
