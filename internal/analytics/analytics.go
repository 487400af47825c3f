// Package analytics implements moving-average indicators and the Best Four
// Point buy/sell rules over a short daily history.
package analytics

import (
	"errors"

	"github.com/shopspring/decimal"
)

// DefaultPivotSample is the window inspected by MABiasRatioPivot.
const DefaultPivotSample = 5

var errEmptySeries = errors.New("empty series")

// MovingAverage calculates the simple moving average of every trailing
// window of days values, rounded to two decimals and ordered oldest first.
// It is empty when data is shorter than days.
func MovingAverage(data []decimal.Decimal, days int) []decimal.Decimal {
	if days <= 0 || len(data) < days {
		return []decimal.Decimal{}
	}

	divisor := decimal.NewFromInt(int64(days))
	result := make([]decimal.Decimal, 0, len(data)-days+1)
	for i := days - 1; i < len(data); i++ {
		sum := decimal.Zero
		for j := i - days + 1; j <= i; j++ {
			sum = sum.Add(data[j])
		}
		result = append(result, sum.Div(divisor).RoundBank(2))
	}
	return result
}

// Continuous returns the length of the latest run of rising (positive) or
// non-rising (negative) steps. Fewer than two values yield zero.
func Continuous(data []decimal.Decimal) int {
	if len(data) < 2 {
		return 0
	}

	direction := func(i int) int {
		if data[i].GreaterThan(data[i-1]) {
			return 1
		}
		return -1
	}

	last := direction(len(data) - 1)
	run := 0
	for i := len(data) - 1; i > 0; i-- {
		if direction(i) != last {
			break
		}
		run++
	}
	return run * last
}

// MABiasRatio returns MA(day1) - MA(day2) aligned at the most recent value.
func MABiasRatio(price []decimal.Decimal, day1, day2 int) []decimal.Decimal {
	ma1 := MovingAverage(price, day1)
	ma2 := MovingAverage(price, day2)

	n := min(len(ma1), len(ma2))
	result := make([]decimal.Decimal, n)
	for i := 1; i <= n; i++ {
		result[n-i] = ma1[len(ma1)-i].Sub(ma2[len(ma2)-i])
	}
	return result
}

// Pivot describes the extreme of the recent bias ratio window.
type Pivot struct {
	// Hit reports a turning point: the extreme is recent but not the latest
	// value, and the window sits on the expected side of zero.
	Hit bool
	// Offset counts values after the extreme within the window.
	Offset int
	Value  decimal.Decimal
}

// MABiasRatioPivot inspects the last sampleSize values of data. With
// position set it looks for a peak above zero, otherwise for a trough in a
// window entirely below zero.
func MABiasRatioPivot(data []decimal.Decimal, sampleSize int, position bool) (Pivot, error) {
	if len(data) == 0 || sampleSize <= 0 {
		return Pivot{}, errEmptySeries
	}

	sample := data
	if len(sample) > sampleSize {
		sample = sample[len(sample)-sampleSize:]
	}

	maxIdx, minIdx := 0, 0
	for i, v := range sample {
		if v.GreaterThan(sample[maxIdx]) {
			maxIdx = i
		}
		if v.LessThan(sample[minIdx]) {
			minIdx = i
		}
	}
	maxValue := sample[maxIdx]

	idx, side := minIdx, maxValue.IsNegative()
	if position {
		idx, side = maxIdx, maxValue.IsPositive()
	}

	return Pivot{
		Hit:    sampleSize-idx < 4 && idx != sampleSize-1 && side,
		Offset: sampleSize - idx - 1,
		Value:  sample[idx],
	}, nil
}
