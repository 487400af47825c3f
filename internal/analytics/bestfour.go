package analytics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dyike/bestfour/internal/models"
)

// MinSamples is the shortest history the rules can be evaluated on: the six
// day moving average needs six closes.
const MinSamples = 6

var (
	ErrInsufficientData = errors.New("insufficient history")
	ErrIncompleteData   = errors.New("history has missing prices")
)

// Reasons reported for each rule, in evaluation order.
const (
	BuyReason1  = "量大收紅"
	BuyReason2  = "量縮價不跌"
	BuyReason3  = "三日均價由下往上"
	BuyReason4  = "三日均價大於六日均價"
	SellReason1 = "量大收黑"
	SellReason2 = "量縮價跌"
	SellReason3 = "三日均價由上往下"
	SellReason4 = "三日均價小於六日均價"
)

// Signal is a Best Four Point verdict.
type Signal struct {
	Buy    bool
	Reason string
}

// BestFourPoint evaluates the four buy and four sell rules over a daily
// history ordered oldest first.
type BestFourPoint struct {
	price    []decimal.Decimal
	open     []decimal.Decimal
	capacity []int64

	ma3 []decimal.Decimal
	ma6 []decimal.Decimal
}

func NewBestFourPoint(data []models.DailyData) (*BestFourPoint, error) {
	if len(data) < MinSamples {
		return nil, fmt.Errorf("%w: %d samples, need %d", ErrInsufficientData, len(data), MinSamples)
	}

	b := &BestFourPoint{
		price:    make([]decimal.Decimal, len(data)),
		open:     make([]decimal.Decimal, len(data)),
		capacity: make([]int64, len(data)),
	}
	for i, d := range data {
		if !d.Close.Valid {
			return nil, fmt.Errorf("%w: close on %s", ErrIncompleteData, d.Date.Format("2006-01-02"))
		}
		// Only the last two opens are read by the rules.
		if !d.Open.Valid && i >= len(data)-2 {
			return nil, fmt.Errorf("%w: open on %s", ErrIncompleteData, d.Date.Format("2006-01-02"))
		}
		b.price[i] = d.Close.Decimal
		b.open[i] = d.Open.Decimal
		b.capacity[i] = d.Capacity
	}
	b.ma3 = MovingAverage(b.price, 3)
	b.ma6 = MovingAverage(b.price, 6)
	return b, nil
}

func last[T any](s []T, back int) T {
	return s[len(s)-back]
}

func (b *BestFourPoint) biasRatio(position bool) bool {
	pivot, err := MABiasRatioPivot(MABiasRatio(b.price, 3, 6), DefaultPivotSample, position)
	return err == nil && pivot.Hit
}

// PlusBiasRatio reports a recent peak of MA3 over MA6. It is informational
// and does not gate Evaluate.
func (b *BestFourPoint) PlusBiasRatio() bool { return b.biasRatio(true) }

// MinusBiasRatio reports a recent trough of MA3 under MA6.
func (b *BestFourPoint) MinusBiasRatio() bool { return b.biasRatio(false) }

// BestBuy1 量大收紅: volume up and the close above today's open.
func (b *BestFourPoint) BestBuy1() bool {
	return last(b.capacity, 1) > last(b.capacity, 2) &&
		last(b.price, 1).GreaterThan(last(b.open, 1))
}

// BestBuy2 量縮價不跌: volume down and the close above yesterday's open.
func (b *BestFourPoint) BestBuy2() bool {
	return last(b.capacity, 1) < last(b.capacity, 2) &&
		last(b.price, 1).GreaterThan(last(b.open, 2))
}

// BestBuy3 三日均價由下往上: MA3 turned up today.
func (b *BestFourPoint) BestBuy3() bool {
	return Continuous(b.ma3) == 1
}

// BestBuy4 三日均價大於六日均價.
func (b *BestFourPoint) BestBuy4() bool {
	return last(b.ma3, 1).GreaterThan(last(b.ma6, 1))
}

// BestSell1 量大收黑: volume up and the close below today's open.
func (b *BestFourPoint) BestSell1() bool {
	return last(b.capacity, 1) > last(b.capacity, 2) &&
		last(b.price, 1).LessThan(last(b.open, 1))
}

// BestSell2 量縮價跌: volume down and the close below yesterday's open.
func (b *BestFourPoint) BestSell2() bool {
	return last(b.capacity, 1) < last(b.capacity, 2) &&
		last(b.price, 1).LessThan(last(b.open, 2))
}

// BestSell3 三日均價由上往下: MA3 turned down today.
func (b *BestFourPoint) BestSell3() bool {
	return Continuous(b.ma3) == -1
}

// BestSell4 三日均價小於六日均價.
func (b *BestFourPoint) BestSell4() bool {
	return last(b.ma3, 1).LessThan(last(b.ma6, 1))
}

type rule struct {
	holds  func() bool
	reason string
}

func reasons(rules []rule) string {
	var out []string
	for _, r := range rules {
		if r.holds() {
			out = append(out, r.reason)
		}
	}
	return strings.Join(out, ", ")
}

// ToBuy returns the joined reasons of every buy rule that holds, or "" when
// none does.
func (b *BestFourPoint) ToBuy() string {
	return reasons([]rule{
		{b.BestBuy1, BuyReason1},
		{b.BestBuy2, BuyReason2},
		{b.BestBuy3, BuyReason3},
		{b.BestBuy4, BuyReason4},
	})
}

// ToSell returns the joined reasons of every sell rule that holds, or "" when
// none does.
func (b *BestFourPoint) ToSell() string {
	return reasons([]rule{
		{b.BestSell1, SellReason1},
		{b.BestSell2, SellReason2},
		{b.BestSell3, SellReason3},
		{b.BestSell4, SellReason4},
	})
}

// Evaluate returns the buy signal when any buy rule holds, else the sell
// signal when any sell rule holds, and false when no rule holds.
func (b *BestFourPoint) Evaluate() (Signal, bool) {
	if reason := b.ToBuy(); reason != "" {
		return Signal{Buy: true, Reason: reason}, true
	}
	if reason := b.ToSell(); reason != "" {
		return Signal{Buy: false, Reason: reason}, true
	}
	return Signal{}, false
}
