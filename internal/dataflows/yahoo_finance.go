package dataflows

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dyike/bestfour/internal/models"
)

// Yahoo symbol suffixes for Taiwan markets.
const (
	yahooListedSuffix = ".TW"
	yahooOTCSuffix    = ".TWO"
)

// BarSource yields daily bars for a symbol. It is satisfied by the
// finance-go chart endpoint and replaced in tests.
type BarSource func(symbol string, start, end time.Time) ([]Bar, error)

// Bar is one daily OHLCV bar.
type Bar struct {
	Timestamp int64
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    int64
}

// YahooFinanceClient serves monthly rows from Yahoo Finance daily bars. The
// turnover and transaction columns are not available there and stay zero.
type YahooFinanceClient struct {
	suffix string
	bars   BarSource
	logger *zap.Logger
}

// NewYahooFinanceClient creates a Yahoo client for one market suffix.
func NewYahooFinanceClient(suffix string, logger *zap.Logger) *YahooFinanceClient {
	return &YahooFinanceClient{
		suffix: suffix,
		bars:   chartBars,
		logger: loggerOrNop(logger),
	}
}

func (yf *YahooFinanceClient) Name() string { return "yahoo" }

func (yf *YahooFinanceClient) Fetch(ctx context.Context, year, month int, code string) (*models.MonthData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	symbol := code + yf.suffix
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, taipei)
	end := start.AddDate(0, 1, 0)

	bars, err := yf.bars(symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get historical data for %s: %w", symbol, err)
	}
	yf.logger.Debug("yahoo bars", zap.String("symbol", symbol), zap.Int("count", len(bars)))

	result := &models.MonthData{
		Code:   code,
		Year:   year,
		Month:  month,
		Source: yf.Name(),
		Stat:   "OK",
		Data:   make([]models.DailyData, 0, len(bars)),
	}

	var prevClose decimal.NullDecimal
	for _, bar := range bars {
		ts := time.Unix(bar.Timestamp, 0).In(taipei)
		day := models.DailyData{
			Date:     time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
			Capacity: bar.Volume,
			Open:     decimal.NewNullDecimal(bar.Open),
			High:     decimal.NewNullDecimal(bar.High),
			Low:      decimal.NewNullDecimal(bar.Low),
			Close:    decimal.NewNullDecimal(bar.Close),
		}
		if prevClose.Valid {
			day.Change = bar.Close.Sub(prevClose.Decimal)
		}
		prevClose = day.Close
		result.Data = append(result.Data, day)
	}
	return result, nil
}

func chartBars(symbol string, start, end time.Time) ([]Bar, error) {
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)

	var bars []Bar
	for iter.Next() {
		b := iter.Bar()
		bars = append(bars, Bar{
			Timestamp: int64(b.Timestamp),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

// YahooRouter picks the Yahoo suffix from the registry market.
type YahooRouter struct {
	Listed *YahooFinanceClient
	OTC    *YahooFinanceClient
}

func NewYahooRouter(logger *zap.Logger) YahooRouter {
	return YahooRouter{
		Listed: NewYahooFinanceClient(yahooListedSuffix, logger),
		OTC:    NewYahooFinanceClient(yahooOTCSuffix, logger),
	}
}

func (r YahooRouter) FetcherFor(info models.CodeInfo) Fetcher {
	if info.Market == models.MarketOTC {
		return r.OTC
	}
	return r.Listed
}

// FallbackFor retries unregistered codes with the .TWO suffix.
func (r YahooRouter) FallbackFor(info models.CodeInfo) (Fetcher, bool) {
	if info.Market != "" || r.OTC == nil {
		return nil, false
	}
	return r.OTC, true
}
