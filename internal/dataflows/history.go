package dataflows

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dyike/bestfour/internal/models"
)

const (
	// Fetch31 looks back this far so that 31 trading days are covered.
	lookbackDays = 60
	recentDays   = 31
)

// Stock accumulates the daily history of one code.
type Stock struct {
	Code    string
	RawData []*models.MonthData
	Data    []models.DailyData

	fetcher Fetcher
	store   MonthStore
	now     func() time.Time
	logger  *zap.Logger
}

type StockOption func(*Stock)

// WithStore serves complete past months from store and saves new ones to it.
func WithStore(store MonthStore) StockOption {
	return func(s *Stock) { s.store = store }
}

func WithClock(now func() time.Time) StockOption {
	return func(s *Stock) { s.now = now }
}

func WithLogger(l *zap.Logger) StockOption {
	return func(s *Stock) { s.logger = loggerOrNop(l) }
}

func NewStock(code string, fetcher Fetcher, opts ...StockOption) *Stock {
	s := &Stock{
		Code:    code,
		fetcher: fetcher,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchFrom replaces the history with every month from year/month up to and
// including the current month.
func (s *Stock) FetchFrom(ctx context.Context, year, month int) ([]models.DailyData, error) {
	s.RawData = nil
	s.Data = nil

	today := s.now().In(taipei)
	for _, ym := range monthRange(year, month, today.Year(), int(today.Month())) {
		complete := ym.before(today.Year(), int(today.Month()))

		m, err := s.month(ctx, ym.year, ym.month, complete)
		if err != nil {
			return nil, err
		}
		s.RawData = append(s.RawData, m)
		s.Data = append(s.Data, m.Data...)
	}
	return s.Data, nil
}

// Fetch31 loads the most recent 31 trading days.
func (s *Stock) Fetch31(ctx context.Context) ([]models.DailyData, error) {
	before := s.now().In(taipei).AddDate(0, 0, -lookbackDays)
	if _, err := s.FetchFrom(ctx, before.Year(), int(before.Month())); err != nil {
		return nil, err
	}
	if len(s.Data) > recentDays {
		s.Data = s.Data[len(s.Data)-recentDays:]
	}
	return s.Data, nil
}

func (s *Stock) month(ctx context.Context, year, month int, complete bool) (*models.MonthData, error) {
	source := s.fetcher.Name()

	if complete && s.store != nil {
		cached, ok, err := s.store.LoadMonth(ctx, source, s.Code, year, month)
		switch {
		case err != nil:
			s.logger.Warn("month store read failed", zap.String("code", s.Code), zap.Error(err))
		case ok:
			s.logger.Debug("month served from store",
				zap.String("code", s.Code), zap.Int("year", year), zap.Int("month", month))
			return cached, nil
		}
	}

	m, err := s.fetcher.Fetch(ctx, year, month, s.Code)
	if err != nil {
		return nil, err
	}

	if complete && s.store != nil && len(m.Data) > 0 {
		if err := s.store.SaveMonth(ctx, m); err != nil {
			s.logger.Warn("month store write failed", zap.String("code", s.Code), zap.Error(err))
		}
	}
	return m, nil
}

// Price returns the closing prices, oldest first.
func (s *Stock) Price() []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, len(s.Data))
	for i, d := range s.Data {
		out[i] = d.Close
	}
	return out
}

// Open returns the opening prices, oldest first.
func (s *Stock) Open() []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, len(s.Data))
	for i, d := range s.Data {
		out[i] = d.Open
	}
	return out
}

// Capacity returns the traded share counts, oldest first.
func (s *Stock) Capacity() []int64 {
	out := make([]int64, len(s.Data))
	for i, d := range s.Data {
		out[i] = d.Capacity
	}
	return out
}

// LastPrice is the most recent close, if any.
func (s *Stock) LastPrice() (decimal.Decimal, bool) {
	if len(s.Data) == 0 {
		return decimal.Zero, false
	}
	last := s.Data[len(s.Data)-1].Close
	return last.Decimal, last.Valid
}

type yearMonth struct {
	year  int
	month int
}

func (ym yearMonth) before(year, month int) bool {
	return ym.year < year || (ym.year == year && ym.month < month)
}

// monthRange lists months from start to end inclusive.
func monthRange(startYear, startMonth, endYear, endMonth int) []yearMonth {
	var out []yearMonth
	ym := yearMonth{startYear, startMonth}
	end := yearMonth{endYear, endMonth}
	for !end.before(ym.year, ym.month) {
		out = append(out, ym)
		ym.month++
		if ym.month > 12 {
			ym.month = 1
			ym.year++
		}
	}
	return out
}
