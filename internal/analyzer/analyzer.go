// Package analyzer turns a stock code into a Best Four Point verdict.
package analyzer

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dyike/bestfour/internal/analytics"
	"github.com/dyike/bestfour/internal/dataflows"
	"github.com/dyike/bestfour/internal/models"
)

// Registry resolves codes to their listing.
type Registry interface {
	Lookup(code string) (models.CodeInfo, bool)
}

type Analyzer struct {
	registry Registry
	router   dataflows.Router
	store    dataflows.MonthStore
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*Analyzer)

func WithRegistry(r Registry) Option {
	return func(a *Analyzer) { a.registry = r }
}

// WithStore caches complete months in store.
func WithStore(store dataflows.MonthStore) Option {
	return func(a *Analyzer) { a.store = store }
}

func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

func New(router dataflows.Router, opts ...Option) *Analyzer {
	a := &Analyzer{
		router: router,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze never returns nil and never panics: every failure, including a
// panic in a fetcher, becomes a failed Result carrying the stack trace.
func (a *Analyzer) Analyze(ctx context.Context, code string) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("analysis panicked", zap.String("code", code), zap.Any("panic", r))
			res = Failure(fmt.Sprintf("%v %s", r, debug.Stack()))
		}
	}()

	out, err := a.analyze(ctx, code)
	if err != nil {
		a.logger.Warn("analysis failed", zap.String("code", code), zap.Error(err))
		return Failure(fmt.Sprintf("%v %+v", err, err))
	}
	return out
}

func (a *Analyzer) history(ctx context.Context, code string, fetcher dataflows.Fetcher) ([]models.DailyData, error) {
	opts := []dataflows.StockOption{
		dataflows.WithClock(a.now),
		dataflows.WithLogger(a.logger),
	}
	if a.store != nil {
		opts = append(opts, dataflows.WithStore(a.store))
	}
	return dataflows.NewStock(code, fetcher, opts...).Fetch31(ctx)
}

func (a *Analyzer) analyze(ctx context.Context, code string) (*Result, error) {
	info, known := models.CodeInfo{Code: code}, false
	if a.registry != nil {
		if found, ok := a.registry.Lookup(code); ok {
			info, known = found, true
		}
	}
	if !known {
		a.logger.Debug("code not in registry", zap.String("code", code))
	}

	name := code
	if known && info.Name != "" {
		name = info.Name
	}

	fetcher := a.router.FetcherFor(info)
	data, err := a.history(ctx, code, fetcher)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(data) == 0 && !known {
		if fr, ok := a.router.(dataflows.FallbackRouter); ok {
			if alt, ok := fr.FallbackFor(info); ok {
				a.logger.Debug("no rows from primary venue, trying fallback",
					zap.String("code", code),
					zap.String("primary", fetcher.Name()),
					zap.String("fallback", alt.Name()))
				fetcher = alt
				if data, err = a.history(ctx, code, fetcher); err != nil {
					return nil, errors.WithStack(err)
				}
			}
		}
	}
	a.logger.Debug("history fetched",
		zap.String("code", code),
		zap.String("source", fetcher.Name()),
		zap.Int("samples", len(data)))

	bfp, err := analytics.NewBestFourPoint(data)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	res := &Result{
		Success: true,
		Code:    code,
		Name:    name,
		Message: NoSignalMessage,
		Action:  ActionHold,
	}
	stock := &dataflows.Stock{Data: data}
	if last, ok := stock.LastPrice(); ok {
		price := last.InexactFloat64()
		res.Price = &price
	}

	if signal, ok := bfp.Evaluate(); ok {
		res.Message = signal.Reason
		res.Action = ActionSell
		if signal.Buy {
			res.Action = ActionBuy
		}
	}
	return res, nil
}
