package dataflows

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dyike/bestfour/internal/models"
)

const (
	twseReportPath = "/rwd/zh/afterTrading/STOCK_DAY"
	twseStatOK     = "OK"
)

// TWSEFetcher reads monthly STOCK_DAY reports for listed (上市) securities.
type TWSEFetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
	retry   *RetryConfig
	adapter RowAdapter
	logger  *zap.Logger
}

// NewTWSEFetcher creates a TWSE client
func NewTWSEFetcher(opts ClientOptions) *TWSEFetcher {
	retry := DefaultRetryConfig()
	retry.MaxRetries = opts.Retries

	return &TWSEFetcher{
		client:  newRestyClient(opts),
		limiter: newLimiter(opts.Interval),
		retry:   retry,
		adapter: opts.Adapter,
		logger:  loggerOrNop(opts.Logger),
	}
}

type twseResponse struct {
	Stat   string          `json:"stat"`
	Date   string          `json:"date"`
	Title  string          `json:"title"`
	Fields []string        `json:"fields"`
	Data   [][]interface{} `json:"data"`
}

func (f *TWSEFetcher) Name() string { return "twse" }

// Fetch gets one month of daily rows. A response whose stat is not OK (for
// example an unknown code) yields an empty month rather than an error.
func (f *TWSEFetcher) Fetch(ctx context.Context, year, month int, code string) (*models.MonthData, error) {
	result := &models.MonthData{
		Code:   code,
		Year:   year,
		Month:  month,
		Source: f.Name(),
	}

	err := WithRetry(ctx, f.retry, func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}

		start := time.Now()
		resp, err := f.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"date":     fmt.Sprintf("%04d%02d01", year, month),
				"stockNo":  code,
				"response": "json",
			}).
			Get(twseReportPath)
		if err != nil {
			return fmt.Errorf("fetch twse %s %04d-%02d: %w", code, year, month, err)
		}
		f.logger.Debug("twse response",
			zap.String("code", code),
			zap.Int("year", year),
			zap.Int("month", month),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("elapsed", time.Since(start)))

		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("%w %d from twse", ErrHTTPStatus, resp.StatusCode())
		}

		var payload twseResponse
		if err := decodeJSON(resp.Body(), &payload); err != nil {
			return fmt.Errorf("decode twse response: %w", err)
		}

		result.Stat = payload.Stat
		if payload.Stat != twseStatOK {
			result.Data = []models.DailyData{}
			return nil
		}

		data, err := purify(payload.Data, f.adapter, 1)
		if err != nil {
			return fmt.Errorf("parse twse %s %04d-%02d: %w", code, year, month, err)
		}
		result.Data = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
