package dataflows

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dyike/bestfour/internal/models"
)

var (
	// ErrRowShape is returned when a row does not carry exactly the nine
	// daily fields after adaptation.
	ErrRowShape = errors.New("unexpected row shape")
	// ErrHTTPStatus is returned for non-200 exchange responses.
	ErrHTTPStatus = errors.New("unexpected http status")
)

// taipei is the exchange clock. A fixed zone avoids depending on tzdata.
var taipei = time.FixedZone("CST", 8*60*60)

// ClientOptions configures the HTTP side of an exchange fetcher.
type ClientOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// Interval is the minimum spacing between two requests. Zero disables pacing.
	Interval time.Duration
	Retries  int
	// Adapter reshapes raw rows before parsing. Nil parses rows as received.
	Adapter RowAdapter
	Logger  *zap.Logger
}

func newRestyClient(opts ClientOptions) *resty.Client {
	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	client.SetHeader("Accept", "application/json, text/plain, */*")
	return client
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryConfig performs a single attempt. Callers opt into retries.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 0,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}
}

// WithRetry executes a function with exponential backoff retry
func WithRetry(ctx context.Context, config *RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(config.BaseDelay) *
				pow(config.Multiplier, float64(attempt-1)))
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}

		return nil
	}

	if config.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// pow is a simple power function for floats
func pow(base, exp float64) float64 {
	result := 1.0
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	return result
}

// decodeJSON unmarshals body keeping numbers as json.Number so that cells
// can be handled uniformly as strings.
func decodeJSON(body []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

func cellsToStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		switch v := cell.(type) {
		case nil:
			out[i] = ""
		case string:
			out[i] = v
		case json.Number:
			out[i] = v.String()
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

// convertROCDate turns a Minguo date such as "113/01/02" into 2024-01-02.
func convertROCDate(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "＊", ""))
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("parse roc date %q: want yyy/mm/dd", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, fmt.Errorf("parse roc date %q: %w", s, err)
		}
		nums[i] = n
	}
	return time.Date(nums[0]+1911, time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.UTC), nil
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse integer %q: %w", s, err)
	}
	return n, nil
}

func parsePrice(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "--" || s == "---" || s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse price %q: %w", s, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// parseChange handles the exchange's signed change column. A leading "X"
// marks a day without a comparable reference price.
func parseChange(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimPrefix(s, "X")
	s = strings.TrimPrefix(s, "+")
	if s == "" || s == "--" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse change %q: %w", s, err)
	}
	return d, nil
}

// parseDailyRow parses one nine-field row. unit scales capacity and turnover
// for exchanges that report them in thousands.
func parseDailyRow(row []string, unit int64) (models.DailyData, error) {
	if len(row) != models.DailyFieldCount {
		return models.DailyData{}, fmt.Errorf("%w: got %d fields, want %d",
			ErrRowShape, len(row), models.DailyFieldCount)
	}

	var (
		d   models.DailyData
		err error
	)
	if d.Date, err = convertROCDate(row[0]); err != nil {
		return d, err
	}
	if d.Capacity, err = parseInt(row[1]); err != nil {
		return d, err
	}
	if d.Turnover, err = parseInt(row[2]); err != nil {
		return d, err
	}
	d.Capacity *= unit
	d.Turnover *= unit
	if d.Open, err = parsePrice(row[3]); err != nil {
		return d, err
	}
	if d.High, err = parsePrice(row[4]); err != nil {
		return d, err
	}
	if d.Low, err = parsePrice(row[5]); err != nil {
		return d, err
	}
	if d.Close, err = parsePrice(row[6]); err != nil {
		return d, err
	}
	if d.Change, err = parseChange(row[7]); err != nil {
		return d, err
	}
	if d.Transaction, err = parseInt(row[8]); err != nil {
		return d, err
	}
	return d, nil
}

// purify adapts and parses every raw row of a month.
func purify(raw [][]interface{}, adapter RowAdapter, unit int64) ([]models.DailyData, error) {
	out := make([]models.DailyData, 0, len(raw))
	for i, cells := range raw {
		row := cellsToStrings(cells)
		if adapter != nil {
			row = adapter(row)
		}
		d, err := parseDailyRow(row, unit)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}
