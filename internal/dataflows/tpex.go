package dataflows

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dyike/bestfour/internal/models"
)

const (
	tpexReportPath = "/www/zh-tw/afterTrading/tradingStock"
	// TPEx reports volume in lots and turnover in thousands of NT$.
	tpexUnit = 1000
)

// TPEXFetcher reads monthly trading info for OTC (上櫃) securities.
type TPEXFetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
	retry   *RetryConfig
	adapter RowAdapter
	logger  *zap.Logger
}

func NewTPEXFetcher(opts ClientOptions) *TPEXFetcher {
	retry := DefaultRetryConfig()
	retry.MaxRetries = opts.Retries

	return &TPEXFetcher{
		client:  newRestyClient(opts),
		limiter: newLimiter(opts.Interval),
		retry:   retry,
		adapter: opts.Adapter,
		logger:  loggerOrNop(opts.Logger),
	}
}

type tpexTable struct {
	Title  string          `json:"title"`
	Fields []string        `json:"fields"`
	Data   [][]interface{} `json:"data"`
}

type tpexResponse struct {
	Stat   string      `json:"stat"`
	Code   string      `json:"code"`
	Name   string      `json:"name"`
	Tables []tpexTable `json:"tables"`
	// Legacy st43_result.php layout.
	AAData [][]interface{} `json:"aaData"`
}

func (r *tpexResponse) rows() [][]interface{} {
	if len(r.Tables) > 0 {
		return r.Tables[0].Data
	}
	return r.AAData
}

func (f *TPEXFetcher) Name() string { return "tpex" }

func (f *TPEXFetcher) Fetch(ctx context.Context, year, month int, code string) (*models.MonthData, error) {
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

		resp, err := f.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"code":     code,
				"date":     fmt.Sprintf("%04d/%02d/01", year, month),
				"response": "json",
			}).
			Get(tpexReportPath)
		if err != nil {
			return fmt.Errorf("fetch tpex %s %04d-%02d: %w", code, year, month, err)
		}
		f.logger.Debug("tpex response",
			zap.String("code", code),
			zap.Int("year", year),
			zap.Int("month", month),
			zap.Int("status", resp.StatusCode()))

		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("%w %d from tpex", ErrHTTPStatus, resp.StatusCode())
		}

		var payload tpexResponse
		if err := decodeJSON(resp.Body(), &payload); err != nil {
			return fmt.Errorf("decode tpex response: %w", err)
		}

		result.Stat = payload.Stat
		if payload.Stat != "" && !strings.EqualFold(payload.Stat, "ok") {
			result.Data = []models.DailyData{}
			return nil
		}

		data, err := purify(payload.rows(), f.adapter, tpexUnit)
		if err != nil {
			return fmt.Errorf("parse tpex %s %04d-%02d: %w", code, year, month, err)
		}
		result.Data = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
