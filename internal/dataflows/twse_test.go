package dataflows

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// STOCK_DAY rows as currently served: eleven columns, two more than the
// parser expects.
const twseElevenColumns = `{
  "stat": "OK",
  "date": "20241001",
  "title": "113年10月 2330 台積電 各日成交資訊",
  "fields": ["日期","成交股數","成交金額","開盤價","最高價","最低價","收盤價","漲跌價差","成交筆數","註記","其他"],
  "data": [
    ["113/10/01","30,123,456","29,512,345,678","980.00","985.00","972.00","983.00","+8.00","45,321","",""],
    ["113/10/02","25,000,000","24,600,000,000","983.00","990.00","980.00","985.00","+2.00","40,000","",""]
  ]
}`

func newTWSETestServer(t *testing.T, body string, status int) (*httptest.Server, *url.URL) {
	t.Helper()
	var seen url.URL
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = *r.URL
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestTWSEFetcherTrimsWideRows(t *testing.T) {
	srv, seen := newTWSETestServer(t, twseElevenColumns, http.StatusOK)

	f := NewTWSEFetcher(ClientOptions{BaseURL: srv.URL, Adapter: DefaultRowAdapter()})
	month, err := f.Fetch(context.Background(), 2024, 10, "2330")
	require.NoError(t, err)

	assert.Equal(t, twseReportPath, seen.Path)
	assert.Equal(t, "20241001", seen.Query().Get("date"))
	assert.Equal(t, "2330", seen.Query().Get("stockNo"))

	require.Len(t, month.Data, 2)
	assert.Equal(t, "twse", month.Source)
	assert.Equal(t, int64(30123456), month.Data[0].Capacity)
	assert.Equal(t, "985", month.Data[1].Close.Decimal.String())
}

func TestTWSEFetcherWithoutAdapterRejectsWideRows(t *testing.T) {
	srv, _ := newTWSETestServer(t, twseElevenColumns, http.StatusOK)

	f := NewTWSEFetcher(ClientOptions{BaseURL: srv.URL})
	_, err := f.Fetch(context.Background(), 2024, 10, "2330")
	assert.ErrorIs(t, err, ErrRowShape)
}

func TestTWSEFetcherNoDataIsEmptyMonth(t *testing.T) {
	srv, _ := newTWSETestServer(t, `{"stat":"很抱歉，沒有符合條件的資料!"}`, http.StatusOK)

	f := NewTWSEFetcher(ClientOptions{BaseURL: srv.URL, Adapter: DefaultRowAdapter()})
	month, err := f.Fetch(context.Background(), 2024, 10, "9999")
	require.NoError(t, err)
	assert.Empty(t, month.Data)
}

func TestTWSEFetcherHTTPError(t *testing.T) {
	srv, _ := newTWSETestServer(t, `busy`, http.StatusServiceUnavailable)

	f := NewTWSEFetcher(ClientOptions{BaseURL: srv.URL, Adapter: DefaultRowAdapter()})
	_, err := f.Fetch(context.Background(), 2024, 10, "2330")
	assert.ErrorIs(t, err, ErrHTTPStatus)
}
