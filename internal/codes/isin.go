package codes

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"

	"github.com/dyike/bestfour/internal/models"
)

const isinPath = "/isin/C_public.jsp"

// ISIN listing modes.
const (
	ModeListed = "2"
	ModeOTC    = "4"
)

// ISINClient scrapes the exchange ISIN listing pages.
type ISINClient struct {
	client *resty.Client
	logger *zap.Logger
}

func NewISINClient(baseURL, userAgent string, timeout time.Duration, logger *zap.Logger) *ISINClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ISINClient{client: client, logger: logger}
}

// FetchAll downloads the listed and OTC pages.
func (c *ISINClient) FetchAll(ctx context.Context) ([]models.CodeInfo, error) {
	var all []models.CodeInfo
	for _, mode := range []string{ModeListed, ModeOTC} {
		entries, err := c.Fetch(ctx, mode)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

// Fetch downloads one listing page.
func (c *ISINClient) Fetch(ctx context.Context, mode string) ([]models.CodeInfo, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("strMode", mode).
		SetDoNotParseResponse(true).
		Get(isinPath)
	if err != nil {
		return nil, fmt.Errorf("fetch isin page %s: %w", mode, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch isin page %s: status %d", mode, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(transform.NewReader(body, traditionalchinese.Big5.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	entries := parseISINTable(doc)
	c.logger.Info("isin page parsed", zap.String("mode", mode), zap.Int("entries", len(entries)))
	return entries, nil
}

// parseISINTable reads the listing table. Single-cell rows are section
// headings that name the security type of the rows below them.
func parseISINTable(doc *goquery.Document) []models.CodeInfo {
	var (
		entries []models.CodeInfo
		kind    string
	)
	doc.Find("table.h4 tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() == 1 {
			kind = strings.TrimSpace(cells.Text())
			return
		}
		if cells.Length() < 6 {
			return
		}

		text := make([]string, cells.Length())
		cells.Each(func(j int, cell *goquery.Selection) {
			text[j] = strings.TrimSpace(cell.Text())
		})

		code, name, ok := strings.Cut(text[0], "　")
		if !ok {
			return
		}
		info := models.CodeInfo{
			Type:   kind,
			Code:   strings.TrimSpace(code),
			Name:   strings.TrimSpace(name),
			ISIN:   text[1],
			Start:  text[2],
			Market: text[3],
			Group:  text[4],
			CFI:    text[5],
		}
		entries = append(entries, info)
	})
	return entries
}
