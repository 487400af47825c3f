package dataflows

import (
	"context"

	"github.com/dyike/bestfour/internal/models"
)

// Fetcher retrieves one calendar month of daily rows for a code.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, year, month int, code string) (*models.MonthData, error)
}

// MonthStore persists complete months so that they are fetched only once.
type MonthStore interface {
	LoadMonth(ctx context.Context, source, code string, year, month int) (*models.MonthData, bool, error)
	SaveMonth(ctx context.Context, month *models.MonthData) error
}

// Router picks the fetcher serving a registry entry.
type Router interface {
	FetcherFor(info models.CodeInfo) Fetcher
}

// FallbackRouter is implemented by routers that know a second venue to try
// when the first fetcher returns no rows for a code outside the registry.
type FallbackRouter interface {
	FallbackFor(info models.CodeInfo) (Fetcher, bool)
}

// MarketRouter sends 上櫃 codes to TPEx and everything else, unknown codes
// included, to TWSE. Unknown codes that TWSE does not list fall back to TPEx.
type MarketRouter struct {
	TWSE Fetcher
	TPEX Fetcher
}

func (r MarketRouter) FetcherFor(info models.CodeInfo) Fetcher {
	if info.Market == models.MarketOTC && r.TPEX != nil {
		return r.TPEX
	}
	return r.TWSE
}

// FallbackFor offers TPEx for codes with no registered market.
func (r MarketRouter) FallbackFor(info models.CodeInfo) (Fetcher, bool) {
	if info.Market != "" || r.TPEX == nil {
		return nil, false
	}
	return r.TPEX, true
}
