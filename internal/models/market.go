package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyFieldCount is the number of fields in one daily trading row.
const DailyFieldCount = 9

// DailyData is one trading day for a single security. Prices are null when
// the exchange reports "--" (no trade).
type DailyData struct {
	Date        time.Time           `json:"date"`
	Capacity    int64               `json:"capacity"`
	Turnover    int64               `json:"turnover"`
	Open        decimal.NullDecimal `json:"open"`
	High        decimal.NullDecimal `json:"high"`
	Low         decimal.NullDecimal `json:"low"`
	Close       decimal.NullDecimal `json:"close"`
	Change      decimal.Decimal     `json:"change"`
	Transaction int64               `json:"transaction"`
}

// MonthData is the parsed response of a single monthly request.
type MonthData struct {
	Code   string      `json:"code"`
	Year   int         `json:"year"`
	Month  int         `json:"month"`
	Source string      `json:"source"`
	Stat   string      `json:"stat"`
	Data   []DailyData `json:"data"`
}

// Markets as written in the exchange registry.
const (
	MarketListed = "上市"
	MarketOTC    = "上櫃"
)

// CodeInfo is one registry entry.
type CodeInfo struct {
	Type   string `json:"type"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	ISIN   string `json:"isin"`
	Start  string `json:"start"`
	Market string `json:"market"`
	Group  string `json:"group"`
	CFI    string `json:"cfi"`
}
