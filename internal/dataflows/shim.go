package dataflows

import "github.com/dyike/bestfour/internal/models"

// RowAdapter reshapes a raw exchange row before it reaches the parser.
type RowAdapter func(row []string) []string

// TrimRow keeps the leading n fields of rows longer than n. Shorter rows are
// returned untouched.
//
// TWSE started appending columns to STOCK_DAY rows while the parser still
// reads only the first nine.
func TrimRow(n int) RowAdapter {
	return func(row []string) []string {
		if len(row) > n {
			return row[:n]
		}
		return row
	}
}

// DefaultRowAdapter trims rows to the daily field count.
func DefaultRowAdapter() RowAdapter {
	return TrimRow(models.DailyFieldCount)
}
