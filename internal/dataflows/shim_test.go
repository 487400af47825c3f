package dataflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimRow(t *testing.T) {
	trim := TrimRow(9)

	long := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
	assert.Equal(t, long[:9], trim(long))

	exact := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}
	assert.Equal(t, exact, trim(exact))

	short := []string{"a", "b"}
	assert.Equal(t, short, trim(short))

	assert.Empty(t, trim(nil))
}

func TestDefaultRowAdapterFeedsParser(t *testing.T) {
	row := []string{"113/10/01", "1,000", "2,000", "10.00", "11.00", "9.50", "10.50", "+0.50", "12", "extra", "more"}

	_, err := parseDailyRow(row, 1)
	assert.ErrorIs(t, err, ErrRowShape)

	d, err := parseDailyRow(DefaultRowAdapter()(row), 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(12), d.Transaction)
}
