package usage

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/semindex/internal/domain"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodDay, p)

	p, err = ParsePeriod("month")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, p)

	_, err = ParsePeriod("year")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestPeriod_Bounds(t *testing.T) {
	at := time.Date(2026, 12, 31, 18, 30, 0, 0, time.UTC)

	start, end := PeriodDay.Bounds(at)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)

	start, end = PeriodMonth.Bounds(at)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestNewReport(t *testing.T) {
	r := NewReport(PeriodDay, time.Time{}, time.Time{}, 1000, 300)
	assert.Equal(t, int64(700), r.Remaining())
	assert.False(t, r.Exhausted())

	r = NewReport(PeriodDay, time.Time{}, time.Time{}, 1000, 1500)
	assert.Equal(t, int64(0), r.Remaining())
	assert.True(t, r.Exhausted())

	r = NewReport(PeriodMonth, time.Time{}, time.Time{}, 0, 1500)
	assert.Equal(t, int64(-1), r.Remaining())
	assert.False(t, r.Exhausted())
	assert.Equal(t, int64(1500), r.Used())
}
