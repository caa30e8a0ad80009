package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alpenava/nayax-bridge/internal/models"
	"github.com/alpenava/nayax-bridge/internal/registry"
)

// 2024-03-14T10:00:00Z is a Thursday.
var fixedNow = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

func newPeriodCoordinator(t *testing.T, history models.History) *Coordinator {
	t.Helper()
	store := &memStore{history: history}
	c, err := New(&fakeClient{}, store, &fakeSink{}, registry.NewLogRegistry(zap.NewNop()), testConfig(), zap.NewNop())
	require.NoError(t, err)
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestPeriodRangeBoundaries(t *testing.T) {
	c := newPeriodCoordinator(t, nil)

	tests := []struct {
		period string
		start  time.Time
		end    time.Time
	}{
		{"today", date(2024, 3, 14), date(2024, 3, 15)},
		{"yesterday", date(2024, 3, 13), date(2024, 3, 14)},
		// Monday start: Thursday the 14th belongs to the week of the 11th.
		{"this_week", date(2024, 3, 11), date(2024, 3, 15)},
		{"last_week", date(2024, 3, 4), date(2024, 3, 11)},
		{"this_month", date(2024, 3, 1), date(2024, 3, 15)},
		{"last_month", date(2024, 2, 1), date(2024, 3, 1)},
		{"this_year", date(2024, 1, 1), date(2024, 3, 15)},
		{"last_year", date(2023, 1, 1), date(2024, 1, 1)},
		// 180 days before Mar 14 is Sep 16 2023, truncated to Sep 1.
		{"6_months", date(2023, 9, 1), date(2024, 3, 15)},
	}
	for _, tc := range tests {
		start, end, ok := c.periodRange(tc.period)
		require.True(t, ok, tc.period)
		assert.Equal(t, tc.start, start, "%s start", tc.period)
		assert.Equal(t, tc.end, end, "%s end", tc.period)
	}

	_, _, ok := c.periodRange("fortnight")
	assert.False(t, ok)
}

func TestPeriodRangeSundayWeekStart(t *testing.T) {
	c := newPeriodCoordinator(t, nil)
	c.cfg.FirstDayOfWeek = time.Sunday

	start, _, ok := c.periodRange("this_week")
	require.True(t, ok)
	assert.Equal(t, date(2024, 3, 10), start)
}

func TestGetPeriodTotal(t *testing.T) {
	history := models.History{
		"A": {
			"t1": {TransactionID: "t1", Amount: 1.10, Timestamp: "2024-03-14T08:00:00Z"},
			"t2": {TransactionID: "t2", Amount: 2.25, Timestamp: "2024-03-12T19:30:00Z"},
			"t3": {TransactionID: "t3", Amount: 5.00, Timestamp: "2024-03-03T12:00:00Z"},
			"t4": {TransactionID: "t4", Amount: 9.99, Timestamp: "garbled"},
		},
	}
	c := newPeriodCoordinator(t, history)

	assert.Equal(t, models.PeriodTotal{Amount: 1.10, Count: 1}, c.GetPeriodTotal("A", "today"))
	assert.Equal(t, models.PeriodTotal{Amount: 3.35, Count: 2}, c.GetPeriodTotal("A", "this_week"))
	assert.Equal(t, models.PeriodTotal{Amount: 8.35, Count: 3}, c.GetPeriodTotal("A", "this_month"))
	assert.Equal(t, models.PeriodTotal{Amount: 5.00, Count: 1}, c.GetPeriodTotal("A", "last_week"))

	assert.Equal(t, models.PeriodTotal{}, c.GetPeriodTotal("A", "not-a-period"))
	assert.Equal(t, models.PeriodTotal{}, c.GetPeriodTotal("no-such-machine", "today"))
}

func TestPeriodTotalRoundsAtTheEnd(t *testing.T) {
	history := models.History{
		"A": {
			"t1": {TransactionID: "t1", Amount: 0.105, Timestamp: "2024-03-14T08:00:00Z"},
			"t2": {TransactionID: "t2", Amount: 0.105, Timestamp: "2024-03-14T09:00:00Z"},
		},
	}
	c := newPeriodCoordinator(t, history)

	total := c.GetPeriodTotal("A", "today")
	assert.Equal(t, 0.21, total.Amount)
	assert.Equal(t, 2, total.Count)
}

func TestPeriodBoundaryHalfOpen(t *testing.T) {
	history := models.History{
		"A": {
			"midnight":  {TransactionID: "midnight", Amount: 1, Timestamp: "2024-03-14T00:00:00Z"},
			"tomorrow":  {TransactionID: "tomorrow", Amount: 1, Timestamp: "2024-03-15T00:00:00Z"},
			"lastNight": {TransactionID: "lastNight", Amount: 1, Timestamp: "2024-03-13T23:59:59Z"},
		},
	}
	c := newPeriodCoordinator(t, history)

	total := c.GetPeriodTotal("A", "today")
	assert.Equal(t, 1, total.Count)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
