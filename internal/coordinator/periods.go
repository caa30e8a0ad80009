package coordinator

import (
	"math"
	"time"

	"github.com/alpenava/nayax-bridge/internal/models"
	"github.com/alpenava/nayax-bridge/internal/timeutil"
)

// GetLastSale returns the stored transaction with the latest parseable
// timestamp for a machine. Entries whose timestamps cannot be parsed are
// skipped; ok is false when the machine has no usable history.
func (c *Coordinator) GetLastSale(machineID string) (models.Transaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var latest models.Transaction
	var latestAt time.Time
	found := false

	for _, tx := range c.history[machineID] {
		at, ok := timeutil.ParseTimestamp(tx.Timestamp)
		if !ok {
			continue
		}
		if !found || at.After(latestAt) {
			latest = tx
			latestAt = at
			found = true
		}
	}
	return latest, found
}

// GetPeriodTotal sums amount and count over a named calendar bucket for one
// machine. Unknown period names yield a zero total. The sum is rounded to
// two decimals at the end, not per item.
func (c *Coordinator) GetPeriodTotal(machineID, period string) models.PeriodTotal {
	start, end, ok := c.periodRange(period)
	if !ok {
		return models.PeriodTotal{}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var amount float64
	count := 0
	for _, tx := range c.history[machineID] {
		at, parsed := timeutil.ParseTimestamp(tx.Timestamp)
		if !parsed {
			continue
		}
		if !at.Before(start) && at.Before(end) {
			amount += tx.Amount
			count++
		}
	}

	return models.PeriodTotal{
		Amount: math.Round(amount*100) / 100,
		Count:  count,
	}
}

// periodRange computes the half-open [start, end) interval for a named
// period. Boundaries are taken in the configured local calendar; the
// resulting instants compare directly against parsed UTC timestamps.
// Current week/month/year periods share the start-of-tomorrow upper bound
// so late-arriving same-day transactions always count.
func (c *Coordinator) periodRange(period string) (start, end time.Time, ok bool) {
	loc := c.cfg.Location
	now := c.now().In(loc)

	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	tomorrowStart := todayStart.AddDate(0, 0, 1)
	yesterdayStart := todayStart.AddDate(0, 0, -1)

	daysSinceWeekStart := (int(now.Weekday()) - int(c.cfg.FirstDayOfWeek) + 7) % 7
	thisWeekStart := todayStart.AddDate(0, 0, -daysSinceWeekStart)
	lastWeekStart := thisWeekStart.AddDate(0, 0, -7)

	thisMonthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	lastMonthStart := thisMonthStart.AddDate(0, -1, 0)

	thisYearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
	lastYearStart := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, loc)

	// Rolling window: 180 days back, truncated to the first of that month.
	sixMonthsAgo := now.AddDate(0, 0, -180)
	sixMonthsStart := time.Date(sixMonthsAgo.Year(), sixMonthsAgo.Month(), 1, 0, 0, 0, 0, loc)

	switch period {
	case "today":
		return todayStart, tomorrowStart, true
	case "yesterday":
		return yesterdayStart, todayStart, true
	case "this_week":
		return thisWeekStart, tomorrowStart, true
	case "this_month":
		return thisMonthStart, tomorrowStart, true
	case "this_year":
		return thisYearStart, tomorrowStart, true
	case "last_week":
		return lastWeekStart, thisWeekStart, true
	case "last_month":
		return lastMonthStart, thisMonthStart, true
	case "last_year":
		return lastYearStart, thisYearStart, true
	case "6_months":
		return sixMonthsStart, tomorrowStart, true
	default:
		return time.Time{}, time.Time{}, false
	}
}
