// Package period resolves UK tax years and custom date ranges to concrete instants.
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/homeledger/taxengine/internal/domain/shared"
)

// UK tax year boundaries: 6 April to 5 April.
const (
	startMonth = time.April
	startDay   = 6
)

// TaxYear is a resolved UK tax year.
type TaxYear struct {
	Key       string    `json:"key"`   // "2024-2025"
	Label     string    `json:"label"` // "2024/2025", suffixed " (Current)" when current
	StartYear int       `json:"start_year"`
	Start     time.Time `json:"start"` // 6 April 00:00:00
	End       time.Time `json:"end"`   // 5 April 23:59:59 of the following year
	Current   bool      `json:"current"`
}

// Range returns the tax year as an inclusive date range.
func (y TaxYear) Range() Range {
	start, end := y.Start, y.End
	return Range{Start: &start, End: &end}
}

// Contains reports whether t falls inside the tax year.
func (y TaxYear) Contains(t time.Time) bool {
	return y.Range().Contains(t)
}

// Calendar builds tax years in a fixed location. The current instant is always
// passed in by the caller; Calendar never reads the wall clock.
type Calendar struct {
	loc *time.Location
}

// NewCalendar creates a calendar for the given location (UTC when nil).
func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc}
}

// Location returns the calendar's location.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Year returns the tax year starting on 6 April of startYear.
func (c *Calendar) Year(startYear int) TaxYear {
	endYear := startYear + 1
	return TaxYear{
		Key:       fmt.Sprintf("%d-%d", startYear, endYear),
		Label:     fmt.Sprintf("%d/%d", startYear, endYear),
		StartYear: startYear,
		Start:     time.Date(startYear, startMonth, startDay, 0, 0, 0, 0, c.loc),
		End:       time.Date(endYear, startMonth, startDay-1, 23, 59, 59, 0, c.loc),
	}
}

// Parse resolves a "YYYY-YYYY" key whose second year follows the first.
func (c *Calendar) Parse(key string) (TaxYear, error) {
	parts := strings.Split(strings.TrimSpace(key), "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 4 {
		return TaxYear{}, shared.NewInvalidRangeError("invalid tax year %q (expected YYYY-YYYY)", key)
	}
	startYear, err := strconv.Atoi(parts[0])
	if err != nil {
		return TaxYear{}, shared.NewInvalidRangeError("invalid start year in tax year %q", key)
	}
	endYear, err := strconv.Atoi(parts[1])
	if err != nil {
		return TaxYear{}, shared.NewInvalidRangeError("invalid end year in tax year %q", key)
	}
	if endYear != startYear+1 {
		return TaxYear{}, shared.NewInvalidRangeError("tax year %q must span consecutive years", key)
	}
	return c.Year(startYear), nil
}

// CurrentStartYear returns the start year of the tax year containing now.
// On or after 6 April the tax year began this calendar year, otherwise last year.
func (c *Calendar) CurrentStartYear(now time.Time) int {
	local := now.In(c.loc)
	year := local.Year()
	if local.Month() > startMonth || (local.Month() == startMonth && local.Day() >= startDay) {
		return year
	}
	return year - 1
}

// Current returns the tax year containing now, flagged as current.
func (c *Calendar) Current(now time.Time) TaxYear {
	y := c.Year(c.CurrentStartYear(now))
	y.Current = true
	y.Label += " (Current)"
	return y
}

// Recent returns the current tax year followed by the n-1 preceding years.
func (c *Calendar) Recent(now time.Time, n int) []TaxYear {
	if n <= 0 {
		return nil
	}
	latest := c.CurrentStartYear(now)
	years := make([]TaxYear, 0, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			years = append(years, c.Current(now))
			continue
		}
		years = append(years, c.Year(latest-i))
	}
	return years
}

// IsCurrent reports whether key names the tax year containing now.
func (c *Calendar) IsCurrent(key string, now time.Time) bool {
	y, err := c.Parse(key)
	if err != nil {
		return false
	}
	return y.StartYear == c.CurrentStartYear(now)
}

// Resolve turns either a tax-year key or a custom range into concrete bounds.
// A non-empty key takes precedence. Custom bounds pass through verbatim and a
// missing bound leaves that side unbounded.
func (c *Calendar) Resolve(key string, customStart, customEnd *time.Time) (Range, error) {
	if strings.TrimSpace(key) != "" {
		y, err := c.Parse(key)
		if err != nil {
			return Range{}, err
		}
		return y.Range(), nil
	}
	return NewRange(customStart, customEnd)
}
