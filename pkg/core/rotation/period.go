// Package rotation holds the pure date, status and audit rules for sensitive
// task rotation. Nothing in this package performs I/O or reads the clock;
// callers pass "now" explicitly.
package rotation

import (
	"errors"
	"fmt"
	"time"

	"github.com/jakechorley/rotation-control/pkg/core/model"
)

// ErrUnsupportedPeriod is returned for a rotation period outside the known set
var ErrUnsupportedPeriod = errors.New("unsupported rotation period")

// periodSteps maps each period to the calendar offset (years, months) it adds
var periodSteps = map[model.RotationPeriod][2]int{
	model.PeriodMonthly:    {0, 1},
	model.PeriodQuarterly:  {0, 3},
	model.PeriodSemiAnnual: {0, 6},
	model.PeriodAnnual:     {1, 0},
	model.PeriodBiennial:   {2, 0},
}

// NextRotationDate returns the date one rotation period after from.
// Calendar arithmetic is used, so month-end dates overflow forward
// (Jan 31 + 1 month is Mar 3 in a non-leap year).
func NextRotationDate(period model.RotationPeriod, from time.Time) (time.Time, error) {
	step, ok := periodSteps[period]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedPeriod, period)
	}
	return from.AddDate(step[0], step[1], 0), nil
}

// DateOnly truncates t to midnight UTC of its calendar day
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
