// Package schedule computes the calendar occurrences of a recurrence rule.
//
// Expansion is a pure function of the rule and the as-of date: it always
// replays the series from the rule's start date, so repeated runs produce
// the same prefix of dates and the materializer's existence check makes the
// whole job idempotent. Each frequency has its own stepper, registered in a
// map so new frequencies slot in without touching the expansion loop.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"fluxo/internal/core"
)

// Stepper advances one occurrence date to the next for a given frequency.
// anchorDay is the day-of-month of the rule's start date; month-based
// steppers clamp to the end of shorter months but keep aiming for the
// anchor, so a Jan 31 monthly rule yields Jan 31, Feb 28, Mar 31.
type Stepper interface {
	Next(d core.Date, anchorDay int) core.Date
}

type dayStepper struct{ days int }

func (s dayStepper) Next(d core.Date, _ int) core.Date {
	return d.AddDays(s.days)
}

type monthStepper struct{ months int }

func (s monthStepper) Next(d core.Date, anchorDay int) core.Date {
	return addMonthsClamped(d, s.months, anchorDay)
}

// addMonthsClamped moves n months forward, clamping the anchor day to the
// last day of the target month when it does not exist there. Using the
// anchor rather than d.Day keeps a month-end rule from drifting to the 28th
// forever after February.
func addMonthsClamped(d core.Date, n, anchorDay int) core.Date {
	y := d.Year
	m := int(d.Month) + n
	for m > 12 {
		m -= 12
		y++
	}
	day := anchorDay
	if last := core.DaysInMonth(y, time.Month(m)); day > last {
		day = last
	}
	return core.NewDate(y, time.Month(m), day)
}

var steppers = map[core.Frequency]Stepper{
	core.Daily:      dayStepper{days: 1},
	core.Weekly:     dayStepper{days: 7},
	core.Monthly:    monthStepper{months: 1},
	core.Quarterly:  monthStepper{months: 3},
	core.Semiannual: monthStepper{months: 6},
	core.Yearly:     monthStepper{months: 12},
}

// ErrUnknownFrequency marks a rule whose frequency has no registered stepper.
var ErrUnknownFrequency = errors.New("unknown frequency")

// StepperFor returns the stepper registered for a frequency.
func StepperFor(f core.Frequency) (Stepper, error) {
	s, ok := steppers[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrequency, f)
	}
	return s, nil
}

// Occurrences returns every date on which the rule should have a
// materialized transaction, oldest first. The list is finite and strictly
// increasing. Stop conditions, checked per candidate:
//
//  1. candidate past the end date (a candidate equal to the end date is
//     still emitted — the boundary is inclusive);
//  2. installment cap reached, counting from the start of the series;
//  3. candidate after asOf (occurrences are never generated ahead of time).
//
// A start date in the future therefore yields an empty list.
func Occurrences(rule core.RecurrenceRule, asOf core.Date) ([]core.Date, error) {
	step, err := StepperFor(rule.Frequency)
	if err != nil {
		return nil, err
	}
	if !rule.EndDate.IsZero() && rule.StartDate.After(rule.EndDate) {
		return nil, core.ErrStartAfterEnd
	}

	anchor := rule.StartDate.Day
	var out []core.Date
	for d := rule.StartDate; ; d = step.Next(d, anchor) {
		if !rule.EndDate.IsZero() && d.After(rule.EndDate) {
			break
		}
		if d.After(asOf) {
			break
		}
		out = append(out, d)
		if rule.TotalInstallments > 0 && len(out) >= rule.TotalInstallments {
			break
		}
	}
	return out, nil
}
