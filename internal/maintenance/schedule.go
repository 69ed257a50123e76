// Package maintenance holds the due-date arithmetic for maintenance plans.
package maintenance

import (
	"time"

	"gestionale/internal/models"
)

// AddMonths adds months to a date, clamping to the last valid day of the
// resulting month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(d time.Time, months int) time.Time {
	totalMonths := int(d.Month()) - 1 + months
	year := d.Year() + totalMonths/12
	month := time.Month(totalMonths%12 + 1)
	if totalMonths < 0 && totalMonths%12 != 0 {
		year--
		month = time.Month(totalMonths%12 + 13)
	}

	day := d.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ComputeNextDueDate calculates the expected due date for a plan.
//
//   - interval: Jan 1 of the reference year + the interval - 1 day, i.e.
//     the last day of the covered period (6 months -> Jun 30, 1 year ->
//     Dec 31, 3 months -> Mar 31).
//   - fixed_date: fixedDay/fixedMonth of the reference year; impossible
//     calendar dates (Feb 30) yield nil.
//
// Missing parameters for the selected mode yield nil, never an error.
func ComputeNextDueDate(
	scheduleType models.ScheduleType,
	intervalValue *int,
	intervalUnit *models.IntervalUnit,
	fixedMonth, fixedDay *int,
	referenceYear int,
) *time.Time {
	year := referenceYear
	if year == 0 {
		year = time.Now().Year()
	}

	switch scheduleType {
	case models.ScheduleInterval:
		if intervalValue == nil || *intervalValue <= 0 || intervalUnit == nil {
			return nil
		}
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		var due time.Time
		switch *intervalUnit {
		case models.UnitDays:
			due = start.AddDate(0, 0, *intervalValue-1)
		case models.UnitWeeks:
			due = start.AddDate(0, 0, *intervalValue*7-1)
		case models.UnitMonths:
			due = AddMonths(start, *intervalValue).AddDate(0, 0, -1)
		case models.UnitYears:
			due = AddMonths(start, *intervalValue*12).AddDate(0, 0, -1)
		default:
			return nil
		}
		return &due

	case models.ScheduleFixedDate:
		if fixedMonth == nil || *fixedMonth == 0 || fixedDay == nil || *fixedDay == 0 {
			return nil
		}
		m, d := *fixedMonth, *fixedDay
		if m < 1 || m > 12 || d < 1 || d > daysIn(year, time.Month(m)) {
			return nil
		}
		due := time.Date(year, time.Month(m), d, 0, 0, 0, 0, time.UTC)
		return &due
	}

	return nil
}

// NextDueDateForPlan advances a plan's due date after a maintenance event
// performed in performedYear: the next cycle's date, forward only.
func NextDueDateForPlan(plan *models.MaintenancePlan, performedYear int) *time.Time {
	next := ComputeNextDueDate(
		plan.ScheduleType,
		plan.IntervalValue,
		plan.IntervalUnit,
		plan.FixedMonth,
		plan.FixedDay,
		performedYear+1,
	)
	if next == nil {
		return nil
	}
	if !next.After(plan.NextDueDate) {
		return nil
	}
	return next
}
