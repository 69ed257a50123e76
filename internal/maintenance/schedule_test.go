package maintenance

import (
	"testing"
	"time"

	"gestionale/internal/models"
)

func ip(v int) *int { return &v }

func up(u models.IntervalUnit) *models.IntervalUnit { return &u }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeNextDueDate_Interval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value *int
		unit  *models.IntervalUnit
		want  string
	}{
		{"six months ends june 30", ip(6), up(models.UnitMonths), "2025-06-30"},
		{"one year ends december 31", ip(1), up(models.UnitYears), "2025-12-31"},
		{"three months ends march 31", ip(3), up(models.UnitMonths), "2025-03-31"},
		{"one month ends january 31", ip(1), up(models.UnitMonths), "2025-01-31"},
		{"45 days", ip(45), up(models.UnitDays), "2025-02-14"},
		{"two weeks", ip(2), up(models.UnitWeeks), "2025-01-14"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ComputeNextDueDate(models.ScheduleInterval, tc.value, tc.unit, nil, nil, 2025)
			if got == nil {
				t.Fatal("got nil, want a date")
			}
			if s := got.Format("2006-01-02"); s != tc.want {
				t.Fatalf("got %s, want %s", s, tc.want)
			}
		})
	}
}

func TestComputeNextDueDate_IntervalMissingParams(t *testing.T) {
	t.Parallel()

	if got := ComputeNextDueDate(models.ScheduleInterval, nil, up(models.UnitMonths), nil, nil, 2025); got != nil {
		t.Fatalf("missing value: got %v, want nil", got)
	}
	if got := ComputeNextDueDate(models.ScheduleInterval, ip(6), nil, nil, nil, 2025); got != nil {
		t.Fatalf("missing unit: got %v, want nil", got)
	}
	if got := ComputeNextDueDate(models.ScheduleInterval, ip(0), up(models.UnitMonths), nil, nil, 2025); got != nil {
		t.Fatalf("zero value: got %v, want nil", got)
	}
}

func TestComputeNextDueDate_FixedDate(t *testing.T) {
	t.Parallel()

	got := ComputeNextDueDate(models.ScheduleFixedDate, nil, nil, ip(11), ip(15), 2025)
	if got == nil || got.Format("2006-01-02") != "2025-11-15" {
		t.Fatalf("got %v, want 2025-11-15", got)
	}

	// Feb 30 does not exist.
	if got := ComputeNextDueDate(models.ScheduleFixedDate, nil, nil, ip(2), ip(30), 2025); got != nil {
		t.Fatalf("impossible date: got %v, want nil", got)
	}

	// Feb 29 exists only in leap years.
	if got := ComputeNextDueDate(models.ScheduleFixedDate, nil, nil, ip(2), ip(29), 2024); got == nil {
		t.Fatal("leap year feb 29: got nil, want a date")
	}
	if got := ComputeNextDueDate(models.ScheduleFixedDate, nil, nil, ip(2), ip(29), 2025); got != nil {
		t.Fatalf("non-leap feb 29: got %v, want nil", got)
	}

	if got := ComputeNextDueDate(models.ScheduleFixedDate, nil, nil, nil, ip(15), 2025); got != nil {
		t.Fatalf("missing month: got %v, want nil", got)
	}
}

func TestComputeNextDueDate_UnknownMode(t *testing.T) {
	t.Parallel()

	if got := ComputeNextDueDate(models.ScheduleType("weekly"), ip(1), up(models.UnitWeeks), nil, nil, 2025); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		start  time.Time
		months int
		want   string
	}{
		{date(2025, time.January, 31), 1, "2025-02-28"},
		{date(2024, time.January, 31), 1, "2024-02-29"},
		{date(2025, time.March, 31), 1, "2025-04-30"},
		{date(2025, time.October, 31), 4, "2026-02-28"},
	}

	for _, tc := range tests {
		if got := AddMonths(tc.start, tc.months).Format("2006-01-02"); got != tc.want {
			t.Fatalf("AddMonths(%s, %d) = %s, want %s", tc.start.Format("2006-01-02"), tc.months, got, tc.want)
		}
	}
}

func TestNextDueDateForPlanForwardOnly(t *testing.T) {
	t.Parallel()

	plan := &models.MaintenancePlan{
		ScheduleType:  models.ScheduleInterval,
		IntervalValue: ip(1),
		IntervalUnit:  up(models.UnitYears),
		NextDueDate:   date(2025, time.December, 31),
	}

	// Event in 2025 pushes the plan into 2026.
	next := NextDueDateForPlan(plan, 2025)
	if next == nil || next.Format("2006-01-02") != "2026-12-31" {
		t.Fatalf("got %v, want 2026-12-31", next)
	}

	// A backdated event must never pull the date backwards.
	if next := NextDueDateForPlan(plan, 2023); next != nil {
		t.Fatalf("backdated event: got %v, want nil", next)
	}
}
