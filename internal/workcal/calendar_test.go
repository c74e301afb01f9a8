package workcal_test

import (
	"context"
	"testing"
	"time"

	"hrcore/internal/workcal"

	"github.com/stretchr/testify/assert"
)

type fakeHolidayRepo struct {
	dates map[string]bool
}

func (f *fakeHolidayRepo) Create(ctx context.Context, h *workcal.Holiday) error   { return nil }
func (f *fakeHolidayRepo) Delete(ctx context.Context, id string) error            { return nil }
func (f *fakeHolidayRepo) FindAll(ctx context.Context) ([]workcal.Holiday, error) { return nil, nil }
func (f *fakeHolidayRepo) Exists(ctx context.Context, date time.Time) (bool, error) {
	return f.dates[date.Format("2006-01-02")], nil
}
func (f *fakeHolidayRepo) ListBetween(ctx context.Context, start, end time.Time) ([]workcal.Holiday, error) {
	var out []workcal.Holiday
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if f.dates[d.Format("2006-01-02")] {
			out = append(out, workcal.Holiday{HolidayDate: d})
		}
	}
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalendar_DayKind(t *testing.T) {
	ctx := context.Background()
	cal := workcal.NewCalendar(&fakeHolidayRepo{dates: map[string]bool{
		"2025-06-05": true, // Thursday
		"2025-06-07": true, // Saturday
	}})

	tests := []struct {
		name string
		date time.Time
		want workcal.DayKind
	}{
		{"weekday", day(2025, 6, 2), workcal.DayWorking},
		{"saturday", day(2025, 6, 14), workcal.DayWeekend},
		{"sunday", day(2025, 6, 15), workcal.DayWeekend},
		{"holiday on a weekday", day(2025, 6, 5), workcal.DayHoliday},
		{"holiday wins over the weekend", day(2025, 6, 7), workcal.DayHoliday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := cal.DayKind(ctx, tt.date)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestCalendar_CountWorkingDays(t *testing.T) {
	ctx := context.Background()
	cal := workcal.NewCalendar(&fakeHolidayRepo{dates: map[string]bool{
		"2025-06-05": true,
	}})

	t.Run("inclusive range skips weekends and holidays", func(t *testing.T) {
		// Wed 2025-06-04 .. Tue 2025-06-10: Thu is a holiday, Sat/Sun weekend.
		n, err := cal.CountWorkingDays(ctx, day(2025, 6, 4), day(2025, 6, 10))
		assert.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("single working day counts as one", func(t *testing.T) {
		n, err := cal.CountWorkingDays(ctx, day(2025, 6, 2), day(2025, 6, 2))
		assert.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("weekend-only range counts zero", func(t *testing.T) {
		n, err := cal.CountWorkingDays(ctx, day(2025, 6, 14), day(2025, 6, 15))
		assert.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("inverted range counts zero", func(t *testing.T) {
		n, err := cal.CountWorkingDays(ctx, day(2025, 6, 10), day(2025, 6, 4))
		assert.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}

func TestCalendar_CustomWorkweek(t *testing.T) {
	ctx := context.Background()
	cal := workcal.NewCalendar(&fakeHolidayRepo{},
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday)

	kind, err := cal.DayKind(ctx, day(2025, 6, 6)) // Friday
	assert.NoError(t, err)
	assert.Equal(t, workcal.DayWeekend, kind)

	n, err := cal.CountWorkingDays(ctx, day(2025, 6, 1), day(2025, 6, 7))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
}
