// Package workcal is the organization calendar: which dates count as working
// days. Attendance status derivation and leave day counting both read it.
package workcal

import (
	"context"
	"time"
)

type DayKind string

const (
	DayWorking DayKind = "WORKING"
	DayWeekend DayKind = "WEEKEND"
	DayHoliday DayKind = "HOLIDAY"
)

// Calendar resolves dates against the configured workweek and the holiday
// table. Holidays take precedence over the workweek.
type Calendar struct {
	workdays map[time.Weekday]bool
	holidays HolidayRepository
}

// NewCalendar builds a calendar for the given working weekdays. An empty set
// falls back to Monday through Friday.
func NewCalendar(holidays HolidayRepository, workdays ...time.Weekday) *Calendar {
	if len(workdays) == 0 {
		workdays = []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		}
	}
	set := make(map[time.Weekday]bool, len(workdays))
	for _, d := range workdays {
		set[d] = true
	}
	return &Calendar{workdays: set, holidays: holidays}
}

func (c *Calendar) DayKind(ctx context.Context, date time.Time) (DayKind, error) {
	isHoliday, err := c.holidays.Exists(ctx, date)
	if err != nil {
		return "", err
	}
	if isHoliday {
		return DayHoliday, nil
	}
	if !c.workdays[date.Weekday()] {
		return DayWeekend, nil
	}
	return DayWorking, nil
}

func (c *Calendar) IsWorkingDay(ctx context.Context, date time.Time) (bool, error) {
	kind, err := c.DayKind(ctx, date)
	if err != nil {
		return false, err
	}
	return kind == DayWorking, nil
}

// CountWorkingDays counts working days in [start, end] inclusive. Holidays
// are fetched once for the whole range.
func (c *Calendar) CountWorkingDays(ctx context.Context, start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, nil
	}

	holidays, err := c.holidays.ListBetween(ctx, start, end)
	if err != nil {
		return 0, err
	}
	holidaySet := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		holidaySet[h.HolidayDate.Format("2006-01-02")] = true
	}

	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !c.workdays[d.Weekday()] {
			continue
		}
		if holidaySet[d.Format("2006-01-02")] {
			continue
		}
		count++
	}
	return count, nil
}
