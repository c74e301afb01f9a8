package attendance

import (
	"time"

	"hrcore/internal/workcal"
)

const (
	StatusPresent = "PRESENT"
	StatusLate    = "LATE"
	StatusHalfDay = "HALF_DAY"
	StatusAbsent  = "ABSENT"
	StatusOnLeave = "ON_LEAVE"
	StatusWeekend = "WEEKEND"
	StatusHoliday = "HOLIDAY"
)

// ShiftConfig parameterizes status derivation. The grace period and the
// half-day threshold are deliberately configuration, not constants.
type ShiftConfig struct {
	ShiftStartMinutes       int // minutes after midnight, e.g. 540 for 09:00
	GraceMinutes            int
	StandardShiftMinutes    int
	BreakMinutes            int
	HalfDayThresholdMinutes int
}

func DefaultShiftConfig() ShiftConfig {
	return ShiftConfig{
		ShiftStartMinutes:       9 * 60,
		GraceMinutes:            15,
		StandardShiftMinutes:    8 * 60,
		BreakMinutes:            60,
		HalfDayThresholdMinutes: 4 * 60,
	}
}

// minutesIntoDay returns the instant's offset from its own midnight.
func minutesIntoDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DeriveCheckInStatus classifies a check-in as on time or late against the
// shift start plus grace period.
func DeriveCheckInStatus(checkIn time.Time, cfg ShiftConfig) string {
	if minutesIntoDay(checkIn) <= cfg.ShiftStartMinutes+cfg.GraceMinutes {
		return StatusPresent
	}
	return StatusLate
}

// ComputeWorkedMinutes returns worked and overtime minutes for a closed
// record. Worked time nets out the break and never goes negative.
func ComputeWorkedMinutes(checkIn, checkOut time.Time, cfg ShiftConfig) (worked, overtime int) {
	worked = int(checkOut.Sub(checkIn).Minutes()) - cfg.BreakMinutes
	if worked < 0 {
		worked = 0
	}
	overtime = worked - cfg.StandardShiftMinutes
	if overtime < 0 {
		overtime = 0
	}
	return worked, overtime
}

// DeriveStatus resolves the final status of a record. It is a pure function
// of the record's stored fields plus the calendar day kind and the approved
// leave flag; the precedence order follows the attendance rules:
// non-working day, then approved leave, then absence, then the check-in
// classification, with half-day applied after checkout.
func DeriveStatus(rec *Attendance, kind workcal.DayKind, onLeave bool, cfg ShiftConfig) string {
	switch kind {
	case workcal.DayWeekend:
		return StatusWeekend
	case workcal.DayHoliday:
		return StatusHoliday
	}

	if rec == nil || rec.CheckInAt == nil {
		if onLeave {
			return StatusOnLeave
		}
		return StatusAbsent
	}

	base := DeriveCheckInStatus(*rec.CheckInAt, cfg)
	if rec.CheckOutAt == nil {
		return base
	}

	worked, _ := ComputeWorkedMinutes(*rec.CheckInAt, *rec.CheckOutAt, cfg)
	if worked < cfg.HalfDayThresholdMinutes {
		return StatusHalfDay
	}
	return base
}
