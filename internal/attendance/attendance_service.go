package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	attendanceerrors "hrcore/internal/attendance/errors"
	"hrcore/internal/shared/clock"
	"hrcore/internal/workcal"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ApprovedLeaveChecker is the read-only leave lookup status derivation
// needs; the leave repository satisfies it.
type ApprovedLeaveChecker interface {
	HasApprovedLeaveOn(ctx context.Context, employeeID string, date time.Time) (bool, error)
}

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	// ClockIn opens the record for the employee's current date. A second
	// clock-in on the same date fails.
	ClockIn(ctx context.Context, employeeID string, req ClockInRequest) (AttendanceResponse, error)
	// ClockOut closes the open record and settles worked minutes, overtime
	// and the half-day status.
	ClockOut(ctx context.Context, employeeID string, req ClockOutRequest) (AttendanceResponse, error)
	GetAll(ctx context.Context, actorID string, canReadAll bool) ([]AttendanceResponse, error)
	// FinalizeDay synthesizes weekend/holiday/on-leave/absent records for
	// every active employee without one; run by the rollover worker.
	FinalizeDay(ctx context.Context, date time.Time) (int, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	cal    *workcal.Calendar
	leaves ApprovedLeaveChecker
	cfg    ShiftConfig
	clk    clock.Clock
	logger *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	cal *workcal.Calendar,
	leaves ApprovedLeaveChecker,
	cfg ShiftConfig,
	clk clock.Clock,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("attendance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		cal:    cal,
		leaves: leaves,
		cfg:    cfg,
		clk:    clk,
		logger: l,
	}
}

func (s *service) ClockIn(ctx context.Context, employeeID string, req ClockInRequest) (AttendanceResponse, error) {
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("clock in begin tx failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := s.clk.Now()
	today := s.clk.Today()

	existing, err := qtx.FindByEmployeeAndDate(ctx, employeeID, today)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return AttendanceResponse{}, err
	}
	if existing != nil && existing.CheckInAt != nil {
		s.logger.Warn("duplicate clock in",
			zap.String("employee_id", employeeID),
			zap.String("work_date", today.Format("2006-01-02")),
		)
		return AttendanceResponse{}, attendanceerrors.ErrDuplicateCheckIn
	}

	row := &Attendance{
		ID:         uuid.New(),
		EmployeeID: employeeUUID,
		WorkDate:   today,
		CheckInAt:  &now,
		Status:     DeriveCheckInStatus(now, s.cfg),
		Notes:      req.Notes,
	}

	if existing != nil {
		// Rollover already synthesized a row for this date; take it over.
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		err = qtx.Update(ctx, row)
	} else {
		err = qtx.Create(ctx, row)
	}
	if err != nil {
		// Two clock-ins racing for the same (employee, date): the unique
		// index lets exactly one row in.
		if isUniqueViolation(err) {
			return AttendanceResponse{}, attendanceerrors.ErrDuplicateCheckIn
		}
		s.logger.Error("clock in persist failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return AttendanceResponse{}, err
	}

	s.logger.Info("clock in success",
		zap.String("employee_id", employeeID),
		zap.String("status", row.Status),
	)
	return mapToResponse(*row), nil
}

func (s *service) ClockOut(ctx context.Context, employeeID string, req ClockOutRequest) (AttendanceResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("clock out begin tx failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := s.clk.Now()
	today := s.clk.Today()

	row, err := qtx.FindByEmployeeAndDate(ctx, employeeID, today)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrNoActiveCheckIn
		}
		return AttendanceResponse{}, err
	}
	if row.CheckInAt == nil || row.CheckOutAt != nil {
		return AttendanceResponse{}, attendanceerrors.ErrNoActiveCheckIn
	}
	if !now.After(*row.CheckInAt) {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidOrdering
	}

	row.CheckOutAt = &now
	row.WorkedMinutes, row.OvertimeMinutes = ComputeWorkedMinutes(*row.CheckInAt, now, s.cfg)
	if row.WorkedMinutes < s.cfg.HalfDayThresholdMinutes {
		row.Status = StatusHalfDay
	}
	if req.Notes != nil {
		row.Notes = req.Notes
	}

	if err := qtx.Update(ctx, row); err != nil {
		s.logger.Error("clock out persist failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return AttendanceResponse{}, err
	}

	s.logger.Info("clock out success",
		zap.String("employee_id", employeeID),
		zap.String("status", row.Status),
		zap.Int("worked_minutes", row.WorkedMinutes),
	)
	return mapToResponse(*row), nil
}

func (s *service) GetAll(ctx context.Context, actorID string, canReadAll bool) ([]AttendanceResponse, error) {
	var (
		rows []Attendance
		err  error
	)
	if canReadAll {
		rows, err = s.repo.FindAll(ctx)
	} else {
		if _, parseErr := uuid.Parse(actorID); parseErr != nil {
			return nil, attendanceerrors.ErrInvalidEmployeeID
		}
		rows, err = s.repo.FindAllByEmployee(ctx, actorID)
	}
	if err != nil {
		return nil, err
	}

	res := make([]AttendanceResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

func (s *service) FinalizeDay(ctx context.Context, date time.Time) (int, error) {
	kind, err := s.cal.DayKind(ctx, date)
	if err != nil {
		return 0, err
	}

	ids, err := s.repo.ActiveEmployeeIDsWithoutRecord(ctx, date)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, id := range ids {
		onLeave := false
		if kind == workcal.DayWorking {
			onLeave, err = s.leaves.HasApprovedLeaveOn(ctx, id, date)
			if err != nil {
				s.logger.Error("finalize day leave lookup failed",
					zap.String("employee_id", id),
					zap.Error(err),
				)
				continue
			}
		}

		row := &Attendance{
			ID:         uuid.New(),
			EmployeeID: uuid.MustParse(id),
			WorkDate:   date,
			Status:     DeriveStatus(nil, kind, onLeave, s.cfg),
		}
		if err := s.repo.Create(ctx, row); err != nil {
			if isUniqueViolation(err) {
				// Employee clocked in while the rollover was running.
				continue
			}
			s.logger.Error("finalize day persist failed",
				zap.String("employee_id", id),
				zap.Error(err),
			)
			continue
		}
		created++
	}

	s.logger.Info("finalize day complete",
		zap.String("work_date", date.Format("2006-01-02")),
		zap.String("day_kind", string(kind)),
		zap.Int("records_created", created),
	)
	return created, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapToResponse(a Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:              a.ID.String(),
		EmployeeID:      a.EmployeeID.String(),
		WorkDate:        a.WorkDate.Format("2006-01-02"),
		Status:          a.Status,
		WorkedMinutes:   a.WorkedMinutes,
		OvertimeMinutes: a.OvertimeMinutes,
		Notes:           a.Notes,
	}
	if a.CheckInAt != nil {
		v := a.CheckInAt.Format(time.RFC3339)
		resp.CheckInAt = &v
	}
	if a.CheckOutAt != nil {
		v := a.CheckOutAt.Format(time.RFC3339)
		resp.CheckOutAt = &v
	}
	return resp
}
