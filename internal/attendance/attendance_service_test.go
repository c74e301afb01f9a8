package attendance

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"hrcore/internal/shared/clock"
	"hrcore/internal/workcal"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	attendanceerrors "hrcore/internal/attendance/errors"
)

type fakeRepo struct {
	withTxFn                func(tx *sql.Tx) Repository
	createFn                func(ctx context.Context, a *Attendance) error
	updateFn                func(ctx context.Context, a *Attendance) error
	findByEmployeeAndDateFn func(ctx context.Context, employeeID string, date time.Time) (*Attendance, error)
	findAllFn               func(ctx context.Context) ([]Attendance, error)
	findAllByEmployeeFn     func(ctx context.Context, employeeID string) ([]Attendance, error)
	missingIDsFn            func(ctx context.Context, date time.Time) ([]string, error)
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository                 { return f.withTxFn(tx) }
func (f *fakeRepo) Create(ctx context.Context, a *Attendance) error { return f.createFn(ctx, a) }
func (f *fakeRepo) Update(ctx context.Context, a *Attendance) error { return f.updateFn(ctx, a) }
func (f *fakeRepo) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Attendance, error) {
	return f.findByEmployeeAndDateFn(ctx, employeeID, date)
}
func (f *fakeRepo) FindAll(ctx context.Context) ([]Attendance, error) { return f.findAllFn(ctx) }
func (f *fakeRepo) FindAllByEmployee(ctx context.Context, employeeID string) ([]Attendance, error) {
	return f.findAllByEmployeeFn(ctx, employeeID)
}
func (f *fakeRepo) ActiveEmployeeIDsWithoutRecord(ctx context.Context, date time.Time) ([]string, error) {
	return f.missingIDsFn(ctx, date)
}

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
	return nil, nil
}

type fakeLeaveChecker struct {
	onLeave map[string]bool
}

func (f *fakeLeaveChecker) HasApprovedLeaveOn(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	return f.onLeave[employeeID], nil
}

func newTestService(db *sql.DB, repo Repository, clk clock.Clock, holidays map[string]bool, onLeave map[string]bool) Service {
	cal := workcal.NewCalendar(&fakeHolidayRepo{dates: holidays})
	return NewService(db, repo, cal, &fakeLeaveChecker{onLeave: onLeave}, DefaultShiftConfig(), clk)
}

func TestAttendanceService_ClockIn(t *testing.T) {
	employeeID := uuid.New().String()
	ctx := context.Background()
	morning := clock.Fixed{Instant: time.Date(2025, 6, 2, 9, 5, 0, 0, time.UTC)}

	t.Run("creates an on-time record", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		var saved Attendance
		repo := &fakeRepo{}
		repo.withTxFn = func(tx *sql.Tx) Repository { return repo }
		repo.createFn = func(ctx context.Context, a *Attendance) error { saved = *a; return nil }
		repo.findByEmployeeAndDateFn = func(ctx context.Context, employeeID string, date time.Time) (*Attendance, error) {
			return nil, gorm.ErrRecordNotFound
		}

		svc := newTestService(db, repo, morning, nil, nil)

		mock.ExpectBegin()
		mock.ExpectCommit()
		resp, err := svc.ClockIn(ctx, employeeID, ClockInRequest{})

		assert.NoError(t, err)
		assert.Equal(t, StatusPresent, resp.Status)
		assert.Equal(t, "2025-06-02", resp.WorkDate)
		assert.NotNil(t, saved.CheckInAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("late arrival is classified at check-in", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		repo := &fakeRepo{}
		repo.withTxFn = func(tx *sql.Tx) Repository { return repo }
		repo.createFn = func(ctx context.Context, a *Attendance) error { return nil }
		repo.findByEmployeeAndDateFn = func(ctx context.Context, employeeID string, date time.Time) (*Attendance, error) {
			return nil, gorm.ErrRecordNotFound
		}

		lateClock := clock.Fixed{Instant: time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)}
		svc := newTestService(db, repo, lateClock, nil, nil)

		mock.ExpectBegin()
		mock.ExpectCommit()
		resp, err := svc.ClockIn(ctx, employeeID, ClockInRequest{})

		assert.NoError(t, err)
		assert.Equal(t, StatusLate, resp.Status)
	})

	t.Run("second clock-in on the same date fails", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		now := morning.Now()
		repo := &fakeRepo{}
		repo.withTxFn = func(tx *sql.Tx) Repository { return repo }
		repo.findByEmployeeAndDateFn = func(ctx context.Context, employeeID string, date time.Time) (*Attendance, error) {
			return &Attendance{ID: uuid.New(), CheckInAt: &now}, nil
		}

		svc := newTestService(db, repo, morning, nil, nil)

		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err := svc.ClockIn(ctx, employeeID, ClockInRequest{})

		assert.ErrorIs(t, err, attendanceerrors.ErrDuplicateCheckIn)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("takes over a rollover-synthesized row", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		synthesized := &Attendance{ID: uuid.New(), Status: StatusAbsent}
		var updated Attendance
		repo := &fakeRepo{}
		repo.withTxFn = func(tx *sql.Tx) Repository { return repo }
		repo.findByEmployeeAndDateFn = func(ctx context.Context, employeeID string, date time.Time) (*Attendance, error) {
			return synthesized, nil
		}
		repo.updateFn = func(ctx context.Context, a *Attendance) error { updated = *a; return nil }

		svc := newTestService(db, repo, morning, nil, nil)

		mock.ExpectBegin()
		mock.ExpectCommit()
		resp, err := svc.ClockIn(ctx, employeeID, ClockInRequest{})

		assert.NoError(t, err)
		assert.Equal(t, synthesized.ID.String(), resp.ID)
		assert.Equal(t, StatusPresent, updated.Status)
	})

	t.Run("racing clock-ins map the unique violation", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		repo := &fakeRepo{}
		repo.withTxFn = func(tx *sql.Tx) Repository { return repo }
		repo.findByEmployeeAndDateFn = func(ctx context.Context, employeeID string, date time.Time) (*Attendance, error) {
			return nil, gorm.ErrRecordNotFound
		}
		repo.createFn = func(ctx context.Context, a *Attendance) error {
			return &pgconn.PgError{Code: "23505"}
		}

		svc := newTestService(db, repo, morning, nil, nil)

		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err := svc.ClockIn(ctx, employeeID, ClockInRequest{})

		assert.ErrorIs(t, err, attendanceerrors.ErrDuplicateCheckIn)
	})
}

func TestAttendanceService_ClockOut(t *testing.T) {
	employeeID := uuid.New().String()
	ctx := context.Background()

	t.Run("settles worked minutes and overtime", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		checkIn := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
		evening := clock.Fixed{Instant: time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC)}

		var updated Attendance
		repo := &fakeRepo{}
		repo.withTxFn = func(tx *sql.Tx) Repository { return repo }
		repo.findByEmployeeAndDateFn = func(ctx context.Context, employeeID string, date time.Time) (*Attendance, error) {
			return &Attendance{ID: uuid.New(), CheckInAt: &checkIn, Status: StatusPresent}, nil
		}
		repo.updateFn = func(ctx context.Context, a *Attendance) error { updated = *a; return nil }

		svc := newTestService(db, repo, evening, nil, nil)

		mock.ExpectBegin()
		mock.ExpectCommit()
		resp, err := svc.ClockOut(ctx, employeeID, ClockOutRequest{})

		assert.NoError(t, err)
		assert.Equal(t, 600, resp.WorkedMinutes)
		assert.Equal(t, 120, resp.OvertimeMinutes)
		assert.Equal(t, StatusPresent, updated.Status)
	})

	t.Run("short day settles as half day", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		checkIn := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
		noon := clock.Fixed{Instant: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)}

		repo := &fakeRepo{}
		repo.withTxFn = func(tx *sql.Tx) Repository { return repo }
		repo.findByEmployeeAndDateFn = func(ctx context.Context, employeeID string, date time.Time) (*Attendance, error) {
			return &Attendance{ID: uuid.New(), CheckInAt: &checkIn, Status: StatusPresent}, nil
		}
		repo.updateFn = func(ctx context.Context, a *Attendance) error { return nil }

		svc := newTestService(db, repo, noon, nil, nil)

		mock.ExpectBegin()
		mock.ExpectCommit()
		resp, err := svc.ClockOut(ctx, employeeID, ClockOutRequest{})

		assert.NoError(t, err)
		assert.Equal(t, StatusHalfDay, resp.Status)
	})

	t.Run("fails without an open check-in", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		evening := clock.Fixed{Instant: time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)}
		repo := &fakeRepo{}
		repo.withTxFn = func(tx *sql.Tx) Repository { return repo }
		repo.findByEmployeeAndDateFn = func(ctx context.Context, employeeID string, date time.Time) (*Attendance, error) {
			return nil, gorm.ErrRecordNotFound
		}

		svc := newTestService(db, repo, evening, nil, nil)

		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err := svc.ClockOut(ctx, employeeID, ClockOutRequest{})

		assert.ErrorIs(t, err, attendanceerrors.ErrNoActiveCheckIn)
	})

	t.Run("fails when already checked out", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		checkIn := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
		checkOut := time.Date(2025, 6, 2, 17, 0, 0, 0, time.UTC)
		evening := clock.Fixed{Instant: time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)}

		repo := &fakeRepo{}
		repo.withTxFn = func(tx *sql.Tx) Repository { return repo }
		repo.findByEmployeeAndDateFn = func(ctx context.Context, employeeID string, date time.Time) (*Attendance, error) {
			return &Attendance{ID: uuid.New(), CheckInAt: &checkIn, CheckOutAt: &checkOut}, nil
		}

		svc := newTestService(db, repo, evening, nil, nil)

		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err := svc.ClockOut(ctx, employeeID, ClockOutRequest{})

		assert.ErrorIs(t, err, attendanceerrors.ErrNoActiveCheckIn)
	})

	t.Run("rejects a checkout at or before the check-in", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		checkIn := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
		sameInstant := clock.Fixed{Instant: checkIn}

		repo := &fakeRepo{}
		repo.withTxFn = func(tx *sql.Tx) Repository { return repo }
		repo.findByEmployeeAndDateFn = func(ctx context.Context, employeeID string, date time.Time) (*Attendance, error) {
			return &Attendance{ID: uuid.New(), CheckInAt: &checkIn}, nil
		}

		svc := newTestService(db, repo, sameInstant, nil, nil)

		mock.ExpectBegin()
		mock.ExpectRollback()
		_, err := svc.ClockOut(ctx, employeeID, ClockOutRequest{})

		assert.ErrorIs(t, err, attendanceerrors.ErrInvalidOrdering)
	})
}

func TestAttendanceService_FinalizeDay(t *testing.T) {
	ctx := context.Background()
	clk := clock.Fixed{Instant: time.Date(2025, 6, 3, 0, 30, 0, 0, time.UTC)}

	t.Run("synthesizes absent and on-leave records on a working day", func(t *testing.T) {
		db, _, _ := sqlmock.New()
		defer db.Close()

		absentee := uuid.New().String()
		vacationer := uuid.New().String()

		var created []Attendance
		repo := &fakeRepo{}
		repo.missingIDsFn = func(ctx context.Context, date time.Time) ([]string, error) {
			return []string{absentee, vacationer}, nil
		}
		repo.createFn = func(ctx context.Context, a *Attendance) error {
			created = append(created, *a)
			return nil
		}

		svc := newTestService(db, repo, clk, nil, map[string]bool{vacationer: true})

		// Monday 2025-06-02.
		n, err := svc.FinalizeDay(ctx, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))

		assert.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, StatusAbsent, created[0].Status)
		assert.Equal(t, StatusOnLeave, created[1].Status)
	})

	t.Run("marks everyone weekend on a non-working day", func(t *testing.T) {
		db, _, _ := sqlmock.New()
		defer db.Close()

		var created []Attendance
		repo := &fakeRepo{}
		repo.missingIDsFn = func(ctx context.Context, date time.Time) ([]string, error) {
			return []string{uuid.New().String()}, nil
		}
		repo.createFn = func(ctx context.Context, a *Attendance) error {
			created = append(created, *a)
			return nil
		}

		svc := newTestService(db, repo, clk, nil, nil)

		// Saturday 2025-06-07.
		n, err := svc.FinalizeDay(ctx, time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC))

		assert.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, StatusWeekend, created[0].Status)
	})

	t.Run("skips rows won by a concurrent clock-in", func(t *testing.T) {
		db, _, _ := sqlmock.New()
		defer db.Close()

		repo := &fakeRepo{}
		repo.missingIDsFn = func(ctx context.Context, date time.Time) ([]string, error) {
			return []string{uuid.New().String()}, nil
		}
		repo.createFn = func(ctx context.Context, a *Attendance) error {
			return &pgconn.PgError{Code: "23505"}
		}

		svc := newTestService(db, repo, clk, nil, nil)

		n, err := svc.FinalizeDay(ctx, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))

		assert.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}
