package employee_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"hrcore/internal/employee"
	"hrcore/internal/events"
	"hrcore/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	employeeerrors "hrcore/internal/employee/errors"
)

const optionsCacheKey = "employees:options"

type fakeRepo struct {
	withTxFn        func(tx *sql.Tx) employee.Repository
	createFn        func(ctx context.Context, e *employee.Employee) error
	findAllFn       func(ctx context.Context) ([]employee.Employee, error)
	findAllActiveFn func(ctx context.Context) ([]employee.Employee, error)
	findByIDFn      func(ctx context.Context, id string) (*employee.Employee, error)
	updateFn        func(ctx context.Context, e *employee.Employee) error
	deactivateFn    func(ctx context.Context, id string) error
}

func (f *fakeRepo) WithTx(tx *sql.Tx) employee.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}
func (f *fakeRepo) Create(ctx context.Context, e *employee.Employee) error { return f.createFn(ctx, e) }
func (f *fakeRepo) FindAll(ctx context.Context) ([]employee.Employee, error) {
	return f.findAllFn(ctx)
}
func (f *fakeRepo) FindAllActive(ctx context.Context) ([]employee.Employee, error) {
	return f.findAllActiveFn(ctx)
}
func (f *fakeRepo) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	return f.findByIDFn(ctx, id)
}
func (f *fakeRepo) Update(ctx context.Context, e *employee.Employee) error { return f.updateFn(ctx, e) }
func (f *fakeRepo) Deactivate(ctx context.Context, id string) error        { return f.deactivateFn(ctx, id) }

type fakeCounter struct {
	next int64
}

func (f *fakeCounter) GetNextValue(ctx context.Context, counterType string) (int64, error) {
	return f.next, nil
}

type fakeOutbox struct {
	events []kafka.OutboxEvent
}

func (f *fakeOutbox) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutbox) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}
func (f *fakeOutbox) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutbox) MarkSent(ctx context.Context, id string) error                 { return nil }
func (f *fakeOutbox) MarkFailed(ctx context.Context, id string, reason string) error { return nil }

type serviceDeps struct {
	db        *sql.DB
	sqlmock   sqlmock.Sqlmock
	repo      *fakeRepo
	outbox    *fakeOutbox
	redismock redismock.ClientMock
	service   employee.Service
}

func setupServiceTest(t *testing.T) serviceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rdb, redisMock := redismock.NewClientMock()
	repo := &fakeRepo{}
	outbox := &fakeOutbox{}

	return serviceDeps{
		db:        db,
		sqlmock:   sqlMock,
		repo:      repo,
		outbox:    outbox,
		redismock: redisMock,
		service:   employee.NewServiceWithOutbox(db, repo, &fakeCounter{next: 7}, outbox, rdb),
	}
}

func TestEmployeeService_Create(t *testing.T) {
	ctx := context.Background()

	validReq := employee.CreateEmployeeRequest{
		FullName:    "Jane Roe",
		Email:       "jane@corp.test",
		Department:  "Engineering",
		Designation: "Engineer",
		JoinDate:    "2025-06-02",
	}

	t.Run("generates a code and stages the lifecycle event in one transaction", func(t *testing.T) {
		deps := setupServiceTest(t)

		var saved employee.Employee
		deps.repo.createFn = func(ctx context.Context, e *employee.Employee) error {
			saved = *e
			return nil
		}

		deps.sqlmock.ExpectBegin()
		deps.sqlmock.ExpectCommit()
		deps.redismock.ExpectDel(optionsCacheKey).SetVal(1)

		resp, err := deps.service.Create(ctx, validReq)

		assert.NoError(t, err)
		assert.Equal(t, "EMP-0007", resp.EmployeeCode)
		assert.True(t, saved.IsActive)
		assert.NoError(t, deps.sqlmock.ExpectationsWereMet())

		if assert.Len(t, deps.outbox.events, 1) {
			event := deps.outbox.events[0]
			assert.Equal(t, events.EmployeeCreatedTopic, event.Topic)
			assert.Equal(t, kafka.OutboxStatusPending, event.Status)
			assert.Equal(t, saved.ID.String(), event.AggregateID)

			var payload events.EmployeeCreatedEvent
			assert.NoError(t, json.Unmarshal(event.Payload, &payload))
			assert.Equal(t, "employee.created", payload.EventType)
			assert.Equal(t, "2025-06-02", payload.JoinDate)
		}
	})

	t.Run("keeps an explicitly supplied code", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.createFn = func(ctx context.Context, e *employee.Employee) error { return nil }

		deps.sqlmock.ExpectBegin()
		deps.sqlmock.ExpectCommit()
		deps.redismock.ExpectDel(optionsCacheKey).SetVal(1)

		req := validReq
		req.EmployeeCode = "EMP-CUSTOM"
		resp, err := deps.service.Create(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, "EMP-CUSTOM", resp.EmployeeCode)
	})

	t.Run("rejects a malformed join date", func(t *testing.T) {
		deps := setupServiceTest(t)

		req := validReq
		req.JoinDate = "02-06-2025"
		_, err := deps.service.Create(ctx, req)

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidJoinDate)
	})

	t.Run("rolls back when the insert fails", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.createFn = func(ctx context.Context, e *employee.Employee) error {
			return assert.AnError
		}

		deps.sqlmock.ExpectBegin()
		deps.sqlmock.ExpectRollback()

		_, err := deps.service.Create(ctx, validReq)

		assert.Error(t, err)
		assert.Empty(t, deps.outbox.events)
		assert.NoError(t, deps.sqlmock.ExpectationsWereMet())
	})
}

func TestEmployeeService_GetOptions(t *testing.T) {
	ctx := context.Background()

	options := []employee.EmployeeOption{
		{ID: uuid.New().String(), EmployeeCode: "EMP-0001", FullName: "Jane Roe"},
		{ID: uuid.New().String(), EmployeeCode: "EMP-0002", FullName: "John Doe"},
	}
	payload, _ := json.Marshal(options)

	t.Run("serves from the cache when warm", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.findAllActiveFn = func(ctx context.Context) ([]employee.Employee, error) {
			t.Fatal("repository must not be hit on a cache hit")
			return nil, nil
		}

		deps.redismock.ExpectGet(optionsCacheKey).SetVal(string(payload))

		got, err := deps.service.GetOptions(ctx)

		assert.NoError(t, err)
		assert.Equal(t, options, got)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("fills the cache on a miss", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.findAllActiveFn = func(ctx context.Context) ([]employee.Employee, error) {
			rows := make([]employee.Employee, len(options))
			for i, o := range options {
				rows[i] = employee.Employee{
					ID:           uuid.MustParse(o.ID),
					EmployeeCode: o.EmployeeCode,
					FullName:     o.FullName,
				}
			}
			return rows, nil
		}

		deps.redismock.ExpectGet(optionsCacheKey).RedisNil()
		deps.redismock.ExpectSet(optionsCacheKey, payload, 5*time.Minute).SetVal("OK")

		got, err := deps.service.GetOptions(ctx)

		assert.NoError(t, err)
		assert.Equal(t, options, got)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})
}

func TestEmployeeService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid uuid", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, employeeerrors.ErrInvalidEmployeeID)
	})

	t.Run("missing employee", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
			return nil, gorm.ErrRecordNotFound
		}

		_, err := deps.service.GetByID(ctx, uuid.New().String())
		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})
}

func TestEmployeeService_Deactivate(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()

	t.Run("deactivates and invalidates the options cache", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.findByIDFn = func(ctx context.Context, got string) (*employee.Employee, error) {
			return &employee.Employee{ID: uuid.MustParse(id), IsActive: true}, nil
		}
		deactivated := ""
		deps.repo.deactivateFn = func(ctx context.Context, got string) error {
			deactivated = got
			return nil
		}

		deps.sqlmock.ExpectBegin()
		deps.sqlmock.ExpectCommit()
		deps.redismock.ExpectDel(optionsCacheKey).SetVal(1)

		err := deps.service.Deactivate(ctx, id)

		assert.NoError(t, err)
		assert.Equal(t, id, deactivated)
		assert.NoError(t, deps.sqlmock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("missing employee rolls back", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.findByIDFn = func(ctx context.Context, got string) (*employee.Employee, error) {
			return nil, gorm.ErrRecordNotFound
		}

		deps.sqlmock.ExpectBegin()
		deps.sqlmock.ExpectRollback()

		err := deps.service.Deactivate(ctx, id)
		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})
}
