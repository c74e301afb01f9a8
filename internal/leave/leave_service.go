package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"hrcore/internal/events"
	leaveerrors "hrcore/internal/leave/errors"
	"hrcore/internal/messaging/kafka"
	"hrcore/internal/shared/clock"
	"hrcore/internal/shared/contextutil"
	"hrcore/internal/workcal"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	// Submit creates a Pending request. The working-day count is computed
	// here and frozen on the request.
	Submit(ctx context.Context, employeeID string, req SubmitLeaveRequest) (LeaveRequestResponse, error)
	// Decide moves a Pending request to Approved or Rejected exactly once.
	// Approval debits the balance in the same transaction.
	Decide(ctx context.Context, requestID, actorID string, req DecideLeaveRequest) (LeaveRequestResponse, error)
	GetBalance(ctx context.Context, employeeID, leaveType string, year int) (LeaveBalanceResponse, error)
	GetBalances(ctx context.Context, employeeID string, year int) ([]LeaveBalanceResponse, error)
	GetAll(ctx context.Context, actorID string, canReadAll bool) ([]LeaveRequestResponse, error)
	// GrantAnnualBalances provisions the per-type entitlements for a new
	// employee; called by the onboarding consumer.
	GrantAnnualBalances(ctx context.Context, employeeID string, year int) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	cal    *workcal.Calendar
	outbox kafka.OutboxRepository
	clk    clock.Clock
	logger *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	cal *workcal.Calendar,
	outboxRepo kafka.OutboxRepository,
	clk clock.Clock,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		cal:    cal,
		outbox: outboxRepo,
		clk:    clk,
		logger: l,
	}
}

func (s *service) Submit(ctx context.Context, employeeID string, req SubmitLeaveRequest) (LeaveRequestResponse, error) {
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidEmployeeID
	}
	if !ValidType(req.LeaveType) {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidLeaveType
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidRange
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidRange
	}
	if end.Before(start) {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidRange
	}
	if start.Before(s.clk.Today()) {
		return LeaveRequestResponse{}, leaveerrors.ErrPastDate
	}

	days, err := s.cal.CountWorkingDays(ctx, start, end)
	if err != nil {
		s.logger.Error("submit leave working day count failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if days == 0 {
		return LeaveRequestResponse{}, leaveerrors.ErrNoWorkingDays
	}

	// Optimistic check only; the decision re-validates under a row lock.
	balance, err := s.repo.GetBalance(ctx, employeeID, req.LeaveType, start.Year())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrInsufficientBalance
		}
		return LeaveRequestResponse{}, err
	}
	if days > balance.Remaining() {
		s.logger.Warn("submit leave insufficient balance",
			zap.String("employee_id", employeeID),
			zap.String("leave_type", req.LeaveType),
			zap.Int("requested_days", days),
			zap.Int("remaining", balance.Remaining()),
		)
		return LeaveRequestResponse{}, leaveerrors.ErrInsufficientBalance
	}

	row := &LeaveRequest{
		ID:           uuid.New(),
		EmployeeID:   employeeUUID,
		LeaveType:    req.LeaveType,
		StartDate:    start,
		EndDate:      end,
		NumberOfDays: days,
		Reason:       req.Reason,
		Status:       StatusPending,
		AppliedOn:    s.clk.Now(),
	}
	if err := s.repo.CreateRequest(ctx, row); err != nil {
		s.logger.Error("submit leave persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("leave request submitted",
		zap.String("request_id", row.ID.String()),
		zap.String("employee_id", employeeID),
		zap.String("leave_type", req.LeaveType),
		zap.Int("number_of_days", days),
	)
	return mapRequestToResponse(*row), nil
}

func (s *service) Decide(ctx context.Context, requestID, actorID string, req DecideLeaveRequest) (LeaveRequestResponse, error) {
	requestUUID, err := uuid.Parse(requestID)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidRequestID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidEmployeeID
	}
	if req.Decision != DecisionApprove && req.Decision != DecisionReject {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidDecision
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide leave begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	row, err := qtx.FindRequestByIDForUpdate(ctx, requestUUID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if row.Status != StatusPending {
		return LeaveRequestResponse{}, leaveerrors.ErrAlreadyDecided
	}

	if req.Decision == DecisionApprove {
		// The balance may have shrunk since submission; re-validate while
		// holding its row lock.
		balance, err := qtx.GetBalanceForUpdate(ctx, row.EmployeeID.String(), row.LeaveType, row.StartDate.Year())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return LeaveRequestResponse{}, leaveerrors.ErrInsufficientBalance
			}
			return LeaveRequestResponse{}, err
		}
		if row.NumberOfDays > balance.Remaining() {
			return LeaveRequestResponse{}, leaveerrors.ErrInsufficientBalance
		}
		balance.UsedDays += row.NumberOfDays
		if err := qtx.UpdateBalance(ctx, balance); err != nil {
			s.logger.Error("decide leave balance update failed", zap.Error(err))
			return LeaveRequestResponse{}, err
		}
		row.Status = StatusApproved
	} else {
		row.Status = StatusRejected
	}

	now := s.clk.Now()
	row.DecidedBy = &actorUUID
	row.DecidedOn = &now

	if err := qtx.UpdateRequest(ctx, row); err != nil {
		s.logger.Error("decide leave persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	if s.outbox != nil {
		payload, err := json.Marshal(events.LeaveDecidedEvent{
			EventType:  "leave.decided",
			RequestID:  row.ID.String(),
			EmployeeID: row.EmployeeID.String(),
			LeaveType:  row.LeaveType,
			Status:     row.Status,
			Days:       row.NumberOfDays,
			DecidedBy:  actorUUID.String(),
			OccurredAt: now,
		})
		if err != nil {
			return LeaveRequestResponse{}, err
		}
		event := kafka.OutboxEvent{
			ID:            uuid.New().String(),
			RequestID:     contextutil.GetRequestID(ctx),
			AggregateType: "leave_request",
			AggregateID:   row.ID.String(),
			EventType:     "leave.decided",
			Topic:         events.LeaveDecidedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}
		if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
			s.logger.Error("decide leave outbox insert failed", zap.Error(err))
			return LeaveRequestResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("decide leave commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("leave request decided",
		zap.String("request_id", row.ID.String()),
		zap.String("status", row.Status),
		zap.String("decided_by", actorID),
	)
	return mapRequestToResponse(*row), nil
}

func (s *service) GetBalance(ctx context.Context, employeeID, leaveType string, year int) (LeaveBalanceResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return LeaveBalanceResponse{}, leaveerrors.ErrInvalidEmployeeID
	}
	if !ValidType(leaveType) {
		return LeaveBalanceResponse{}, leaveerrors.ErrInvalidLeaveType
	}
	if year == 0 {
		year = s.clk.Today().Year()
	}

	balance, err := s.repo.GetBalance(ctx, employeeID, leaveType, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveBalanceResponse{}, leaveerrors.ErrBalanceNotFound
		}
		return LeaveBalanceResponse{}, err
	}
	return mapBalanceToResponse(*balance), nil
}

func (s *service) GetBalances(ctx context.Context, employeeID string, year int) ([]LeaveBalanceResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, leaveerrors.ErrInvalidEmployeeID
	}
	if year == 0 {
		year = s.clk.Today().Year()
	}

	balances, err := s.repo.FindBalancesByEmployee(ctx, employeeID, year)
	if err != nil {
		return nil, err
	}

	resp := make([]LeaveBalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = mapBalanceToResponse(b)
	}
	return resp, nil
}

func (s *service) GetAll(ctx context.Context, actorID string, canReadAll bool) ([]LeaveRequestResponse, error) {
	var (
		rows []LeaveRequest
		err  error
	)
	if canReadAll {
		rows, err = s.repo.FindAllRequests(ctx)
	} else {
		if _, parseErr := uuid.Parse(actorID); parseErr != nil {
			return nil, leaveerrors.ErrInvalidEmployeeID
		}
		rows, err = s.repo.FindRequestsByEmployee(ctx, actorID)
	}
	if err != nil {
		return nil, err
	}

	resp := make([]LeaveRequestResponse, len(rows))
	for i, r := range rows {
		resp[i] = mapRequestToResponse(r)
	}
	return resp, nil
}

func (s *service) GrantAnnualBalances(ctx context.Context, employeeID string, year int) error {
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return leaveerrors.ErrInvalidEmployeeID
	}
	if year == 0 {
		year = s.clk.Today().Year()
	}

	grants := []LeaveBalance{
		{ID: uuid.New(), EmployeeID: employeeUUID, LeaveType: TypePaid, Year: year, TotalDays: DefaultPaidDays},
		{ID: uuid.New(), EmployeeID: employeeUUID, LeaveType: TypeSick, Year: year, TotalDays: DefaultSickDays},
	}
	for i := range grants {
		if err := s.repo.CreateBalance(ctx, &grants[i]); err != nil {
			// Consumer redelivery lands here; the grant already exists.
			if isUniqueViolation(err) {
				continue
			}
			s.logger.Error("grant annual balance failed",
				zap.String("employee_id", employeeID),
				zap.String("leave_type", grants[i].LeaveType),
				zap.Error(err),
			)
			return err
		}
	}

	s.logger.Info("annual leave balances granted",
		zap.String("employee_id", employeeID),
		zap.Int("year", year),
	)
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapRequestToResponse(r LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:           r.ID.String(),
		EmployeeID:   r.EmployeeID.String(),
		LeaveType:    r.LeaveType,
		StartDate:    r.StartDate.Format("2006-01-02"),
		EndDate:      r.EndDate.Format("2006-01-02"),
		NumberOfDays: r.NumberOfDays,
		Reason:       r.Reason,
		Status:       r.Status,
		AppliedOn:    r.AppliedOn.Format(time.RFC3339),
	}
	if r.DecidedBy != nil {
		v := r.DecidedBy.String()
		resp.DecidedBy = &v
	}
	if r.DecidedOn != nil {
		v := r.DecidedOn.Format(time.RFC3339)
		resp.DecidedOn = &v
	}
	return resp
}

func mapBalanceToResponse(b LeaveBalance) LeaveBalanceResponse {
	return LeaveBalanceResponse{
		EmployeeID: b.EmployeeID.String(),
		LeaveType:  b.LeaveType,
		Year:       b.Year,
		TotalDays:  b.TotalDays,
		UsedDays:   b.UsedDays,
		Remaining:  b.Remaining(),
	}
}
