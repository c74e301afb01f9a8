package leave

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	CreateRequest(ctx context.Context, req *LeaveRequest) error
	FindRequestByID(ctx context.Context, id string) (*LeaveRequest, error)
	// FindRequestByIDForUpdate takes a row-level lock; only meaningful
	// inside a WithTx repository.
	FindRequestByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error)
	UpdateRequest(ctx context.Context, req *LeaveRequest) error
	FindAllRequests(ctx context.Context) ([]LeaveRequest, error)
	FindRequestsByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)

	CreateBalance(ctx context.Context, b *LeaveBalance) error
	GetBalance(ctx context.Context, employeeID, leaveType string, year int) (*LeaveBalance, error)
	GetBalanceForUpdate(ctx context.Context, employeeID, leaveType string, year int) (*LeaveBalance, error)
	UpdateBalance(ctx context.Context, b *LeaveBalance) error
	FindBalancesByEmployee(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error)

	// HasApprovedLeaveOn reports whether an approved request covers the
	// date; the attendance rollover consumes this.
	HasApprovedLeaveOn(ctx context.Context, employeeID string, date time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn binds the gorm session to the shared sql transaction when one is
// present, so locks taken here hold until that transaction ends.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) CreateRequest(ctx context.Context, req *LeaveRequest) error {
	return r.conn(ctx).Create(req).Error
}

func (r *repository) FindRequestByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var req LeaveRequest
	err := r.conn(ctx).First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) FindRequestByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error) {
	var req LeaveRequest
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) UpdateRequest(ctx context.Context, req *LeaveRequest) error {
	return r.conn(ctx).Save(req).Error
}

func (r *repository) FindAllRequests(ctx context.Context) ([]LeaveRequest, error) {
	var rows []LeaveRequest
	err := r.conn(ctx).
		Order("applied_on DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindRequestsByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	var rows []LeaveRequest
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Order("applied_on DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreateBalance(ctx context.Context, b *LeaveBalance) error {
	return r.conn(ctx).Create(b).Error
}

func (r *repository) GetBalance(ctx context.Context, employeeID, leaveType string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Where("leave_type = ?", leaveType).
		Where("year = ?", year).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) GetBalanceForUpdate(ctx context.Context, employeeID, leaveType string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ?", employeeID).
		Where("leave_type = ?", leaveType).
		Where("year = ?", year).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) UpdateBalance(ctx context.Context, b *LeaveBalance) error {
	return r.conn(ctx).Save(b).Error
}

func (r *repository) FindBalancesByEmployee(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error) {
	var rows []LeaveBalance
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Where("year = ?", year).
		Order("leave_type ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) HasApprovedLeaveOn(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	var count int64
	day := date.Format("2006-01-02")
	err := r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("employee_id = ?", employeeID).
		Where("status = ?", StatusApproved).
		Where("start_date <= ?", day).
		Where("end_date >= ?", day).
		Count(&count).Error
	return count > 0, err
}
