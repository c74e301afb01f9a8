package payroll

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=payroll_repo.go -destination=mock/payroll_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, t *SalaryTemplate) error
	FindByEmployeeID(ctx context.Context, employeeID string) (*SalaryTemplate, error)
	// Replace drops the employee's current template and inserts the new
	// one; the caller supplies the surrounding transaction.
	Replace(ctx context.Context, t *SalaryTemplate) error
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

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, t *SalaryTemplate) error {
	return r.conn(ctx).Create(t).Error
}

func (r *repository) FindByEmployeeID(ctx context.Context, employeeID string) (*SalaryTemplate, error) {
	var t SalaryTemplate
	err := r.conn(ctx).
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&t, "employee_id = ?", employeeID).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) Replace(ctx context.Context, t *SalaryTemplate) error {
	err := r.conn(ctx).
		Unscoped().
		Where("employee_id = ?", t.EmployeeID).
		Delete(&SalaryTemplate{}).Error
	if err != nil {
		return err
	}
	return r.conn(ctx).Create(t).Error
}
