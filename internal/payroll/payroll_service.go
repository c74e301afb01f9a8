package payroll

import (
	"context"
	"database/sql"
	"errors"

	"hrcore/internal/employee"
	employeeerrors "hrcore/internal/employee/errors"
	payrollerrors "hrcore/internal/payroll/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultMonthlyWage seeds the template created at onboarding; HR replaces
// it with the negotiated wage afterwards.
const DefaultMonthlyWage = 50000

//go:generate mockgen -source=payroll_service.go -destination=mock/payroll_service_mock.go -package=mock
type Service interface {
	CreateTemplate(ctx context.Context, employeeID string, req SaveTemplateRequest) (TemplateResponse, error)
	// UpdateTemplate replaces the whole template; there is no partial merge.
	UpdateTemplate(ctx context.Context, employeeID string, req SaveTemplateRequest) (TemplateResponse, error)
	GetTemplate(ctx context.Context, employeeID string) (TemplateResponse, error)
	// GetPayslip computes the breakdown on demand; the warning is non-empty
	// when the percentage earnings over-allocate the wage.
	GetPayslip(ctx context.Context, employeeID string) (PayslipResponse, string, error)
	RenderPayslipPDF(ctx context.Context, employeeID string) ([]byte, error)
	// CreateDefaultTemplate provisions the standard component set for a new
	// employee; called by the onboarding consumer, safe to redeliver.
	CreateDefaultTemplate(ctx context.Context, employeeID string) error
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees employee.Repository
	logger    *zap.Logger
}

func NewService(db *sql.DB, repo Repository, employees employee.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("payroll.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payroll.service")
	}
	return &service{db: db, repo: repo, employees: employees, logger: l}
}

func defaultComponents() []ComponentInput {
	return []ComponentInput{
		{Name: "Basic Salary", Kind: KindEarning, CalcType: CalcPercent, Value: 50},
		{Name: "HRA", Kind: KindEarning, CalcType: CalcPercent, Value: 25},
		{Name: "Standard Allowance", Kind: KindEarning, CalcType: CalcPercent, Value: 8.334},
		{Name: "Performance Bonus", Kind: KindEarning, CalcType: CalcPercent, Value: 4.165},
		{Name: "Leave Travel Allowance", Kind: KindEarning, CalcType: CalcPercent, Value: 4.165},
		{Name: "Fixed Allowance", Kind: KindEarning, CalcType: CalcResidual},
		{Name: "Employee PF", Kind: KindDeduction, CalcType: CalcPercent, Value: 6},
		{Name: "Professional Tax", Kind: KindDeduction, CalcType: CalcFixed, Value: 200},
		{Name: "Employer PF", Kind: KindEmployer, CalcType: CalcPercent, Value: 6},
	}
}

func validateComponents(components []ComponentInput) error {
	residuals := 0
	for _, c := range components {
		if c.CalcType == CalcResidual {
			if c.Kind != KindEarning {
				return payrollerrors.ErrInvalidComponent
			}
			residuals++
		}
	}
	if residuals != 1 {
		return payrollerrors.ErrDuplicateResidual
	}
	return nil
}

func buildTemplate(employeeID uuid.UUID, req SaveTemplateRequest) *SalaryTemplate {
	t := &SalaryTemplate{
		ID:                 uuid.New(),
		EmployeeID:         employeeID,
		MonthlyWage:        req.MonthlyWage,
		WorkingDaysPerWeek: req.WorkingDaysPerWeek,
		BreakTimeHours:     req.BreakTimeHours,
	}
	t.Components = make([]SalaryComponent, len(req.Components))
	for i, c := range req.Components {
		t.Components[i] = SalaryComponent{
			ID:         uuid.New(),
			TemplateID: t.ID,
			Name:       c.Name,
			Kind:       c.Kind,
			CalcType:   c.CalcType,
			Value:      c.Value,
			Position:   i,
		}
	}
	return t
}

func (s *service) CreateTemplate(ctx context.Context, employeeID string, req SaveTemplateRequest) (TemplateResponse, error) {
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return TemplateResponse{}, payrollerrors.ErrInvalidEmployeeID
	}
	if err := validateComponents(req.Components); err != nil {
		return TemplateResponse{}, err
	}
	if _, err := s.employees.FindByID(ctx, employeeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TemplateResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return TemplateResponse{}, err
	}

	t := buildTemplate(employeeUUID, req)
	if err := s.repo.Create(ctx, t); err != nil {
		if isUniqueViolation(err) {
			return TemplateResponse{}, payrollerrors.ErrTemplateExists
		}
		s.logger.Error("create salary template failed", zap.Error(err))
		return TemplateResponse{}, err
	}

	s.logger.Info("salary template created",
		zap.String("employee_id", employeeID),
		zap.Float64("monthly_wage", t.MonthlyWage),
	)
	return mapTemplateToResponse(*t), nil
}

func (s *service) UpdateTemplate(ctx context.Context, employeeID string, req SaveTemplateRequest) (TemplateResponse, error) {
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return TemplateResponse{}, payrollerrors.ErrInvalidEmployeeID
	}
	if err := validateComponents(req.Components); err != nil {
		return TemplateResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update salary template begin tx failed", zap.Error(err))
		return TemplateResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if _, err := qtx.FindByEmployeeID(ctx, employeeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TemplateResponse{}, payrollerrors.ErrTemplateNotFound
		}
		return TemplateResponse{}, err
	}

	t := buildTemplate(employeeUUID, req)
	if err := qtx.Replace(ctx, t); err != nil {
		s.logger.Error("update salary template replace failed", zap.Error(err))
		return TemplateResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return TemplateResponse{}, err
	}

	s.logger.Info("salary template replaced",
		zap.String("employee_id", employeeID),
		zap.Float64("monthly_wage", t.MonthlyWage),
	)
	return mapTemplateToResponse(*t), nil
}

func (s *service) GetTemplate(ctx context.Context, employeeID string) (TemplateResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return TemplateResponse{}, payrollerrors.ErrInvalidEmployeeID
	}

	t, err := s.repo.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TemplateResponse{}, payrollerrors.ErrTemplateNotFound
		}
		return TemplateResponse{}, err
	}
	return mapTemplateToResponse(*t), nil
}

func (s *service) GetPayslip(ctx context.Context, employeeID string) (PayslipResponse, string, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return PayslipResponse{}, "", payrollerrors.ErrInvalidEmployeeID
	}

	t, err := s.repo.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PayslipResponse{}, "", payrollerrors.ErrTemplateNotFound
		}
		return PayslipResponse{}, "", err
	}

	breakdown := ComputeComponents(*t)
	totals := ComputeTotals(breakdown)

	warning := ""
	if breakdown.OverAllocated {
		warning = WarningOverAllocation
		s.logger.Warn("payslip over-allocated",
			zap.String("employee_id", employeeID),
			zap.Float64("monthly_wage", t.MonthlyWage),
		)
	}

	return PayslipResponse{
		EmployeeID:            employeeID,
		MonthlyWage:           t.MonthlyWage,
		Components:            breakdown.Components,
		Gross:                 totals.Gross,
		TotalDeductions:       totals.TotalDeductions,
		EmployerContributions: totals.EmployerContributions,
		Net:                   totals.Net,
	}, warning, nil
}

func (s *service) CreateDefaultTemplate(ctx context.Context, employeeID string) error {
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return payrollerrors.ErrInvalidEmployeeID
	}

	t := buildTemplate(employeeUUID, SaveTemplateRequest{
		MonthlyWage:        DefaultMonthlyWage,
		WorkingDaysPerWeek: 5,
		BreakTimeHours:     1,
		Components:         defaultComponents(),
	})
	if err := s.repo.Create(ctx, t); err != nil {
		// Consumer redelivery lands here; the template already exists.
		if isUniqueViolation(err) {
			return nil
		}
		s.logger.Error("create default salary template failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("default salary template created",
		zap.String("employee_id", employeeID),
	)
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapTemplateToResponse(t SalaryTemplate) TemplateResponse {
	resp := TemplateResponse{
		ID:                 t.ID.String(),
		EmployeeID:         t.EmployeeID.String(),
		MonthlyWage:        t.MonthlyWage,
		WorkingDaysPerWeek: t.WorkingDaysPerWeek,
		BreakTimeHours:     t.BreakTimeHours,
		Components:         make([]ComponentResponse, len(t.Components)),
	}
	for i, c := range t.Components {
		resp.Components[i] = ComponentResponse{
			Name:     c.Name,
			Kind:     c.Kind,
			CalcType: c.CalcType,
			Value:    c.Value,
			Position: c.Position,
		}
	}
	return resp
}
