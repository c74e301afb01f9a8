package payroll

type ComponentInput struct {
	Name     string  `json:"name" binding:"required,max=80"`
	Kind     string  `json:"kind" binding:"required,oneof=EARNING DEDUCTION EMPLOYER"`
	CalcType string  `json:"calc_type" binding:"required,oneof=PERCENT FIXED RESIDUAL"`
	Value    float64 `json:"value" binding:"gte=0"`
}

type SaveTemplateRequest struct {
	MonthlyWage        float64          `json:"monthly_wage" binding:"required,gt=0"`
	WorkingDaysPerWeek int              `json:"working_days_per_week" binding:"required,min=1,max=7"`
	BreakTimeHours     float64          `json:"break_time_hours" binding:"gte=0,lte=8"`
	Components         []ComponentInput `json:"components" binding:"required,min=1,dive"`
}

type ComponentResponse struct {
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	CalcType string  `json:"calc_type"`
	Value    float64 `json:"value"`
	Position int     `json:"position"`
}

type TemplateResponse struct {
	ID                 string              `json:"id"`
	EmployeeID         string              `json:"employee_id"`
	MonthlyWage        float64             `json:"monthly_wage"`
	WorkingDaysPerWeek int                 `json:"working_days_per_week"`
	BreakTimeHours     float64             `json:"break_time_hours"`
	Components         []ComponentResponse `json:"components"`
}

type PayslipResponse struct {
	EmployeeID            string            `json:"employee_id"`
	MonthlyWage           float64           `json:"monthly_wage"`
	Components            []ComponentAmount `json:"components"`
	Gross                 float64           `json:"gross"`
	TotalDeductions       float64           `json:"total_deductions"`
	EmployerContributions float64           `json:"employer_contributions"`
	Net                   float64           `json:"net"`
}
