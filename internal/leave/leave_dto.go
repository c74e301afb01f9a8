package leave

type SubmitLeaveRequest struct {
	LeaveType string `json:"leave_type" binding:"required,oneof=PAID SICK"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" binding:"required,max=500"`
}

type DecideLeaveRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT"`
}

type LeaveRequestResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	LeaveType    string  `json:"leave_type"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	NumberOfDays int     `json:"number_of_days"`
	Reason       string  `json:"reason"`
	Status       string  `json:"status"`
	AppliedOn    string  `json:"applied_on"`
	DecidedBy    *string `json:"decided_by,omitempty"`
	DecidedOn    *string `json:"decided_on,omitempty"`
}

type LeaveBalanceResponse struct {
	EmployeeID string `json:"employee_id"`
	LeaveType  string `json:"leave_type"`
	Year       int    `json:"year"`
	TotalDays  int    `json:"total_days"`
	UsedDays   int    `json:"used_days"`
	Remaining  int    `json:"remaining"`
}
