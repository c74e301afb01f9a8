package attendance

type ClockInRequest struct {
	Notes *string `json:"notes"`
}

type ClockOutRequest struct {
	Notes *string `json:"notes"`
}

type AttendanceResponse struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	WorkDate        string  `json:"work_date"`
	CheckInAt       *string `json:"check_in_at"`
	CheckOutAt      *string `json:"check_out_at"`
	Status          string  `json:"status"`
	WorkedMinutes   int     `json:"worked_minutes"`
	OvertimeMinutes int     `json:"overtime_minutes"`
	Notes           *string `json:"notes,omitempty"`
}
