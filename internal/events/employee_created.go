package events

import "time"

const EmployeeCreatedTopic = "hr.employee.lifecycle.v1"

// EmployeeCreatedEvent drives downstream provisioning: default salary
// template and the annual leave balance grant.
type EmployeeCreatedEvent struct {
	EventType  string    `json:"event_type"`
	EmployeeID string    `json:"employee_id"`
	JoinDate   string    `json:"join_date"`
	OccurredAt time.Time `json:"occurred_at"`
}
