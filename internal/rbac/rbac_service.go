package rbac

import (
	"sync"

	"github.com/casbin/casbin/v2"
)

const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLOYEE"
)

// Policy rows: role, resource, action. Single organization, so roles are
// global and seeded once at startup.
var defaultPolicies = [][]string{
	{RoleAdmin, "employee", "read"},
	{RoleAdmin, "employee", "create"},
	{RoleAdmin, "employee", "update"},
	{RoleAdmin, "employee", "delete"},
	{RoleAdmin, "attendance", "read"},
	{RoleAdmin, "attendance", "read_all"},
	{RoleAdmin, "leave", "read"},
	{RoleAdmin, "leave", "read_all"},
	{RoleAdmin, "leave", "decide"},
	{RoleAdmin, "salary_template", "read"},
	{RoleAdmin, "salary_template", "write"},
	{RoleAdmin, "payslip", "read"},
	{RoleAdmin, "holiday", "read"},
	{RoleAdmin, "holiday", "write"},
	{RoleAdmin, "account", "register"},

	{RoleEmployee, "employee", "read"},
	{RoleEmployee, "attendance", "read"},
	{RoleEmployee, "attendance", "clock"},
	{RoleEmployee, "leave", "read"},
	{RoleEmployee, "leave", "create"},
	{RoleEmployee, "payslip", "read"},
	{RoleEmployee, "holiday", "read"},
}

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(role, resource, action string) (bool, error)
}

type service struct {
	enforcer *casbin.Enforcer
	mu       sync.Mutex
}

func NewService(enforcer *casbin.Enforcer) (Service, error) {
	for _, p := range defaultPolicies {
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, err
		}
	}
	return &service{enforcer: enforcer}, nil
}

func (s *service) Enforce(role, resource, action string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.enforcer.Enforce(role, resource, action)
}
