package app

import (
	"database/sql"
	"os"
	"strconv"

	"hrcore/internal/attendance"
	"hrcore/internal/auth"
	"hrcore/internal/employee"
	"hrcore/internal/leave"
	"hrcore/internal/messaging/kafka"
	"hrcore/internal/payroll"
	"hrcore/internal/rbac"
	"hrcore/internal/rbac/infra"
	"hrcore/internal/shared/clock"
	"hrcore/internal/shared/counter"
	"hrcore/internal/workcal"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// envInt reads an integer knob, falling back when unset or malformed.
func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

// shiftConfigFromEnv builds the attendance shift parameters; every knob has
// the standard 09:00 / 8h shift as its default.
func shiftConfigFromEnv() attendance.ShiftConfig {
	cfg := attendance.DefaultShiftConfig()
	cfg.ShiftStartMinutes = envInt("SHIFT_START_MINUTES", cfg.ShiftStartMinutes)
	cfg.GraceMinutes = envInt("SHIFT_GRACE_MINUTES", cfg.GraceMinutes)
	cfg.StandardShiftMinutes = envInt("SHIFT_STANDARD_MINUTES", cfg.StandardShiftMinutes)
	cfg.BreakMinutes = envInt("SHIFT_BREAK_MINUTES", cfg.BreakMinutes)
	cfg.HalfDayThresholdMinutes = envInt("SHIFT_HALF_DAY_THRESHOLD_MINUTES", cfg.HalfDayThresholdMinutes)
	return cfg
}

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	attendanceRepo := attendance.NewRepository(gormDB)
	authRepo := auth.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	holidayRepo := workcal.NewHolidayRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	payrollRepo := payroll.NewRepository(gormDB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(enforcer)
	if err != nil {
		return err
	}

	// --- Shared infrastructure ---
	clk := clock.New()
	calendar := workcal.NewCalendar(holidayRepo)
	tokenStore := auth.NewRedisTokenStore(rdb)
	shiftCfg := shiftConfigFromEnv()

	// --- Services ---
	authService := auth.NewService(authRepo, employeeRepo, tokenStore, clk)
	employeeService := employee.NewServiceWithOutbox(db, employeeRepo, counterRepo, outboxRepo, rdb)
	leaveService := leave.NewService(db, leaveRepo, calendar, outboxRepo, clk)
	attendanceService := attendance.NewService(db, attendanceRepo, calendar, leaveRepo, shiftCfg, clk)
	payrollService := payroll.NewService(db, payrollRepo, employeeRepo)
	holidayService := workcal.NewHolidayService(holidayRepo)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService)
	employeeHandler := employee.NewHandler(employeeService)
	attendanceHandler := attendance.NewHandler(attendanceService)
	leaveHandler := leave.NewHandler(leaveService)
	payrollHandler := payroll.NewHandler(payrollService)
	holidayHandler := workcal.NewHolidayHandler(holidayService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, rbacService)
		employee.RegisterRoutes(api, employeeHandler, rbacService)
		attendance.RegisterRoutes(api, attendanceHandler, rbacService)
		leave.RegisterRoutes(api, leaveHandler, rbacService, rdb)
		payroll.RegisterRoutes(api, payrollHandler, rbacService)
		workcal.RegisterRoutes(api, holidayHandler, rbacService)
	}

	return nil
}
