package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hrcore/internal/employee"
	"hrcore/internal/events"
	"hrcore/internal/leave"
	"hrcore/internal/messaging/kafka/consumer"
	"hrcore/internal/payroll"
	"hrcore/internal/shared/clock"
	"hrcore/internal/shared/connection"
	"hrcore/internal/workcal"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer hosts the employee lifecycle consumer: each employee.created
// event provisions the default salary template and the annual leave grants.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	clk := clock.New()
	holidayRepo := workcal.NewHolidayRepository(gormDB)
	calendar := workcal.NewCalendar(holidayRepo)
	employeeRepo := employee.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	payrollRepo := payroll.NewRepository(gormDB)

	leaveService := leave.NewService(sqlDB, leaveRepo, calendar, nil, clk)
	payrollService := payroll.NewService(sqlDB, payrollRepo, employeeRepo)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.EmployeeCreatedTopic,
		GroupID:        "hrcore-employee-provisioning",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeEmployeeLifecycle(ctx, reader, payrollService, leaveService, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
