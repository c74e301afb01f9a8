package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hrcore/internal/attendance"
	"hrcore/internal/leave"
	"hrcore/internal/messaging/kafka"
	"hrcore/internal/messaging/kafka/producer"
	"hrcore/internal/shared/clock"
	"hrcore/internal/shared/connection"
	"hrcore/internal/workcal"

	"go.uber.org/zap"
)

// RunWorker hosts the two background loops: the outbox publisher and the
// end-of-day attendance rollover.
func RunWorker() error {
	logger := zap.L().Named("app.worker")

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

	kafkaWriter, err := connection.ConnectKafkaWithRetry(kafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(sqlDB)

	clk := clock.New()
	holidayRepo := workcal.NewHolidayRepository(gormDB)
	calendar := workcal.NewCalendar(holidayRepo)
	leaveRepo := leave.NewRepository(gormDB)
	attendanceRepo := attendance.NewRepository(gormDB)
	attendanceService := attendance.NewService(
		sqlDB,
		attendanceRepo,
		calendar,
		leaveRepo,
		shiftConfigFromEnv(),
		clk,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	drainer := producer.NewDrainer(outboxRepo, kafkaWriter, 3*time.Second, logger)
	go drainer.Run(ctx)

	go runDailyRollover(ctx, attendanceService, clk, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}

// runDailyRollover finalizes the previous day's attendance once per day.
// FinalizeDay is idempotent, so catching up after a restart is safe.
func runDailyRollover(
	ctx context.Context,
	svc attendance.Service,
	clk clock.Clock,
	logger *zap.Logger,
) {
	log := logger.Named("attendance.rollover")

	interval := time.Duration(envInt("ROLLOVER_CHECK_MINUTES", 15)) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("attendance rollover started", zap.Duration("check_interval", interval))

	lastFinalized := ""
	finalize := func() {
		day := clk.Today().AddDate(0, 0, -1)
		key := day.Format("2006-01-02")
		if key == lastFinalized {
			return
		}

		created, err := svc.FinalizeDay(ctx, day)
		if err != nil {
			log.Error("finalize day failed", zap.String("work_date", key), zap.Error(err))
			return
		}

		lastFinalized = key
		log.Info("day finalized",
			zap.String("work_date", key),
			zap.Int("records_created", created),
		)
	}

	finalize()
	for {
		select {
		case <-ctx.Done():
			log.Info("attendance rollover stopped")
			return
		case <-ticker.C:
			finalize()
		}
	}
}
