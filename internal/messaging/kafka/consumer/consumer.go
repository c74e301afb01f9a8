package consumer

import (
	"context"
	"encoding/json"
	"time"

	"hrcore/internal/events"
	"hrcore/internal/leave"
	"hrcore/internal/payroll"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeEmployeeLifecycle provisions a new employee from the
// employee.created event: the default salary template and the annual leave
// entitlements. Both provisioning calls swallow duplicates, so redelivered
// messages are safe.
func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	payrollService payroll.Service,
	leaveService leave.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	log.Info("employee lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			log.Error("fetch employee lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.EmployeeCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode employee_created event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		year := time.Now().UTC().Year()
		if joinDate, err := time.Parse("2006-01-02", event.JoinDate); err == nil {
			year = joinDate.Year()
		}

		if err := payrollService.CreateDefaultTemplate(ctx, event.EmployeeID); err != nil {
			log.Error("provision default salary template failed",
				zap.String("employee_id", event.EmployeeID),
				zap.Error(err),
			)
			continue
		}

		if err := leaveService.GrantAnnualBalances(ctx, event.EmployeeID, year); err != nil {
			log.Error("provision annual leave balances failed",
				zap.String("employee_id", event.EmployeeID),
				zap.Int("year", year),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit employee lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("employee provisioned from employee_created event",
			zap.String("employee_id", event.EmployeeID),
			zap.Int("year", year),
		)
	}
}
