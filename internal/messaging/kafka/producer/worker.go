package producer

import (
	"context"
	"time"

	"hrcore/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultBatchSize    = 50
)

// Drainer moves staged outbox rows onto their Kafka topics. Rows that fail to
// publish are marked failed and retried by the repository's backoff schedule.
type Drainer struct {
	repo         kafka.OutboxRepository
	writer       *kafkago.Writer
	pollInterval time.Duration
	batchSize    int
	logger       *zap.Logger
}

func NewDrainer(repo kafka.OutboxRepository, writer *kafkago.Writer, pollInterval time.Duration, logger ...*zap.Logger) *Drainer {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	l := zap.L().Named("kafka.producer")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("kafka.producer")
	}
	return &Drainer{
		repo:         repo,
		writer:       writer,
		pollInterval: pollInterval,
		batchSize:    defaultBatchSize,
		logger:       l,
	}
}

// Run drains on a ticker until the context is cancelled.
func (d *Drainer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	d.logger.Info("outbox drainer started", zap.Duration("poll_interval", d.pollInterval))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("outbox drainer stopped")
			return
		case <-ticker.C:
			if err := d.drainOnce(ctx); err != nil {
				d.logger.Error("outbox drain failed", zap.Error(err))
			}
		}
	}
}

func (d *Drainer) drainOnce(ctx context.Context) error {
	events, err := d.repo.ListPending(ctx, d.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	sent, failed := 0, 0
	for _, event := range events {
		if err := d.publish(ctx, event); err != nil {
			d.logger.Error("publish outbox event failed",
				zap.String("outbox_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.String("topic", event.Topic),
				zap.Error(err),
			)
			_ = d.repo.MarkFailed(ctx, event.ID, err.Error())
			failed++
			continue
		}

		if err := d.repo.MarkSent(ctx, event.ID); err != nil {
			d.logger.Error("mark outbox sent failed",
				zap.String("outbox_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	d.logger.Info("outbox batch drained",
		zap.Int("sent", sent),
		zap.Int("failed", failed),
	)
	return nil
}

func (d *Drainer) publish(ctx context.Context, event kafka.OutboxEvent) error {
	headers := []kafkago.Header{
		{Key: "event_type", Value: []byte(event.EventType)},
		{Key: "aggregate_type", Value: []byte(event.AggregateType)},
	}
	if event.RequestID != "" {
		// Carries the originating request id across the broker for tracing.
		headers = append(headers, kafkago.Header{Key: "request_id", Value: []byte(event.RequestID)})
	}

	return d.writer.WriteMessages(ctx, kafkago.Message{
		Topic:   event.Topic,
		Key:     []byte(event.AggregateID),
		Value:   event.Payload,
		Headers: headers,
	})
}
