package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"shuttle-track/internal/general/contracts"
	"shuttle-track/internal/general/logger"
	"shuttle-track/internal/general/rabbitmq"
	"shuttle-track/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Worker drains the SMS job queue and hands each message to the sender.
// At-most-once intent lives upstream (the tracking service's session guard);
// the worker itself just delivers what it is given.
type Worker struct {
	logger *logger.Logger
	sender ports.SMSSender
}

// NewWorker constructs a Worker.
func NewWorker(logger *logger.Logger, sender ports.SMSSender) *Worker {
	return &Worker{logger: logger, sender: sender}
}

// Run consumes the SMS queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, client *rabbitmq.Client) error {
	return client.Consume(ctx, contracts.QueueSMSJobs, "sms-worker", 5,
		func(hCtx context.Context, d amqp.Delivery) error {
			return w.handleJob(hCtx, d.Body)
		})
}

// handleJob decodes and delivers one queued SMS.
func (w *Worker) handleJob(ctx context.Context, body []byte) error {
	var job contracts.SMSJobMessage
	if err := json.Unmarshal(body, &job); err != nil {
		w.logger.Error(ctx, "sms_job_bad_payload", "Failed to decode SMS job", err, nil)
		return err
	}

	to, err := NormalizeNZPhone(job.To)
	if err != nil {
		w.logger.Error(ctx, "sms_job_bad_phone", "SMS job has an unusable phone number", err, map[string]any{
			"booking_ref": job.BookingRef,
		})
		return fmt.Errorf("normalize phone: %w", err)
	}

	if err := w.sender.Send(ctx, to, job.Body); err != nil {
		w.logger.Error(ctx, "sms_send_failed", "Failed to deliver SMS", err, map[string]any{
			"booking_ref": job.BookingRef,
			"to":          to,
		})
		return err
	}

	w.logger.Info(ctx, "sms_job_done", "SMS job delivered", map[string]any{
		"booking_ref": job.BookingRef,
	})
	return nil
}
