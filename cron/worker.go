package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"senara/config"
	bookingRepo "senara/database/repository/booking"
	"senara/services/notification"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeStatusSweep  = "appointment:sweep"
	TypeReminderScan = "appointment:remind_scan"
	TypeReminderSend = "appointment:remind"
)

// Appointments starting within this window of a scan get a reminder. The
// scan cadence must match the window so each appointment is caught once.
const (
	scanEvery      = 15 * time.Minute
	reminderLead   = time.Hour
	reminderWindow = scanEvery
)

// ReminderPayload is the serialized task for one reminder message.
type ReminderPayload struct {
	AppointmentID int64  `json:"appointment_id"`
	To            string `json:"to"`
	Body          string `json:"body"`
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitWorker starts the background worker and its schedule: a periodic
// status sweep (Scheduled appointments in the past become Completed) and a
// reminder scan that enqueues one WhatsApp reminder per upcoming
// appointment.
func InitWorker(repo bookingRepo.BookingRepository, notifSvc notification.NotificationService, logger *zap.Logger) {
	opts := redisOpts()

	srv := asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"default": 1,
		},
	})

	client := asynq.NewClient(opts)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeStatusSweep, handleStatusSweep(repo, logger))
	mux.HandleFunc(TypeReminderScan, handleReminderScan(repo, client, logger))
	mux.HandleFunc(TypeReminderSend, handleReminderSend(notifSvc, logger))

	scheduler := asynq.NewScheduler(opts, &asynq.SchedulerOpts{})
	if _, err := scheduler.Register("*/15 * * * *", asynq.NewTask(TypeStatusSweep, nil)); err != nil {
		log.Printf("[Worker] failed to register status sweep: %v", err)
	}
	if _, err := scheduler.Register("*/15 * * * *", asynq.NewTask(TypeReminderScan, nil)); err != nil {
		log.Printf("[Worker] failed to register reminder scan: %v", err)
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("scheduler stopped", zap.Error(err))
		}
	}()

	go func() {
		log.Println("[Worker] starting async worker...")
		if err := srv.Run(mux); err != nil {
			logger.Error("async worker stopped", zap.Error(err))
		}
	}()
}

func handleStatusSweep(repo bookingRepo.BookingRepository, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := repo.SweepStatuses(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("status sweep: %w", err)
		}
		if n > 0 {
			logger.Info("marked past appointments completed", zap.Int64("count", n))
		}
		return nil
	}
}

func handleReminderScan(repo bookingRepo.BookingRepository, client *asynq.Client, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		from := time.Now().Add(reminderLead)
		to := from.Add(reminderWindow)

		targets, err := repo.AppointmentsBetween(ctx, from, to)
		if err != nil {
			return fmt.Errorf("reminder scan: %w", err)
		}

		for _, t := range targets {
			if t.CustomerContact == "" {
				continue
			}
			payload, err := json.Marshal(ReminderPayload{
				AppointmentID: t.AppointmentID,
				To:            t.CustomerContact,
				Body: fmt.Sprintf("Hi %s! A reminder about your %s appointment at our %s studio today at %s. See you soon!",
					t.CustomerName, t.ServiceName, t.StudioLocation, t.Time),
			})
			if err != nil {
				return err
			}
			if _, err := client.EnqueueContext(ctx, asynq.NewTask(TypeReminderSend, payload)); err != nil {
				logger.Warn("enqueueing reminder failed",
					zap.Int64("appointment_id", t.AppointmentID),
					zap.Error(err))
			}
		}
		return nil
	}
}

func handleReminderSend(notifSvc notification.NotificationService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("reminder payload: %w", err)
		}
		if _, err := notifSvc.SendWhatsApp(ctx, p.To, p.Body); err != nil {
			return fmt.Errorf("sending reminder for appointment %d: %w", p.AppointmentID, err)
		}
		logger.Info("reminder sent", zap.Int64("appointment_id", p.AppointmentID))
		return nil
	}
}
