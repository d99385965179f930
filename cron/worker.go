package cron

import (
	"context"
	"encoding/json"
	"time"

	"slotpass/config"
	"slotpass/services/escrow"
	"slotpass/services/payment"
	"slotpass/services/slots"
	"slotpass/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Task types processed by the background worker.
const (
	TypeEscrowRelease = "escrow:release"
	TypeSlotExtend    = "slots:extend"
	TypeEscrowEnsure  = "escrow:ensure"
)

// escrowEnsurePayload identifies the booking whose escrow must exist.
type escrowEnsurePayload struct {
	BookingID string `json:"bookingId"`
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// Scheduler enqueues deferred tasks from the request path.
type Scheduler struct {
	client *asynq.Client
}

// NewScheduler constructs a new instance of Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{client: asynq.NewClient(redisOpts())}
}

// ScheduleEscrowEnsure queues a retryable escrow-creation task for a captured
// booking. Creation is once-per-booking, so duplicate tasks are harmless.
func (s *Scheduler) ScheduleEscrowEnsure(ctx context.Context, bookingID string) error {
	raw, err := json.Marshal(escrowEnsurePayload{BookingID: bookingID})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeEscrowEnsure, raw)
	_, err = s.client.EnqueueContext(ctx, task,
		asynq.ProcessIn(30*time.Second),
		asynq.MaxRetry(10))
	return err
}

// Close releases the underlying queue connection.
func (s *Scheduler) Close() error {
	return s.client.Close()
}

// InitWorker starts the background worker and the periodic schedule: the
// escrow release sweep and the template auto-extension.
func InitWorker(escrowSvc escrow.EscrowService, slotSvc slots.SlotService, paymentSvc payment.PaymentService) {
	logger := utils.GetLogger().Named("cron")

	srv := asynq.NewServer(redisOpts(), asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEscrowRelease, func(ctx context.Context, _ *asynq.Task) error {
		released, err := escrowSvc.ReleaseDueEscrows(ctx)
		if err != nil {
			logger.Error("escrow sweep failed", zap.Error(err))
			return err
		}
		if released > 0 {
			logger.Info("escrow sweep completed", zap.Int("released", released))
		}
		return nil
	})
	mux.HandleFunc(TypeSlotExtend, func(ctx context.Context, _ *asynq.Task) error {
		extended, err := slotSvc.ExtendExpiredTemplates(ctx)
		if err != nil {
			logger.Error("template extension sweep failed", zap.Error(err))
			return err
		}
		if extended > 0 {
			logger.Info("templates auto-extended", zap.Int("count", extended))
		}
		return nil
	})
	mux.HandleFunc(TypeEscrowEnsure, func(ctx context.Context, task *asynq.Task) error {
		var p escrowEnsurePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid escrow ensure payload", zap.Error(err))
			return err
		}
		return paymentSvc.EnsureEscrow(ctx, p.BookingID)
	})

	go func() {
		logger.Info("starting background worker")
		if err := srv.Run(mux); err != nil {
			logger.Fatal("background worker failed", zap.Error(err))
		}
	}()

	scheduler := asynq.NewScheduler(redisOpts(), nil)
	if _, err := scheduler.Register("@every 10m", asynq.NewTask(TypeEscrowRelease, nil)); err != nil {
		logger.Fatal("could not register escrow sweep", zap.Error(err))
	}
	if _, err := scheduler.Register("@every 12h", asynq.NewTask(TypeSlotExtend, nil)); err != nil {
		logger.Fatal("could not register template extension", zap.Error(err))
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Fatal("task scheduler failed", zap.Error(err))
		}
	}()
}
