package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/config"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/observer"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/storage"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

const defaultConversionTaskTimeout = 10 * time.Second

// ConversionTaskData holds the necessary data for a conversion task.
type ConversionTaskData struct {
	Ctx    context.Context // Detached from the request; carries logger and request id only
	Record model.ConversionRecord
}

// IConversionWorker defines the interface for the conversion worker pool.
type IConversionWorker interface {
	SubmitTask(taskData ConversionTaskData) error
	Stop()
}

// ConversionWorker records conversion rows off the request path.
type ConversionWorker struct {
	pool       *ants.PoolWithFunc
	repo       storage.ConversionRepo
	cfg        config.WorkerPoolConfig
	baseLogger *zap.Logger
}

// Ensure ConversionWorker implements IConversionWorker
var _ IConversionWorker = (*ConversionWorker)(nil)

// NewConversionWorker creates and initializes a new conversion worker pool.
func NewConversionWorker(cfg config.WorkerPoolConfig, repo storage.ConversionRepo, baseLogger *zap.Logger) (*ConversionWorker, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 1
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = defaultConversionTaskTimeout
	}

	worker := &ConversionWorker{
		repo:       repo,
		cfg:        cfg,
		baseLogger: baseLogger.Named("conversion_worker"),
	}

	opts := []ants.Option{
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithPanicHandler(func(err interface{}) {
			worker.baseLogger.Error("Panic recovered in conversion worker", zap.Any("panic_error", err), zap.Stack("stack"))
			observer.IncConversionTasksProcessed("panic")
		}),
	}
	if cfg.ExpiryTime > 0 {
		opts = append(opts, ants.WithExpiryDuration(cfg.ExpiryTime))
	}

	pool, err := ants.NewPoolWithFunc(cfg.PoolSize, func(i interface{}) {
		taskData, ok := i.(ConversionTaskData)
		if !ok {
			worker.baseLogger.Error("Invalid task data type received", zap.Any("data", i))
			return
		}
		worker.processConversionTask(taskData)
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversion worker pool: %w", err)
	}
	worker.pool = pool

	worker.baseLogger.Info("Conversion worker pool initialized",
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Duration("expiry_time", cfg.ExpiryTime),
		zap.Duration("task_timeout", cfg.TaskTimeout),
	)
	return worker, nil
}

// SubmitTask hands a conversion to the pool. It blocks while the pool is busy
// and fails once QueueSize callers are already waiting.
func (w *ConversionWorker) SubmitTask(taskData ConversionTaskData) error {
	start := time.Now()
	observer.IncConversionTasksSubmitted()
	observer.SetConversionQueueLength(w.pool.Waiting())

	err := w.pool.Invoke(taskData)
	if err != nil {
		w.baseLogger.Warn("Failed to submit conversion task to pool",
			zap.String("conversion_type", taskData.Record.ConversionType),
			zap.Duration("submit_duration", time.Since(start)),
			zap.Error(err),
		)
		observer.IncConversionTasksProcessed("submit_error")
		if errors.Is(err, ants.ErrPoolOverload) {
			return fmt.Errorf("conversion pool overload: %w", err)
		}
		return fmt.Errorf("failed to invoke conversion task: %w", err)
	}
	return nil
}

// processConversionTask contains the logic executed by a worker goroutine.
func (w *ConversionWorker) processConversionTask(taskData ConversionTaskData) {
	parent := taskData.Ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, w.cfg.TaskTimeout)
	defer cancel()
	defer utils.RecoverWithLog(ctx, "conversion task")

	log := logger.FromContextOr(ctx, w.baseLogger).With(
		zap.String("conversion_type", taskData.Record.ConversionType),
	)

	start := time.Now()
	status := "success"

	saved, err := w.repo.Save(ctx, taskData.Record)
	if err != nil {
		status = "failure_save"
		log.Error("Failed to record conversion", zap.Error(err))
	} else {
		log.Debug("Conversion recorded", zap.Int64("conversion_id", saved.ID))
	}

	duration := time.Since(start)
	observer.ObserveConversionProcessingDuration(duration)
	observer.IncConversionTasksProcessed(status)
}

// Stop gracefully shuts down the worker pool, waiting up to timeout for running tasks.
func (w *ConversionWorker) Stop() {
	if w.pool == nil {
		return
	}
	w.baseLogger.Info("Releasing conversion worker pool")
	start := time.Now()
	if err := w.pool.ReleaseTimeout(w.cfg.TaskTimeout); err != nil {
		w.baseLogger.Warn("Conversion worker pool did not drain in time", zap.Error(err))
	}
	w.baseLogger.Info("Conversion worker pool released", zap.Duration("duration", time.Since(start)))
}
