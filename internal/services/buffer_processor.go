package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskstore/domain"
	"github.com/fastygo/taskstore/internal/infrastructure/buffer"
	"github.com/fastygo/taskstore/internal/metrics"
	"github.com/fastygo/taskstore/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// BufferProcessor replays parked writes against the remote source.
type BufferProcessor struct {
	store   *buffer.Store
	monitor ConnectionHealth
	remote  repository.DataSource
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	remote repository.DataSource,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:   store,
		monitor: monitor,
		remote:  remote,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = bp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("outbox processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("outbox processor stopped")
}

// Drain replays pending writes oldest first. The first failure stops the
// pass so later writes never overtake an earlier one.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if removed, err := bp.store.Cleanup(time.Now().Add(-bp.cfg.Retention)); err != nil {
		bp.logger.Warn("outbox cleanup failed", zap.Error(err))
	} else if removed > 0 {
		bp.logger.Warn("expired outbox items dropped", zap.Int("count", removed))
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping outbox drain (remote offline)")
		return nil
	}

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := bp.processItem(ctx, item); err != nil {
			metrics.ReplayedWrites.WithLabelValues("failed").Inc()
			bp.logger.Error("failed to replay outbox item",
				zap.String("item_id", item.ID),
				zap.String("operation", item.Operation),
				zap.Error(err))

			item.Retries++
			if item.Retries >= bp.cfg.MaxRetries {
				bp.logger.Warn("dropping outbox item (max retries reached)", zap.String("item_id", item.ID))
				metrics.ReplayedWrites.WithLabelValues("dropped").Inc()
				if err := bp.store.Remove(item); err != nil {
					bp.logger.Warn("failed to remove outbox item", zap.Error(err))
				}
				continue
			}
			if err := bp.store.Update(item); err != nil {
				bp.logger.Error("failed to record outbox retry", zap.Error(err))
			}
			return nil
		}

		metrics.ReplayedWrites.WithLabelValues("ok").Inc()
		if err := bp.store.Remove(item); err != nil {
			bp.logger.Warn("failed to purge replayed outbox item", zap.Error(err))
		}
	}
	return nil
}

// BufferOperation persists a write for later replay. The write usually failed
// because ctx expired, so ctx is not consulted.
func (bp *BufferProcessor) BufferOperation(_ context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("outbox processor not configured")
	}
	return bp.store.Enqueue(item)
}

// Size returns the number of pending items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var task domain.Task
	if len(item.Data) > 0 {
		if err := json.Unmarshal(item.Data, &task); err != nil {
			return err
		}
	}
	if task.ID == "" {
		task.ID = item.TaskID
	}
	return repository.Apply(ctx, bp.remote, item.Operation, task)
}
