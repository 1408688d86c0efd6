package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/taskstore/domain"
	"github.com/fastygo/taskstore/internal/infrastructure/buffer"
	"github.com/fastygo/taskstore/repository"
)

// BufferBridge turns failed remote writes into outbox items.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferTask(ctx context.Context, operation string, task domain.Task) error {
	if b == nil || b.processor == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	item := buffer.Item{
		TaskID:    task.ID,
		Operation: operation,
		Data:      payload,
	}
	return b.processor.BufferOperation(ctx, item)
}

// Pending reports how many writes wait for replay.
func (b *BufferBridge) Pending() (int, error) {
	if b == nil || b.processor == nil || b.processor.store == nil {
		return 0, nil
	}
	return b.processor.store.Size()
}

var _ repository.WriteBuffer = (*BufferBridge)(nil)
