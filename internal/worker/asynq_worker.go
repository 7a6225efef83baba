package worker

import (
	"context"
	"encoding/json"

	"github.com/rupeeback/internal/logger"
	"github.com/rupeeback/internal/provider"
	"github.com/rupeeback/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskTransactionConfirm, c.handleTransactionConfirm)
}

func (c *Consumer) handleTransactionConfirm(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_transaction_confirm_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.TransactionConfirmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_transaction_confirm_unmarshal_failed", "error", err)
		return err
	}
	if payload.TransactionID == 0 {
		logger.Debugw("worker_transaction_confirm_skip_invalid_payload", "transaction_id", payload.TransactionID)
		return nil
	}
	if c.LedgerService == nil {
		logger.Warnw("worker_transaction_confirm_skip_ledger_service_nil", "transaction_id", payload.TransactionID)
		return nil
	}
	if err := c.LedgerService.ConfirmTransaction(payload.TransactionID); err != nil {
		logger.Warnw("worker_transaction_confirm_failed", "transaction_id", payload.TransactionID, "error", err)
		return err
	}
	return nil
}
