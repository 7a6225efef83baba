package queue

import (
	"encoding/json"

	"github.com/rupeeback/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskTransactionConfirm 返利交易自动确认任务
	TaskTransactionConfirm = constants.TaskTransactionConfirm
)

// TransactionConfirmPayload 自动确认任务载荷
type TransactionConfirmPayload struct {
	TransactionID uint `json:"transaction_id"`
}

// NewTransactionConfirmTask 创建自动确认任务
func NewTransactionConfirmTask(payload TransactionConfirmPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTransactionConfirm, body), nil
}
