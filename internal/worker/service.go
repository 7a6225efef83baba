package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rupeeback/internal/config"
	"github.com/rupeeback/internal/logger"
	"github.com/rupeeback/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	confirmSweepInterval = time.Minute
	confirmSweepBatch    = 200
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.LedgerService != nil {
		go s.runConfirmSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runConfirmSweepLoop 周期巡扫确认到期交易
// 延时任务在队列停用或入队失败时会丢失，巡扫保证到期交易终会确认。
func (s *Service) runConfirmSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.LedgerService == nil {
		return
	}
	runOnce := func() {
		confirmed, err := s.consumer.LedgerService.ConfirmDue(time.Now(), confirmSweepBatch)
		if err != nil {
			logger.Warnw("worker_confirm_sweep_failed", "error", err)
			return
		}
		if confirmed > 0 {
			logger.Infow("worker_confirm_sweep_done", "confirmed", confirmed)
		}
	}
	runOnce()

	ticker := time.NewTicker(confirmSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
