package service

import (
	"context"
	"strings"
	"time"

	"github.com/rupeeback/internal/config"
	"github.com/rupeeback/internal/constants"
	"github.com/rupeeback/internal/logger"
	"github.com/rupeeback/internal/models"
	"github.com/rupeeback/internal/repository"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

// 余额与账本合计允许的最大偏差（四舍五入残差）
var reconcileTolerance = decimal.NewFromFloat(0.01)

// PayoutService 提现服务
// 提现申请是平台唯一扣减可提现余额的路径：锁定用户行后重读余额、
// 重算交易合计并核对，申请单创建、余额清零、交易标记在同一事务内完成。
type PayoutService struct {
	payoutRepo repository.PayoutRepository
	txnRepo    repository.TransactionRepository
	userRepo   repository.UserRepository
	cfg        config.CashbackConfig
}

// RequestPayoutInput 用户提现申请输入
type RequestPayoutInput struct {
	Method string
	Detail string
}

// PayoutSummary 用户提现页概要
type PayoutSummary struct {
	PendingCashback    models.Money `json:"pending_cashback"`
	ConfirmedBalance   models.Money `json:"confirmed_balance"`
	LifetimeCashback   models.Money `json:"lifetime_cashback"`
	MinPayoutThreshold models.Money `json:"min_payout_threshold"`
	Currency           string       `json:"currency"`
	CanRequest         bool         `json:"can_request"`
	LastPayoutMethod   string       `json:"last_payout_method"`
	LastPayoutDetail   string       `json:"last_payout_detail"`
	LastPayoutAt       *time.Time   `json:"last_payout_at"`
}

// NewPayoutService 创建提现服务
func NewPayoutService(
	payoutRepo repository.PayoutRepository,
	txnRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	cfg config.CashbackConfig,
) *PayoutService {
	return &PayoutService{
		payoutRepo: payoutRepo,
		txnRepo:    txnRepo,
		userRepo:   userRepo,
		cfg:        cfg,
	}
}

func validPayoutMethod(method string) bool {
	switch method {
	case constants.PayoutMethodBank, constants.PayoutMethodUPI, constants.PayoutMethodWallet:
		return true
	}
	return false
}

func (s *PayoutService) threshold() decimal.Decimal {
	return decimal.NewFromFloat(s.cfg.MinPayoutThreshold).Round(2)
}

// RequestPayout 用户发起提现
// 事务并发冲突按斐波那契退避有限重试，重试耗尽后返回 ErrTransactionConflict。
func (s *PayoutService) RequestPayout(ctx context.Context, userID uint, input RequestPayoutInput) (*models.PayoutRequest, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	method := strings.ToLower(strings.TrimSpace(input.Method))
	detail := strings.TrimSpace(input.Detail)
	if !validPayoutMethod(method) {
		return nil, ErrPayoutMethodInvalid
	}
	if detail == "" {
		return nil, ErrInvalidInput
	}

	attempts := s.cfg.PayoutRetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := time.Duration(s.cfg.PayoutRetryBackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	var created *models.PayoutRequest
	err := retry.Do(ctx, retry.WithMaxRetries(uint64(attempts), retry.NewFibonacci(backoff)), func(ctx context.Context) error {
		payout, err := s.attemptPayout(userID, method, detail)
		if err != nil {
			if isConflictError(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		created = payout
		return nil
	})
	if err != nil {
		if isConflictError(err) {
			logger.Warnw("提现事务冲突重试耗尽",
				"user_id", userID,
				"attempts", attempts,
			)
			return nil, ErrTransactionConflict
		}
		return nil, err
	}
	return created, nil
}

// attemptPayout 单次提现尝试（完整的一个事务）
func (s *PayoutService) attemptPayout(userID uint, method, detail string) (*models.PayoutRequest, error) {
	var created *models.PayoutRequest
	err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		payoutRepo := s.payoutRepo.WithTx(tx)
		txnRepo := s.txnRepo.WithTx(tx)
		userRepo := s.userRepo.WithTx(tx)

		user, err := userRepo.GetByIDForUpdate(userID)
		if err != nil {
			return wrapPersistence(err)
		}
		if user == nil {
			return ErrUserNotFound
		}

		// 锁内重读余额，不信任请求发起时刻的快照
		balance := user.ConfirmedBalance.Decimal
		if balance.LessThan(s.threshold()) {
			return ErrInsufficientBalance
		}

		txns, err := txnRepo.ListConfirmedUnpaidForUpdate(userID)
		if err != nil {
			return wrapPersistence(err)
		}
		sum := decimal.Zero
		ids := make([]uint, 0, len(txns))
		for _, txn := range txns {
			sum = sum.Add(txn.CashbackAmount.Decimal)
			ids = append(ids, txn.ID)
		}
		sum = sum.Round(2)

		if sum.Sub(balance).Abs().GreaterThan(reconcileTolerance) {
			logger.Errorw("提现核对失败：余额与已确认交易合计不一致",
				"user_id", userID,
				"stored_balance", balance.String(),
				"transaction_sum", sum.String(),
				"transaction_count", len(ids),
			)
			return ErrBalanceReconciliation
		}

		now := time.Now()
		payout := &models.PayoutRequest{
			UserID: userID,
			Amount: models.NewMoneyFromDecimal(sum),
			Status: constants.PayoutStatusPending,
			Method: method,
			Detail: detail,
		}
		if err := payoutRepo.Create(payout); err != nil {
			return wrapPersistence(err)
		}

		affected, err := txnRepo.BatchMarkPaid(ids, payout.ID, now)
		if err != nil {
			return wrapPersistence(err)
		}
		if affected != int64(len(ids)) {
			// 锁内不应出现行数不符，按并发冲突回滚重试
			return ErrTransactionConflict
		}

		if err := userRepo.UpdateFields(userID, map[string]interface{}{
			"confirmed_balance":  models.NewMoneyFromDecimal(decimal.Zero),
			"last_payout_method": method,
			"last_payout_detail": detail,
			"last_payout_at":     now,
		}); err != nil {
			return wrapPersistence(err)
		}
		created = payout
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ReviewPayout 管理端审核提现申请
// 纯状态推进：pending→approved→paid，pending/approved→rejected/failed。
// 拒绝与失败不回滚账本，线下处理后由对账流程另行冲正。
func (s *PayoutService) ReviewPayout(adminID, payoutID uint, action, reason string) (*models.PayoutRequest, error) {
	if payoutID == 0 {
		return nil, ErrPayoutNotFound
	}
	action = strings.ToLower(strings.TrimSpace(action))
	reason = strings.TrimSpace(reason)

	err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		payoutRepo := s.payoutRepo.WithTx(tx)
		payout, err := payoutRepo.GetByIDForUpdate(payoutID)
		if err != nil {
			return wrapPersistence(err)
		}
		if payout == nil {
			return ErrPayoutNotFound
		}

		var next string
		switch action {
		case constants.PayoutActionApprove:
			if payout.Status != constants.PayoutStatusPending {
				return ErrPayoutStatusInvalid
			}
			next = constants.PayoutStatusApproved
		case constants.PayoutActionPay:
			if payout.Status != constants.PayoutStatusPending && payout.Status != constants.PayoutStatusApproved {
				return ErrPayoutStatusInvalid
			}
			next = constants.PayoutStatusPaid
		case constants.PayoutActionReject:
			if payout.Status != constants.PayoutStatusPending && payout.Status != constants.PayoutStatusApproved {
				return ErrPayoutStatusInvalid
			}
			if reason == "" {
				return ErrInvalidInput
			}
			next = constants.PayoutStatusRejected
		case constants.PayoutActionFail:
			if payout.Status != constants.PayoutStatusApproved && payout.Status != constants.PayoutStatusPaid {
				return ErrPayoutStatusInvalid
			}
			next = constants.PayoutStatusFailed
		default:
			return ErrInvalidInput
		}

		now := time.Now()
		payout.Status = next
		payout.RejectReason = reason
		payout.ProcessedBy = &adminID
		payout.ProcessedAt = &now
		return wrapPersistence(payoutRepo.Update(payout))
	})
	if err != nil {
		return nil, err
	}
	return s.payoutRepo.GetByID(payoutID)
}

// GetSummary 用户提现页概要（余额、门槛与最近提现方式预填）
func (s *PayoutService) GetSummary(userID uint) (*PayoutSummary, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	threshold := s.threshold()
	return &PayoutSummary{
		PendingCashback:    user.PendingCashback,
		ConfirmedBalance:   user.ConfirmedBalance,
		LifetimeCashback:   user.LifetimeCashback,
		MinPayoutThreshold: models.NewMoneyFromDecimal(threshold),
		Currency:           s.cfg.Currency,
		CanRequest:         user.ConfirmedBalance.Decimal.GreaterThanOrEqual(threshold),
		LastPayoutMethod:   user.LastPayoutMethod,
		LastPayoutDetail:   user.LastPayoutDetail,
		LastPayoutAt:       user.LastPayoutAt,
	}, nil
}

// GetPayout 按ID获取提现申请（含关联交易）
func (s *PayoutService) GetPayout(id uint) (*models.PayoutRequest, error) {
	payout, err := s.payoutRepo.GetByID(id)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}
	return payout, nil
}

// ListPayouts 分页查询提现申请
func (s *PayoutService) ListPayouts(filter repository.PayoutListFilter) ([]models.PayoutRequest, int64, error) {
	payouts, total, err := s.payoutRepo.List(filter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return payouts, total, nil
}
