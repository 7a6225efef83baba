package service

import (
	"errors"
	"strings"
	"time"

	"github.com/rupeeback/internal/constants"
	"github.com/rupeeback/internal/logger"
	"github.com/rupeeback/internal/models"
	"github.com/rupeeback/internal/queue"
	"github.com/rupeeback/internal/repository"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

// 合法的状态流转表；paid 只能由提现事务写入，不走此表
var legalTransitions = map[string][]string{
	constants.TransactionStatusPending: {
		constants.TransactionStatusConfirmed,
		constants.TransactionStatusRejected,
		constants.TransactionStatusCancelled,
	},
	constants.TransactionStatusConfirmed: {
		constants.TransactionStatusRejected,
	},
}

// LedgerService 返利账本服务
// 交易创建与每次状态流转都在单个数据库事务内完成，
// 余额三字段只在锁定用户行之后修改，保证余额恒等于对应状态交易之和。
type LedgerService struct {
	txnRepo     repository.TransactionRepository
	userRepo    repository.UserRepository
	queueClient *queue.Client
	confirmDays int
}

// BalanceAudit 余额核对结果
type BalanceAudit struct {
	UserID              uint         `json:"user_id"`
	StoredPending       models.Money `json:"stored_pending"`
	SummedPending       models.Money `json:"summed_pending"`
	StoredConfirmed     models.Money `json:"stored_confirmed"`
	SummedConfirmed     models.Money `json:"summed_confirmed"`
	PendingConsistent   bool         `json:"pending_consistent"`
	ConfirmedConsistent bool         `json:"confirmed_consistent"`
}

// NewLedgerService 创建返利账本服务
func NewLedgerService(
	txnRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	queueClient *queue.Client,
	confirmDays int,
) *LedgerService {
	if confirmDays < 0 {
		confirmDays = 0
	}
	return &LedgerService{
		txnRepo:     txnRepo,
		userRepo:    userRepo,
		queueClient: queueClient,
		confirmDays: confirmDays,
	}
}

// ComputeCashback 按费率快照计算返利金额（创建时一次性计算并冻结）
// 四舍五入保留两位小数。
func ComputeCashback(rateType string, rateValue models.Money, saleAmount models.Money) models.Money {
	switch rateType {
	case constants.CashbackTypePercent:
		return models.NewMoneyFromDecimal(
			saleAmount.Decimal.Mul(rateValue.Decimal).Div(decimal.NewFromInt(100)).Round(2),
		)
	case constants.CashbackTypeFixed:
		return models.NewMoneyFromDecimal(rateValue.Decimal.Round(2))
	default:
		// 点击快照只会写入 percent/fixed，走到这里说明数据已损坏
		logger.Errorw("未知返利类型，按零金额入账",
			"rate_type", rateType,
			"rate_value", rateValue.String(),
		)
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
}

// CreateTransactionInTx 在已开启的事务内创建返利交易并累加待确认余额
// 调用方（转化入账）负责事务边界；用户行在此加锁。
func (s *LedgerService) CreateTransactionInTx(tx *gorm.DB, conversion *models.Conversion, click *models.Click) (*models.CashbackTransaction, error) {
	if conversion == nil || click == nil || conversion.UserID == nil {
		return nil, ErrInvalidInput
	}
	txnRepo := s.txnRepo.WithTx(tx)
	userRepo := s.userRepo.WithTx(tx)

	user, err := userRepo.GetByIDForUpdate(*conversion.UserID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	amount := ComputeCashback(click.RateType, click.RateValue, conversion.SaleAmount)
	now := time.Now()
	txn := &models.CashbackTransaction{
		UserID:         user.ID,
		MerchantID:     conversion.MerchantID,
		ConversionID:   conversion.ID,
		OrderID:        conversion.OrderID,
		SaleAmount:     conversion.SaleAmount,
		CashbackAmount: amount,
		Status:         constants.TransactionStatusPending,
	}
	// confirm_days 为 0 时立即到期，由队列/巡扫即时确认
	confirmAt := now.Add(time.Duration(s.confirmDays) * 24 * time.Hour)
	txn.ConfirmAt = &confirmAt
	if err := txnRepo.Create(txn); err != nil {
		return nil, wrapPersistence(err)
	}

	user.PendingCashback = models.NewMoneyFromDecimal(user.PendingCashback.Decimal.Add(amount.Decimal))
	if err := userRepo.UpdateFields(user.ID, map[string]interface{}{
		"pending_cashback": user.PendingCashback,
	}); err != nil {
		return nil, wrapPersistence(err)
	}
	return txn, nil
}

// AfterTransactionCreated 事务提交后的收尾：调度延时自动确认
// 入队失败只记日志，到期交易由周期巡扫兜底。
func (s *LedgerService) AfterTransactionCreated(txn *models.CashbackTransaction) {
	if txn == nil || txn.ConfirmAt == nil || s.queueClient == nil {
		return
	}
	delay := time.Until(*txn.ConfirmAt)
	err := s.queueClient.EnqueueTransactionConfirm(queue.TransactionConfirmPayload{
		TransactionID: txn.ID,
	}, delay)
	if err != nil {
		logger.Warnw("调度自动确认任务失败，等待巡扫兜底",
			"transaction_id", txn.ID,
			"error", err,
		)
	}
}

// TransitionStatus 流转返利交易状态并同步调整余额
// 已挂接提现的交易一律拒绝（TransactionLocked）；非法流转拒绝（InvalidTransition）。
func (s *LedgerService) TransitionStatus(txnID uint, newStatus, reason string) (*models.CashbackTransaction, error) {
	if txnID == 0 {
		return nil, ErrInvalidInput
	}
	newStatus = strings.TrimSpace(newStatus)
	var result *models.CashbackTransaction
	err := s.txnRepo.Transaction(func(tx *gorm.DB) error {
		txnRepo := s.txnRepo.WithTx(tx)
		userRepo := s.userRepo.WithTx(tx)

		txn, err := txnRepo.GetByIDForUpdate(txnID)
		if err != nil {
			return wrapPersistence(err)
		}
		if txn == nil {
			return ErrTransactionNotFound
		}
		if txn.PayoutID != nil {
			return ErrTransactionLocked
		}
		if !transitionAllowed(txn.Status, newStatus) {
			return ErrInvalidTransition
		}

		user, err := userRepo.GetByIDForUpdate(txn.UserID)
		if err != nil {
			return wrapPersistence(err)
		}
		if user == nil {
			return ErrUserNotFound
		}

		updates, err := applyTransition(user, txn, newStatus)
		if err != nil {
			return err
		}
		now := time.Now()
		txn.Status = newStatus
		switch newStatus {
		case constants.TransactionStatusConfirmed:
			txn.ConfirmedAt = &now
		case constants.TransactionStatusRejected, constants.TransactionStatusCancelled:
			txn.RejectReason = strings.TrimSpace(reason)
		}
		if err := txnRepo.Update(txn); err != nil {
			return wrapPersistence(err)
		}
		if err := userRepo.UpdateFields(user.ID, updates); err != nil {
			return wrapPersistence(err)
		}
		result = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// applyTransition 计算流转对应的余额变更
// 任何扣减若会使余额为负，说明账本与余额已经失配，立即中止并告警，绝不钳制到零。
func applyTransition(user *models.User, txn *models.CashbackTransaction, newStatus string) (map[string]interface{}, error) {
	amount := txn.CashbackAmount.Decimal
	updates := map[string]interface{}{}

	debit := func(field string, current decimal.Decimal) (decimal.Decimal, error) {
		next := current.Sub(amount)
		if next.IsNegative() {
			logger.Errorw("余额扣减将导致负值，疑似账本失配",
				"user_id", user.ID,
				"transaction_id", txn.ID,
				"field", field,
				"current", current.String(),
				"amount", amount.String(),
			)
			return decimal.Zero, ErrBalanceCorruption
		}
		return next, nil
	}

	switch {
	case txn.Status == constants.TransactionStatusPending && newStatus == constants.TransactionStatusConfirmed:
		nextPending, err := debit("pending_cashback", user.PendingCashback.Decimal)
		if err != nil {
			return nil, err
		}
		updates["pending_cashback"] = models.NewMoneyFromDecimal(nextPending)
		updates["confirmed_balance"] = models.NewMoneyFromDecimal(user.ConfirmedBalance.Decimal.Add(amount))
		updates["lifetime_cashback"] = models.NewMoneyFromDecimal(user.LifetimeCashback.Decimal.Add(amount))

	case txn.Status == constants.TransactionStatusPending:
		// pending → rejected / cancelled
		nextPending, err := debit("pending_cashback", user.PendingCashback.Decimal)
		if err != nil {
			return nil, err
		}
		updates["pending_cashback"] = models.NewMoneyFromDecimal(nextPending)

	case txn.Status == constants.TransactionStatusConfirmed && newStatus == constants.TransactionStatusRejected:
		// 确认后撤回：同时回退累计返利
		nextConfirmed, err := debit("confirmed_balance", user.ConfirmedBalance.Decimal)
		if err != nil {
			return nil, err
		}
		nextLifetime, err := debit("lifetime_cashback", user.LifetimeCashback.Decimal)
		if err != nil {
			return nil, err
		}
		updates["confirmed_balance"] = models.NewMoneyFromDecimal(nextConfirmed)
		updates["lifetime_cashback"] = models.NewMoneyFromDecimal(nextLifetime)

	default:
		return nil, ErrInvalidTransition
	}
	return updates, nil
}

// ConfirmTransaction 自动确认单笔到期交易（队列消费入口）
// 已非 pending 的交易视为已处理，幂等返回。
func (s *LedgerService) ConfirmTransaction(txnID uint) error {
	txn, err := s.txnRepo.GetByID(txnID)
	if err != nil {
		return wrapPersistence(err)
	}
	if txn == nil || txn.Status != constants.TransactionStatusPending {
		return nil
	}
	_, err = s.TransitionStatus(txnID, constants.TransactionStatusConfirmed, "")
	if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrTransactionLocked) || errors.Is(err, ErrTransactionNotFound) {
		// 与其他确认路径竞争属正常情况
		return nil
	}
	return err
}

// ConfirmDue 巡扫确认全部到期交易，返回成功确认的笔数
func (s *LedgerService) ConfirmDue(now time.Time, limit int) (int, error) {
	due, err := s.txnRepo.ListDueForConfirm(now, limit)
	if err != nil {
		return 0, wrapPersistence(err)
	}
	confirmed := 0
	for _, txn := range due {
		if err := s.ConfirmTransaction(txn.ID); err != nil {
			logger.Errorw("自动确认交易失败",
				"transaction_id", txn.ID,
				"error", err,
			)
			continue
		}
		confirmed++
	}
	return confirmed, nil
}

// GetTransaction 按ID获取返利交易
func (s *LedgerService) GetTransaction(id uint) (*models.CashbackTransaction, error) {
	txn, err := s.txnRepo.GetByID(id)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}
	return txn, nil
}

// ListTransactions 分页查询返利交易
func (s *LedgerService) ListTransactions(filter repository.TransactionListFilter) ([]models.CashbackTransaction, int64, error) {
	txns, total, err := s.txnRepo.List(filter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return txns, total, nil
}

// AuditBalance 核对单个用户的余额与账本合计是否一致
// 只读操作，供管理端审计；不一致时记错误日志但不修正。
func (s *LedgerService) AuditBalance(userID uint) (*BalanceAudit, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	pendingSum, err := s.txnRepo.SumByUserStatus(userID, constants.TransactionStatusPending, false)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	confirmedSum, err := s.txnRepo.SumByUserStatus(userID, constants.TransactionStatusConfirmed, true)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	audit := &BalanceAudit{
		UserID:              user.ID,
		StoredPending:       user.PendingCashback,
		SummedPending:       models.NewMoneyFromDecimal(pendingSum),
		StoredConfirmed:     user.ConfirmedBalance,
		SummedConfirmed:     models.NewMoneyFromDecimal(confirmedSum),
		PendingConsistent:   user.PendingCashback.Decimal.Equal(pendingSum.Round(2)),
		ConfirmedConsistent: user.ConfirmedBalance.Decimal.Equal(confirmedSum.Round(2)),
	}
	if !audit.PendingConsistent || !audit.ConfirmedConsistent {
		logger.Errorw("余额与账本合计不一致",
			"user_id", user.ID,
			"stored_pending", audit.StoredPending.String(),
			"summed_pending", audit.SummedPending.String(),
			"stored_confirmed", audit.StoredConfirmed.String(),
			"summed_confirmed", audit.SummedConfirmed.String(),
		)
	}
	return audit, nil
}
