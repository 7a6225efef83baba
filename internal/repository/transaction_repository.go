package repository

import (
	"errors"
	"time"

	"github.com/rupeeback/internal/constants"
	"github.com/rupeeback/internal/models"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository 返利交易（账本）数据访问接口
type TransactionRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) TransactionRepository

	Create(txn *models.CashbackTransaction) error
	GetByID(id uint) (*models.CashbackTransaction, error)
	GetByIDForUpdate(id uint) (*models.CashbackTransaction, error)
	GetByConversionID(conversionID uint) (*models.CashbackTransaction, error)
	Update(txn *models.CashbackTransaction) error
	List(filter TransactionListFilter) ([]models.CashbackTransaction, int64, error)
	ListConfirmedUnpaidForUpdate(userID uint) ([]models.CashbackTransaction, error)
	SumByUserStatus(userID uint, status string, unpaidOnly bool) (decimal.Decimal, error)
	BatchMarkPaid(ids []uint, payoutID uint, paidAt time.Time) (int64, error)
	ListDueForConfirm(now time.Time, limit int) ([]models.CashbackTransaction, error)
}

// GormTransactionRepository GORM 返利交易仓储
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建返利交易仓储
func NewTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTransactionRepository) WithTx(tx *gorm.DB) TransactionRepository {
	if tx == nil {
		return r
	}
	return &GormTransactionRepository{db: tx}
}

// Transaction 执行事务
func (r *GormTransactionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建返利交易
func (r *GormTransactionRepository) Create(txn *models.CashbackTransaction) error {
	if txn == nil {
		return gorm.ErrInvalidData
	}
	return r.db.Create(txn).Error
}

// GetByID 按ID获取返利交易
func (r *GormTransactionRepository) GetByID(id uint) (*models.CashbackTransaction, error) {
	if id == 0 {
		return nil, nil
	}
	var txn models.CashbackTransaction
	if err := r.db.First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// GetByIDForUpdate 按ID加锁获取返利交易
func (r *GormTransactionRepository) GetByIDForUpdate(id uint) (*models.CashbackTransaction, error) {
	if id == 0 {
		return nil, nil
	}
	var txn models.CashbackTransaction
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// GetByConversionID 按转化ID获取返利交易
func (r *GormTransactionRepository) GetByConversionID(conversionID uint) (*models.CashbackTransaction, error) {
	if conversionID == 0 {
		return nil, nil
	}
	var txn models.CashbackTransaction
	if err := r.db.Where("conversion_id = ?", conversionID).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// Update 更新返利交易
func (r *GormTransactionRepository) Update(txn *models.CashbackTransaction) error {
	if txn == nil || txn.ID == 0 {
		return gorm.ErrInvalidData
	}
	return r.db.Save(txn).Error
}

// List 分页查询返利交易
func (r *GormTransactionRepository) List(filter TransactionListFilter) ([]models.CashbackTransaction, int64, error) {
	query := r.db.Model(&models.CashbackTransaction{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PayoutID != 0 {
		query = query.Where("payout_id = ?", filter.PayoutID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at < ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var txns []models.CashbackTransaction
	if err := query.Order("id DESC").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// ListConfirmedUnpaidForUpdate 加锁获取用户全部已确认未支付交易
func (r *GormTransactionRepository) ListConfirmedUnpaidForUpdate(userID uint) ([]models.CashbackTransaction, error) {
	if userID == 0 {
		return nil, nil
	}
	var txns []models.CashbackTransaction
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status = ? AND payout_id IS NULL", userID, constants.TransactionStatusConfirmed).
		Order("id ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// SumByUserStatus 汇总用户某状态下的返利金额
func (r *GormTransactionRepository) SumByUserStatus(userID uint, status string, unpaidOnly bool) (decimal.Decimal, error) {
	if userID == 0 || status == "" {
		return decimal.Zero, nil
	}
	query := r.db.Model(&models.CashbackTransaction{}).
		Where("user_id = ? AND status = ?", userID, status)
	if unpaidOnly {
		query = query.Where("payout_id IS NULL")
	}
	var sum decimal.NullDecimal
	if err := query.Select("COALESCE(SUM(cashback_amount), 0)").Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// BatchMarkPaid 批量标记交易为已支付并挂接提现申请
// WHERE 条件重申状态与未支付约束，返回实际命中的行数供调用方核对。
func (r *GormTransactionRepository) BatchMarkPaid(ids []uint, payoutID uint, paidAt time.Time) (int64, error) {
	if len(ids) == 0 || payoutID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.CashbackTransaction{}).
		Where("id IN ? AND status = ? AND payout_id IS NULL", ids, constants.TransactionStatusConfirmed).
		Updates(map[string]interface{}{
			"status":    constants.TransactionStatusPaid,
			"payout_id": payoutID,
			"paid_at":   paidAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListDueForConfirm 获取到期待自动确认的交易
func (r *GormTransactionRepository) ListDueForConfirm(now time.Time, limit int) ([]models.CashbackTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var txns []models.CashbackTransaction
	err := r.db.Where("status = ? AND confirm_at IS NOT NULL AND confirm_at <= ?", constants.TransactionStatusPending, now).
		Order("confirm_at ASC").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
