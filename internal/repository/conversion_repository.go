package repository

import (
	"errors"
	"strings"

	"github.com/rupeeback/internal/models"

	"gorm.io/gorm"
)

// ConversionRepository 转化记录数据访问接口
type ConversionRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ConversionRepository

	Create(conversion *models.Conversion) error
	GetByID(id uint) (*models.Conversion, error)
	GetByMerchantAndOrder(merchantID uint, orderID string) (*models.Conversion, error)
	List(filter ConversionListFilter) ([]models.Conversion, int64, error)
}

// GormConversionRepository GORM 转化记录仓储
type GormConversionRepository struct {
	db *gorm.DB
}

// NewConversionRepository 创建转化记录仓储
func NewConversionRepository(db *gorm.DB) *GormConversionRepository {
	return &GormConversionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormConversionRepository) WithTx(tx *gorm.DB) ConversionRepository {
	if tx == nil {
		return r
	}
	return &GormConversionRepository{db: tx}
}

// Transaction 执行事务
func (r *GormConversionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建转化记录
// (merchant_id, order_id) 唯一索引兜底去重，违反约束由调用方识别为重复上报。
func (r *GormConversionRepository) Create(conversion *models.Conversion) error {
	return r.db.Create(conversion).Error
}

// GetByID 按ID获取转化记录
func (r *GormConversionRepository) GetByID(id uint) (*models.Conversion, error) {
	if id == 0 {
		return nil, nil
	}
	var conversion models.Conversion
	if err := r.db.First(&conversion, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conversion, nil
}

// GetByMerchantAndOrder 按 (商家, 订单号) 获取转化记录
func (r *GormConversionRepository) GetByMerchantAndOrder(merchantID uint, orderID string) (*models.Conversion, error) {
	orderID = strings.TrimSpace(orderID)
	if merchantID == 0 || orderID == "" {
		return nil, nil
	}
	var conversion models.Conversion
	if err := r.db.Where("merchant_id = ? AND order_id = ?", merchantID, orderID).
		First(&conversion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conversion, nil
}

// List 分页查询转化记录
func (r *GormConversionRepository) List(filter ConversionListFilter) ([]models.Conversion, int64, error) {
	query := r.db.Model(&models.Conversion{})
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if orderID := strings.TrimSpace(filter.OrderID); orderID != "" {
		query = query.Where("order_id = ?", orderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
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
	var conversions []models.Conversion
	if err := query.Order("id DESC").Find(&conversions).Error; err != nil {
		return nil, 0, err
	}
	return conversions, total, nil
}
