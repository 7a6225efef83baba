package repository

import (
	"errors"
	"strings"

	"github.com/rupeeback/internal/constants"
	"github.com/rupeeback/internal/models"

	"gorm.io/gorm"
)

// MerchantRepository 商家数据访问接口
type MerchantRepository interface {
	Create(merchant *models.Merchant) error
	Update(merchant *models.Merchant) error
	GetByID(id uint) (*models.Merchant, error)
	GetActiveByID(id uint) (*models.Merchant, error)
	GetActiveBySlug(slug string) (*models.Merchant, error)
	List(filter MerchantListFilter) ([]models.Merchant, int64, error)
}

// GormMerchantRepository GORM 商家仓储实现
type GormMerchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository 创建商家仓储
func NewMerchantRepository(db *gorm.DB) *GormMerchantRepository {
	return &GormMerchantRepository{db: db}
}

// Create 创建商家
func (r *GormMerchantRepository) Create(merchant *models.Merchant) error {
	return r.db.Create(merchant).Error
}

// Update 更新商家
func (r *GormMerchantRepository) Update(merchant *models.Merchant) error {
	return r.db.Save(merchant).Error
}

// GetByID 按ID获取商家
func (r *GormMerchantRepository) GetByID(id uint) (*models.Merchant, error) {
	if id == 0 {
		return nil, nil
	}
	var merchant models.Merchant
	if err := r.db.First(&merchant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &merchant, nil
}

// GetActiveByID 按ID获取启用状态的商家
func (r *GormMerchantRepository) GetActiveByID(id uint) (*models.Merchant, error) {
	merchant, err := r.GetByID(id)
	if err != nil || merchant == nil {
		return nil, err
	}
	if strings.TrimSpace(merchant.Status) != constants.MerchantStatusActive {
		return nil, nil
	}
	return merchant, nil
}

// GetActiveBySlug 按跳转标识获取启用状态的商家
func (r *GormMerchantRepository) GetActiveBySlug(slug string) (*models.Merchant, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var merchant models.Merchant
	if err := r.db.Where("slug = ? AND status = ?", slug, constants.MerchantStatusActive).
		First(&merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &merchant, nil
}

// List 分页查询商家
func (r *GormMerchantRepository) List(filter MerchantListFilter) ([]models.Merchant, int64, error) {
	query := r.db.Model(&models.Merchant{})
	if filter.OnlyActive {
		query = query.Where("status = ?", constants.MerchantStatusActive)
	} else if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var merchants []models.Merchant
	if err := query.Order("id DESC").Find(&merchants).Error; err != nil {
		return nil, 0, err
	}
	return merchants, total, nil
}
