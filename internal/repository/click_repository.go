package repository

import (
	"errors"
	"strings"

	"github.com/rupeeback/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClickRepository 点击记录数据访问接口
type ClickRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ClickRepository

	CreateIdempotent(click *models.Click) (bool, error)
	GetByToken(token string) (*models.Click, error)
	GetByTokenForUpdate(token string) (*models.Click, error)
	SetConversionRef(token string, conversionID uint) error
	List(filter ClickListFilter) ([]models.Click, int64, error)
}

// GormClickRepository GORM 点击记录仓储
type GormClickRepository struct {
	db *gorm.DB
}

// NewClickRepository 创建点击记录仓储
func NewClickRepository(db *gorm.DB) *GormClickRepository {
	return &GormClickRepository{db: db}
}

// WithTx 绑定事务
func (r *GormClickRepository) WithTx(tx *gorm.DB) ClickRepository {
	if tx == nil {
		return r
	}
	return &GormClickRepository{db: tx}
}

// Transaction 执行事务
func (r *GormClickRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// CreateIdempotent 幂等写入点击记录
// 以 click_token 为主键，重复令牌的写入静默忽略（客户端重试跳转是预期行为）。
// 返回本次是否真正插入了新记录。
func (r *GormClickRepository) CreateIdempotent(click *models.Click) (bool, error) {
	if click == nil || strings.TrimSpace(click.ClickToken) == "" {
		return false, gorm.ErrInvalidData
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "click_token"}},
		DoNothing: true,
	}).Create(click)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetByToken 按令牌获取点击记录
func (r *GormClickRepository) GetByToken(token string) (*models.Click, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	var click models.Click
	if err := r.db.Where("click_token = ?", token).First(&click).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &click, nil
}

// GetByTokenForUpdate 按令牌加锁获取点击记录
func (r *GormClickRepository) GetByTokenForUpdate(token string) (*models.Click, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	var click models.Click
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("click_token = ?", token).
		First(&click).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &click, nil
}

// SetConversionRef 回填匹配到的转化ID（点击记录唯一允许的修改）
func (r *GormClickRepository) SetConversionRef(token string, conversionID uint) error {
	if strings.TrimSpace(token) == "" || conversionID == 0 {
		return nil
	}
	return r.db.Model(&models.Click{}).
		Where("click_token = ? AND conversion_id IS NULL", token).
		Update("conversion_id", conversionID).Error
}

// List 分页查询点击记录
func (r *GormClickRepository) List(filter ClickListFilter) ([]models.Click, int64, error) {
	query := r.db.Model(&models.Click{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.OnlyMatched {
		query = query.Where("conversion_id IS NOT NULL")
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
	var clicks []models.Click
	if err := query.Order("created_at DESC").Find(&clicks).Error; err != nil {
		return nil, 0, err
	}
	return clicks, total, nil
}
