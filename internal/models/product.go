package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表（可选的商品级费率，优先于商家级费率）
type Product struct {
	ID           uint           `gorm:"primarykey" json:"id"`                           // 主键
	MerchantID   uint           `gorm:"not null;index" json:"merchant_id"`              // 所属商家ID
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`         // 商品名称
	URL          string         `gorm:"type:varchar(1024)" json:"url"`                  // 商品页地址
	CashbackType string         `gorm:"type:varchar(16);default:''" json:"cashback_type"` // 返利类型（为空则沿用商家费率）
	CashbackRate Money          `gorm:"type:decimal(10,2);not null;default:0" json:"cashback_rate"` // 返利费率
	Status       string         `gorm:"type:varchar(20);not null;index" json:"status"`  // 状态
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间

	Merchant Merchant `gorm:"foreignKey:MerchantID" json:"merchant,omitempty"` // 所属商家
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
