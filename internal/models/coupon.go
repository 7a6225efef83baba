package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券（仅用于出站链接装饰，不参与返利计算）
type Coupon struct {
	ID         uint           `gorm:"primarykey" json:"id"`                          // 主键
	MerchantID uint           `gorm:"not null;index" json:"merchant_id"`             // 所属商家ID
	Code       string         `gorm:"type:varchar(64);not null" json:"code"`         // 优惠码
	Title      string         `gorm:"type:varchar(255);not null" json:"title"`       // 标题
	TargetURL  string         `gorm:"type:varchar(1024)" json:"target_url"`          // 指定落地地址（为空则用商家跳转链接）
	Status     string         `gorm:"type:varchar(20);not null;index" json:"status"` // 状态
	ExpiresAt  *time.Time     `gorm:"index" json:"expires_at"`                       // 失效时间
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间

	Merchant Merchant `gorm:"foreignKey:MerchantID" json:"merchant,omitempty"` // 所属商家
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
