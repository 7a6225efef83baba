package models

import (
	"time"

	"gorm.io/gorm"
)

// Merchant 商家表（目录只读边界：点击时快照其返利费率）
type Merchant struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                      // 主键
	Name         string         `gorm:"type:varchar(128);not null" json:"name"`                    // 商家名称
	Slug         string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`         // 跳转路径标识
	SiteURL      string         `gorm:"type:varchar(512);not null" json:"site_url"`                // 商家站点地址
	TrackingURL  string         `gorm:"type:varchar(1024);not null" json:"tracking_url"`           // 联盟跳转链接（追加 subid 参数）
	CashbackType string         `gorm:"type:varchar(16);not null" json:"cashback_type"`            // 返利类型（percent/fixed）
	CashbackRate Money          `gorm:"type:decimal(10,2);not null;default:0" json:"cashback_rate"` // 返利费率（百分比或固定金额）
	Status       string         `gorm:"type:varchar(20);not null;index" json:"status"`             // 状态
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (Merchant) TableName() string {
	return "merchants"
}
