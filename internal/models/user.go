package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（含返利余额三字段与最近提现方式）
type User struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                    // 主键
	Email            string         `gorm:"uniqueIndex;not null" json:"email"`                       // 邮箱
	PasswordHash     string         `gorm:"not null" json:"-"`                                       // 密码哈希（不返回给前端）
	DisplayName      string         `gorm:"default:''" json:"display_name"`                          // 昵称
	Status           string         `gorm:"default:'active'" json:"status"`                          // 账号状态
	PendingCashback  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"pending_cashback"`  // 待确认返利
	ConfirmedBalance Money          `gorm:"type:decimal(20,2);not null;default:0" json:"confirmed_balance"` // 可提现余额
	LifetimeCashback Money          `gorm:"type:decimal(20,2);not null;default:0" json:"lifetime_cashback"` // 累计返利
	LastPayoutMethod string         `gorm:"type:varchar(32);default:''" json:"last_payout_method"`   // 最近提现方式（表单预填）
	LastPayoutDetail string         `gorm:"type:varchar(255);default:''" json:"last_payout_detail"`  // 最近提现账户（表单预填）
	LastPayoutAt     *time.Time     `json:"last_payout_at"`                                          // 最近提现申请时间
	TokenVersion     uint64         `gorm:"not null;default:0" json:"-"`                             // Token 版本（用于全量失效）
	LastLoginAt      *time.Time     `json:"last_login_at"`                                           // 最后登录时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
