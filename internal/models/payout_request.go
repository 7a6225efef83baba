package models

import "time"

// PayoutRequest 提现申请
// 与余额清零、交易标记在同一事务内创建；amount 等于创建时刻核对后的可提现余额。
type PayoutRequest struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                  // 主键
	UserID       uint       `gorm:"not null;index" json:"user_id"`                         // 用户ID
	Amount       Money      `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`   // 提现金额（核对后的交易合计）
	Status       string     `gorm:"type:varchar(20);not null;index" json:"status"`         // 状态
	Method       string     `gorm:"type:varchar(32);not null" json:"method"`               // 提现方式
	Detail       string     `gorm:"type:varchar(255);not null" json:"detail"`              // 收款账户
	RejectReason string     `gorm:"type:varchar(255);default:''" json:"reject_reason"`     // 拒绝/失败原因
	ProcessedBy  *uint      `gorm:"index" json:"processed_by,omitempty"`                   // 审核管理员ID
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`                                // 审核时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt    time.Time  `gorm:"index" json:"updated_at"`                               // 更新时间

	Transactions []CashbackTransaction `gorm:"foreignKey:PayoutID" json:"transactions,omitempty"` // 本次提现消费的交易集合
}

// TableName 指定表名
func (PayoutRequest) TableName() string {
	return "payout_requests"
}
