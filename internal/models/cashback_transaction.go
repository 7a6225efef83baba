package models

import "time"

// CashbackTransaction 返利账本交易
// cashback_amount 在创建时一次性计算并冻结；payout_id 非空表示已被提现消费，
// 此后任何状态流转都会被拒绝。
type CashbackTransaction struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                        // 主键
	UserID         uint       `gorm:"not null;index" json:"user_id"`                               // 用户ID
	MerchantID     uint       `gorm:"not null;index" json:"merchant_id"`                           // 商家ID
	ConversionID   uint       `gorm:"not null;uniqueIndex" json:"conversion_id"`                   // 来源转化ID（一笔转化至多一条交易）
	OrderID        string     `gorm:"type:varchar(128);not null" json:"order_id"`                  // 商家侧订单号
	SaleAmount     Money      `gorm:"type:decimal(20,2);not null;default:0" json:"sale_amount"`    // 订单金额
	CashbackAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"cashback_amount"` // 返利金额（创建时冻结）
	Status         string     `gorm:"type:varchar(20);not null;index" json:"status"`               // 状态
	PayoutID       *uint      `gorm:"index" json:"payout_id,omitempty"`                            // 消费该交易的提现申请ID
	RejectReason   string     `gorm:"type:varchar(255);default:''" json:"reject_reason"`           // 拒绝/取消原因
	ConfirmAt      *time.Time `gorm:"index" json:"confirm_at,omitempty"`                           // 计划自动确认时间
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`                                      // 实际确认时间
	PaidAt         *time.Time `json:"paid_at,omitempty"`                                           // 打款时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt      time.Time  `gorm:"index" json:"updated_at"`                                     // 更新时间

	Merchant Merchant `gorm:"foreignKey:MerchantID" json:"merchant,omitempty"` // 商家信息
}

// TableName 指定表名
func (CashbackTransaction) TableName() string {
	return "cashback_transactions"
}
