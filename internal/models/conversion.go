package models

import "time"

// Conversion 联盟转化记录（一笔上报订单一条，创建后不再修改）
// 去重自然键为 (merchant_id, order_id)：订单号在不同商家间可能重复。
type Conversion struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                                              // 主键
	ClickToken string    `gorm:"type:varchar(64);index" json:"click_token"`                                         // 上报携带的点击令牌（可能匹配失败）
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`                                                    // 用户ID（来自匹配到的点击）
	MerchantID uint      `gorm:"not null;index;index:idx_conversion_merchant_order,unique" json:"merchant_id"`      // 商家ID
	OrderID    string    `gorm:"type:varchar(128);not null;index:idx_conversion_merchant_order,unique" json:"order_id"` // 商家侧订单号
	SaleAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"sale_amount"`                          // 订单金额
	Status     string    `gorm:"type:varchar(20);not null;index" json:"status"`                                     // 匹配状态（matched/unmatched）
	RawPayload string    `gorm:"type:text" json:"-"`                                                                // 原始上报报文（审计用）
	CreatedAt  time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"`                        // 创建时间
}

// TableName 指定表名
func (Conversion) TableName() string {
	return "conversions"
}
