package models

import "time"

// Click 跳转点击记录
// 以客户端生成的 click_token 作为主键实现幂等写入；
// 费率在点击时刻快照冻结，后续目录费率调整不影响已产生的点击。
// 记录只增不删，转化匹配成功后仅回填 conversion_id。
type Click struct {
	ClickToken   string     `gorm:"primaryKey;type:varchar(64)" json:"click_token"`             // 点击令牌（客户端生成，主键）
	UserID       *uint      `gorm:"index" json:"user_id,omitempty"`                             // 用户ID（匿名点击为空）
	MerchantID   uint       `gorm:"not null;index" json:"merchant_id"`                          // 商家ID
	ProductID    *uint      `gorm:"index" json:"product_id,omitempty"`                          // 商品ID
	CouponID     *uint      `gorm:"index" json:"coupon_id,omitempty"`                           // 优惠券ID
	TargetURL    string     `gorm:"type:varchar(1024);not null" json:"target_url"`              // 最终出站地址
	RateType     string     `gorm:"type:varchar(16);not null" json:"rate_type"`                 // 点击时刻的返利类型快照
	RateValue    Money      `gorm:"type:decimal(10,2);not null;default:0" json:"rate_value"`    // 点击时刻的返利费率快照
	ConversionID *uint      `gorm:"index" json:"conversion_id,omitempty"`                       // 匹配到的转化ID（回填）
	ClientIP     string     `gorm:"type:varchar(64)" json:"client_ip"`                          // 客户端IP
	UserAgent    string     `gorm:"type:varchar(1024)" json:"user_agent"`                       // 客户端UA
	CreatedAt    time.Time  `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"` // 创建时间

	Merchant Merchant `gorm:"foreignKey:MerchantID" json:"merchant,omitempty"` // 商家信息
}

// TableName 指定表名
func (Click) TableName() string {
	return "clicks"
}
