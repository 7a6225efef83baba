package constants

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 商家状态常量
const (
	MerchantStatusActive   = "active"
	MerchantStatusDisabled = "disabled"
)

// 返利类型常量（百分比 / 固定金额）
const (
	CashbackTypePercent = "percent"
	CashbackTypeFixed   = "fixed"
)

// 商品状态常量
const (
	ProductStatusActive   = "active"
	ProductStatusDisabled = "disabled"
)

// 优惠券状态常量
const (
	CouponStatusActive   = "active"
	CouponStatusDisabled = "disabled"
)

// 转化记录状态常量
const (
	ConversionStatusMatched   = "matched"
	ConversionStatusUnmatched = "unmatched"
)

// 返利交易状态常量
const (
	TransactionStatusPending   = "pending"
	TransactionStatusConfirmed = "confirmed"
	TransactionStatusRejected  = "rejected"
	TransactionStatusCancelled = "cancelled"
	TransactionStatusPaid      = "paid"
)

// 提现申请状态常量
const (
	PayoutStatusPending  = "pending"
	PayoutStatusApproved = "approved"
	PayoutStatusPaid     = "paid"
	PayoutStatusRejected = "rejected"
	PayoutStatusFailed   = "failed"
)

// 提现审核动作常量
const (
	PayoutActionApprove = "approve"
	PayoutActionPay     = "pay"
	PayoutActionReject  = "reject"
	PayoutActionFail    = "fail"
)

// 提现方式常量
const (
	PayoutMethodBank   = "bank"
	PayoutMethodUPI    = "upi"
	PayoutMethodWallet = "wallet"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskTransactionConfirm = "transaction:confirm"
)
