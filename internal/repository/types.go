package repository

import "time"

// MerchantListFilter 查询商家列表的过滤条件
type MerchantListFilter struct {
	Page       int
	PageSize   int
	Status     string
	Search     string
	OnlyActive bool
}

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	MerchantID uint
	Status     string
	Search     string
}

// CouponListFilter 查询优惠券列表的过滤条件
type CouponListFilter struct {
	Page       int
	PageSize   int
	MerchantID uint
	Status     string
	OnlyValid  bool
}

// ClickListFilter 查询点击列表的过滤条件
type ClickListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	MerchantID  uint
	OnlyMatched bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ConversionListFilter 查询转化列表的过滤条件
type ConversionListFilter struct {
	Page        int
	PageSize    int
	MerchantID  uint
	OrderID     string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// TransactionListFilter 查询返利交易列表的过滤条件
type TransactionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	MerchantID  uint
	OrderID     string
	Status      string
	PayoutID    uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PayoutListFilter 查询提现申请列表的过滤条件
type PayoutListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Status   string
}
