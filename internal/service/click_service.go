package service

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rupeeback/internal/constants"
	"github.com/rupeeback/internal/logger"
	"github.com/rupeeback/internal/models"
	"github.com/rupeeback/internal/repository"
)

// ClickService 点击记录服务
type ClickService struct {
	clickRepo    repository.ClickRepository
	merchantRepo repository.MerchantRepository
	productRepo  repository.ProductRepository
	couponRepo   repository.CouponRepository
	subIDParam   string
}

// RecordClickInput 记录点击输入
type RecordClickInput struct {
	ClickToken   string // 为空时服务端生成
	UserID       *uint
	MerchantSlug string
	ProductID    *uint
	CouponID     *uint
	ClientIP     string
	UserAgent    string
}

// RecordClickResult 记录点击结果
type RecordClickResult struct {
	Click       *models.Click
	RedirectURL string
	Created     bool // 本次是否插入了新记录（重复令牌为 false）
	Degraded    bool // 持久化失败但仍然放行跳转
}

// NewClickService 创建点击记录服务
func NewClickService(
	clickRepo repository.ClickRepository,
	merchantRepo repository.MerchantRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	subIDParam string,
) *ClickService {
	if strings.TrimSpace(subIDParam) == "" {
		subIDParam = "subid"
	}
	return &ClickService{
		clickRepo:    clickRepo,
		merchantRepo: merchantRepo,
		productRepo:  productRepo,
		couponRepo:   couponRepo,
		subIDParam:   subIDParam,
	}
}

// RecordClick 记录出站点击并构造跳转地址
// 点击落库失败不阻断跳转：用户体验优先，丢失的是我们自己的返利追踪。
func (s *ClickService) RecordClick(input RecordClickInput) (*RecordClickResult, error) {
	merchant, err := s.merchantRepo.GetActiveBySlug(strings.ToLower(strings.TrimSpace(input.MerchantSlug)))
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}

	var product *models.Product
	if input.ProductID != nil && *input.ProductID != 0 {
		product, err = s.productRepo.GetByID(*input.ProductID)
		if err != nil {
			return nil, wrapPersistence(err)
		}
		if product != nil && (product.MerchantID != merchant.ID || product.Status != constants.ProductStatusActive) {
			product = nil
		}
	}

	targetURL := merchant.TrackingURL
	if input.CouponID != nil && *input.CouponID != 0 {
		coupon, cErr := s.couponRepo.GetByID(*input.CouponID)
		if cErr != nil {
			return nil, wrapPersistence(cErr)
		}
		if coupon != nil && coupon.MerchantID == merchant.ID &&
			coupon.Status == constants.CouponStatusActive &&
			(coupon.ExpiresAt == nil || coupon.ExpiresAt.After(time.Now())) &&
			coupon.TargetURL != "" {
			targetURL = coupon.TargetURL
		}
	}

	token := strings.TrimSpace(input.ClickToken)
	if token == "" {
		token = uuid.NewString()
	}
	if len(token) > 64 {
		return nil, ErrClickTokenInvalid
	}

	rateType, rateValue := ResolveRate(merchant, product)
	redirectURL := s.BuildTrackedURL(targetURL, token)

	click := &models.Click{
		ClickToken: token,
		UserID:     input.UserID,
		MerchantID: merchant.ID,
		ProductID:  input.ProductID,
		CouponID:   input.CouponID,
		TargetURL:  redirectURL,
		RateType:   rateType,
		RateValue:  rateValue,
		ClientIP:   input.ClientIP,
		UserAgent:  input.UserAgent,
	}

	created, err := s.clickRepo.CreateIdempotent(click)
	if err != nil {
		logger.Errorw("记录点击失败，降级为直接跳转",
			"merchant_id", merchant.ID,
			"click_token", token,
			"error", err,
		)
		return &RecordClickResult{Click: click, RedirectURL: redirectURL, Degraded: true}, nil
	}
	return &RecordClickResult{Click: click, RedirectURL: redirectURL, Created: created}, nil
}

// GetClick 按令牌获取点击记录
func (s *ClickService) GetClick(token string) (*models.Click, error) {
	click, err := s.clickRepo.GetByToken(token)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if click == nil {
		return nil, ErrNotFound
	}
	return click, nil
}

// ListClicks 分页查询点击记录
func (s *ClickService) ListClicks(filter repository.ClickListFilter) ([]models.Click, int64, error) {
	clicks, total, err := s.clickRepo.List(filter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return clicks, total, nil
}

// BuildTrackedURL 在跳转链接上追加点击令牌参数
// 链接无法解析时原样返回，宁可丢追踪也不中断跳转。
func (s *ClickService) BuildTrackedURL(rawURL, token string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(s.subIDParam, token)
	u.RawQuery = q.Encode()
	return u.String()
}
