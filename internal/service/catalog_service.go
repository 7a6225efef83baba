package service

import (
	"strings"
	"time"

	"github.com/rupeeback/internal/constants"
	"github.com/rupeeback/internal/models"
	"github.com/rupeeback/internal/repository"
)

// CatalogService 目录服务（商家 / 商品 / 优惠券）
type CatalogService struct {
	merchantRepo repository.MerchantRepository
	productRepo  repository.ProductRepository
	couponRepo   repository.CouponRepository
}

// MerchantInput 商家创建/更新输入
type MerchantInput struct {
	Name         string
	Slug         string
	SiteURL      string
	TrackingURL  string
	CashbackType string
	CashbackRate models.Money
	Status       string
}

// ProductInput 商品创建/更新输入
type ProductInput struct {
	MerchantID   uint
	Name         string
	URL          string
	CashbackType string
	CashbackRate models.Money
	Status       string
}

// CouponInput 优惠券创建/更新输入
type CouponInput struct {
	MerchantID uint
	Code       string
	Title      string
	TargetURL  string
	Status     string
	ExpiresAt  *time.Time
}

// NewCatalogService 创建目录服务
func NewCatalogService(
	merchantRepo repository.MerchantRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
) *CatalogService {
	return &CatalogService{
		merchantRepo: merchantRepo,
		productRepo:  productRepo,
		couponRepo:   couponRepo,
	}
}

func validCashbackType(t string) bool {
	return t == constants.CashbackTypePercent || t == constants.CashbackTypeFixed
}

func validCatalogStatus(s string) bool {
	return s == constants.MerchantStatusActive || s == constants.MerchantStatusDisabled
}

func (in *MerchantInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.SiteURL = strings.TrimSpace(in.SiteURL)
	in.TrackingURL = strings.TrimSpace(in.TrackingURL)
	if in.Status == "" {
		in.Status = constants.MerchantStatusActive
	}
	if in.Name == "" || in.Slug == "" || in.TrackingURL == "" {
		return ErrInvalidInput
	}
	if !validCashbackType(in.CashbackType) || !validCatalogStatus(in.Status) {
		return ErrInvalidInput
	}
	if in.CashbackRate.IsNegative() {
		return ErrInvalidInput
	}
	return nil
}

// CreateMerchant 创建商家
func (s *CatalogService) CreateMerchant(input MerchantInput) (*models.Merchant, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	merchant := &models.Merchant{
		Name:         input.Name,
		Slug:         input.Slug,
		SiteURL:      input.SiteURL,
		TrackingURL:  input.TrackingURL,
		CashbackType: input.CashbackType,
		CashbackRate: input.CashbackRate,
		Status:       input.Status,
	}
	if err := s.merchantRepo.Create(merchant); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrInvalidInput
		}
		return nil, wrapPersistence(err)
	}
	return merchant, nil
}

// UpdateMerchant 更新商家
// 费率变更只影响此后的新点击，历史点击的费率快照保持不变。
func (s *CatalogService) UpdateMerchant(id uint, input MerchantInput) (*models.Merchant, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	merchant, err := s.merchantRepo.GetByID(id)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if merchant == nil {
		return nil, ErrNotFound
	}
	merchant.Name = input.Name
	merchant.Slug = input.Slug
	merchant.SiteURL = input.SiteURL
	merchant.TrackingURL = input.TrackingURL
	merchant.CashbackType = input.CashbackType
	merchant.CashbackRate = input.CashbackRate
	merchant.Status = input.Status
	if err := s.merchantRepo.Update(merchant); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrInvalidInput
		}
		return nil, wrapPersistence(err)
	}
	return merchant, nil
}

// GetMerchant 按ID获取商家
func (s *CatalogService) GetMerchant(id uint) (*models.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(id)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if merchant == nil {
		return nil, ErrNotFound
	}
	return merchant, nil
}

// GetActiveMerchantBySlug 按跳转标识获取启用中的商家
func (s *CatalogService) GetActiveMerchantBySlug(slug string) (*models.Merchant, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, ErrMerchantNotFound
	}
	merchant, err := s.merchantRepo.GetActiveBySlug(slug)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	return merchant, nil
}

// ListMerchants 分页查询商家
func (s *CatalogService) ListMerchants(filter repository.MerchantListFilter) ([]models.Merchant, int64, error) {
	merchants, total, err := s.merchantRepo.List(filter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return merchants, total, nil
}

// CreateProduct 创建商品
func (s *CatalogService) CreateProduct(input ProductInput) (*models.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Status == "" {
		input.Status = constants.ProductStatusActive
	}
	if input.MerchantID == 0 || input.Name == "" || !validCatalogStatus(input.Status) {
		return nil, ErrInvalidInput
	}
	// 商品费率可缺省，缺省时沿用商家费率
	if input.CashbackType != "" && !validCashbackType(input.CashbackType) {
		return nil, ErrInvalidInput
	}
	if input.CashbackRate.IsNegative() {
		return nil, ErrInvalidInput
	}
	merchant, err := s.merchantRepo.GetByID(input.MerchantID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	product := &models.Product{
		MerchantID:   input.MerchantID,
		Name:         input.Name,
		URL:          strings.TrimSpace(input.URL),
		CashbackType: input.CashbackType,
		CashbackRate: input.CashbackRate,
		Status:       input.Status,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, wrapPersistence(err)
	}
	return product, nil
}

// UpdateProduct 更新商品
func (s *CatalogService) UpdateProduct(id uint, input ProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if product == nil {
		return nil, ErrNotFound
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || !validCatalogStatus(input.Status) {
		return nil, ErrInvalidInput
	}
	if input.CashbackType != "" && !validCashbackType(input.CashbackType) {
		return nil, ErrInvalidInput
	}
	if input.CashbackRate.IsNegative() {
		return nil, ErrInvalidInput
	}
	product.Name = input.Name
	product.URL = strings.TrimSpace(input.URL)
	product.CashbackType = input.CashbackType
	product.CashbackRate = input.CashbackRate
	product.Status = input.Status
	if err := s.productRepo.Update(product); err != nil {
		return nil, wrapPersistence(err)
	}
	return product, nil
}

// ListProducts 分页查询商品
func (s *CatalogService) ListProducts(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	products, total, err := s.productRepo.List(filter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return products, total, nil
}

// CreateCoupon 创建优惠券
func (s *CatalogService) CreateCoupon(input CouponInput) (*models.Coupon, error) {
	input.Code = strings.TrimSpace(input.Code)
	input.Title = strings.TrimSpace(input.Title)
	if input.Status == "" {
		input.Status = constants.CouponStatusActive
	}
	if input.MerchantID == 0 || input.Code == "" || input.Title == "" || !validCatalogStatus(input.Status) {
		return nil, ErrInvalidInput
	}
	merchant, err := s.merchantRepo.GetByID(input.MerchantID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	coupon := &models.Coupon{
		MerchantID: input.MerchantID,
		Code:       input.Code,
		Title:      input.Title,
		TargetURL:  strings.TrimSpace(input.TargetURL),
		Status:     input.Status,
		ExpiresAt:  input.ExpiresAt,
	}
	if err := s.couponRepo.Create(coupon); err != nil {
		return nil, wrapPersistence(err)
	}
	return coupon, nil
}

// UpdateCoupon 更新优惠券
func (s *CatalogService) UpdateCoupon(id uint, input CouponInput) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if coupon == nil {
		return nil, ErrNotFound
	}
	input.Code = strings.TrimSpace(input.Code)
	input.Title = strings.TrimSpace(input.Title)
	if input.Code == "" || input.Title == "" || !validCatalogStatus(input.Status) {
		return nil, ErrInvalidInput
	}
	coupon.Code = input.Code
	coupon.Title = input.Title
	coupon.TargetURL = strings.TrimSpace(input.TargetURL)
	coupon.Status = input.Status
	coupon.ExpiresAt = input.ExpiresAt
	if err := s.couponRepo.Update(coupon); err != nil {
		return nil, wrapPersistence(err)
	}
	return coupon, nil
}

// ListCoupons 分页查询优惠券
func (s *CatalogService) ListCoupons(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	coupons, total, err := s.couponRepo.List(filter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return coupons, total, nil
}

// ResolveRate 解析点击时刻应冻结的费率快照
// 商品级费率（cashback_type 非空）优先于商家级费率。
func ResolveRate(merchant *models.Merchant, product *models.Product) (string, models.Money) {
	if product != nil && product.CashbackType != "" {
		return product.CashbackType, product.CashbackRate
	}
	return merchant.CashbackType, merchant.CashbackRate
}
