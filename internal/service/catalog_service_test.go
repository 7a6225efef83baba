package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rupeeback/internal/constants"
	"github.com/rupeeback/internal/models"
	"github.com/rupeeback/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupCatalogServiceTest(t *testing.T) (*CatalogService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:catalog_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Merchant{}, &models.Product{}, &models.Coupon{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	svc := NewCatalogService(
		repository.NewMerchantRepository(db),
		repository.NewProductRepository(db),
		repository.NewCouponRepository(db),
	)
	return svc, db
}

func TestCreateMerchantNormalizesSlug(t *testing.T) {
	svc, _ := setupCatalogServiceTest(t)

	merchant, err := svc.CreateMerchant(MerchantInput{
		Name:         "FlipMart",
		Slug:         "  FlipMart  ",
		TrackingURL:  "https://track.example.com/flipmart",
		CashbackType: constants.CashbackTypePercent,
		CashbackRate: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if merchant.Slug != "flipmart" {
		t.Fatalf("slug not normalized: %q", merchant.Slug)
	}
	if merchant.Status != constants.MerchantStatusActive {
		t.Fatalf("expected default active status, got %s", merchant.Status)
	}

	found, err := svc.GetActiveMerchantBySlug("FLIPMART")
	if err != nil {
		t.Fatalf("slug lookup failed: %v", err)
	}
	if found.ID != merchant.ID {
		t.Fatalf("slug lookup returned wrong merchant")
	}
}

func TestCreateMerchantValidation(t *testing.T) {
	svc, _ := setupCatalogServiceTest(t)

	cases := []MerchantInput{
		{Slug: "no-name", TrackingURL: "https://x", CashbackType: constants.CashbackTypePercent},
		{Name: "No Tracking", Slug: "no-tracking", CashbackType: constants.CashbackTypePercent},
		{Name: "Bad Type", Slug: "bad-type", TrackingURL: "https://x", CashbackType: "points"},
		{Name: "Neg Rate", Slug: "neg-rate", TrackingURL: "https://x", CashbackType: constants.CashbackTypePercent,
			CashbackRate: models.NewMoneyFromDecimal(decimal.NewFromInt(-1))},
	}
	for i, input := range cases {
		if _, err := svc.CreateMerchant(input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestDisabledMerchantNotResolvedBySlug(t *testing.T) {
	svc, _ := setupCatalogServiceTest(t)

	merchant, err := svc.CreateMerchant(MerchantInput{
		Name:         "Closed Store",
		Slug:         "closed",
		TrackingURL:  "https://track.example.com/closed",
		CashbackType: constants.CashbackTypePercent,
		Status:       constants.MerchantStatusDisabled,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.GetActiveMerchantBySlug(merchant.Slug); !errors.Is(err, ErrMerchantNotFound) {
		t.Fatalf("disabled merchant must not resolve, got %v", err)
	}
}

func TestResolveRate(t *testing.T) {
	merchant := &models.Merchant{
		CashbackType: constants.CashbackTypePercent,
		CashbackRate: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
	}
	product := &models.Product{
		CashbackType: constants.CashbackTypeFixed,
		CashbackRate: models.NewMoneyFromDecimal(decimal.NewFromInt(120)),
	}

	rateType, rateValue := ResolveRate(merchant, product)
	if rateType != constants.CashbackTypeFixed || !rateValue.Decimal.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("product rate should win: %s %s", rateType, rateValue.String())
	}

	// 商品未定义费率时沿用商家费率
	rateType, rateValue = ResolveRate(merchant, &models.Product{})
	if rateType != constants.CashbackTypePercent || !rateValue.Decimal.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("merchant rate fallback failed: %s %s", rateType, rateValue.String())
	}

	rateType, rateValue = ResolveRate(merchant, nil)
	if rateType != constants.CashbackTypePercent || !rateValue.Decimal.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("nil product should use merchant rate: %s %s", rateType, rateValue.String())
	}
}

func TestCreateProductRequiresMerchant(t *testing.T) {
	svc, _ := setupCatalogServiceTest(t)

	_, err := svc.CreateProduct(ProductInput{
		MerchantID: 999,
		Name:       "Orphan Product",
	})
	if !errors.Is(err, ErrMerchantNotFound) {
		t.Fatalf("expected ErrMerchantNotFound, got %v", err)
	}
}

func TestCouponListOnlyValid(t *testing.T) {
	svc, db := setupCatalogServiceTest(t)

	merchant, err := svc.CreateMerchant(MerchantInput{
		Name:         "Coupon Store",
		Slug:         "coupon-store",
		TrackingURL:  "https://track.example.com/coupon-store",
		CashbackType: constants.CashbackTypePercent,
	})
	if err != nil {
		t.Fatalf("create merchant failed: %v", err)
	}

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	coupons := []models.Coupon{
		{MerchantID: merchant.ID, Code: "LIVE10", Title: "live", Status: constants.CouponStatusActive, ExpiresAt: &future},
		{MerchantID: merchant.ID, Code: "DEAD10", Title: "expired", Status: constants.CouponStatusActive, ExpiresAt: &past},
		{MerchantID: merchant.ID, Code: "OFF10", Title: "disabled", Status: constants.CouponStatusDisabled},
	}
	for i := range coupons {
		if err := db.Create(&coupons[i]).Error; err != nil {
			t.Fatalf("create coupon failed: %v", err)
		}
	}

	valid, total, err := svc.ListCoupons(repository.CouponListFilter{
		MerchantID: merchant.ID,
		OnlyValid:  true,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(valid) != 1 || valid[0].Code != "LIVE10" {
		t.Fatalf("expected only LIVE10, got total=%d rows=%d", total, len(valid))
	}
}
