package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rupeeback/internal/constants"
	"github.com/rupeeback/internal/models"
	"github.com/rupeeback/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupClickServiceTest(t *testing.T) (*ClickService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:click_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Merchant{}, &models.Product{}, &models.Coupon{}, &models.Click{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	svc := NewClickService(
		repository.NewClickRepository(db),
		repository.NewMerchantRepository(db),
		repository.NewProductRepository(db),
		repository.NewCouponRepository(db),
		"subid",
	)
	return svc, db
}

func createClickTestMerchant(t *testing.T, db *gorm.DB, slug string, rate float64) models.Merchant {
	t.Helper()

	row := models.Merchant{
		Name:         "Test Store " + slug,
		Slug:         slug,
		SiteURL:      "https://" + slug + ".example.com",
		TrackingURL:  "https://track.example.com/" + slug,
		CashbackType: constants.CashbackTypePercent,
		CashbackRate: models.NewMoneyFromDecimal(decimal.NewFromFloat(rate)),
		Status:       constants.MerchantStatusActive,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create merchant failed: %v", err)
	}
	return row
}

func TestRecordClickIdempotentToken(t *testing.T) {
	svc, db := setupClickServiceTest(t)
	createClickTestMerchant(t, db, "flipmart", 5)

	first, err := svc.RecordClick(RecordClickInput{
		ClickToken:   "tok-idem-1",
		MerchantSlug: "flipmart",
		ClientIP:     "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("first record failed: %v", err)
	}
	if !first.Created {
		t.Fatalf("expected first click to be created")
	}

	second, err := svc.RecordClick(RecordClickInput{
		ClickToken:   "tok-idem-1",
		MerchantSlug: "flipmart",
		ClientIP:     "10.0.0.2",
	})
	if err != nil {
		t.Fatalf("second record failed: %v", err)
	}
	if second.Created {
		t.Fatalf("expected duplicate token to not create a new row")
	}
	if second.RedirectURL == "" {
		t.Fatalf("duplicate token should still receive a redirect URL")
	}

	var count int64
	db.Model(&models.Click{}).Where("click_token = ?", "tok-idem-1").Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly 1 click row, got %d", count)
	}
}

func TestRecordClickSnapshotsRate(t *testing.T) {
	svc, db := setupClickServiceTest(t)
	merchant := createClickTestMerchant(t, db, "megabazaar", 5)

	result, err := svc.RecordClick(RecordClickInput{
		ClickToken:   "tok-snap-1",
		MerchantSlug: "megabazaar",
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if result.Click.RateType != constants.CashbackTypePercent {
		t.Fatalf("unexpected rate type: %s", result.Click.RateType)
	}
	if !result.Click.RateValue.Decimal.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected rate snapshot 5, got %s", result.Click.RateValue.String())
	}

	// 目录费率调整不影响已快照的点击
	if err := db.Model(&models.Merchant{}).Where("id = ?", merchant.ID).
		Update("cashback_rate", models.NewMoneyFromDecimal(decimal.NewFromInt(10))).Error; err != nil {
		t.Fatalf("update merchant rate failed: %v", err)
	}
	reloaded, err := svc.GetClick("tok-snap-1")
	if err != nil {
		t.Fatalf("reload click failed: %v", err)
	}
	if !reloaded.RateValue.Decimal.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("rate snapshot changed after catalog update: %s", reloaded.RateValue.String())
	}
}

func TestRecordClickProductRateWins(t *testing.T) {
	svc, db := setupClickServiceTest(t)
	merchant := createClickTestMerchant(t, db, "shopkart", 5)

	product := models.Product{
		MerchantID:   merchant.ID,
		Name:         "Noise Cancelling Headphones",
		CashbackType: constants.CashbackTypeFixed,
		CashbackRate: models.NewMoneyFromDecimal(decimal.NewFromInt(120)),
		Status:       constants.ProductStatusActive,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	result, err := svc.RecordClick(RecordClickInput{
		ClickToken:   "tok-prod-1",
		MerchantSlug: "shopkart",
		ProductID:    &product.ID,
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if result.Click.RateType != constants.CashbackTypeFixed {
		t.Fatalf("expected product rate type, got %s", result.Click.RateType)
	}
	if !result.Click.RateValue.Decimal.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected product rate 120, got %s", result.Click.RateValue.String())
	}
}

func TestRecordClickInactiveProductFallsBackToMerchantRate(t *testing.T) {
	svc, db := setupClickServiceTest(t)
	merchant := createClickTestMerchant(t, db, "dealdhamaka", 7)

	product := models.Product{
		MerchantID:   merchant.ID,
		Name:         "Retired Product",
		CashbackType: constants.CashbackTypeFixed,
		CashbackRate: models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
		Status:       constants.ProductStatusDisabled,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	result, err := svc.RecordClick(RecordClickInput{
		ClickToken:   "tok-prod-2",
		MerchantSlug: "dealdhamaka",
		ProductID:    &product.ID,
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if result.Click.RateType != constants.CashbackTypePercent || !result.Click.RateValue.Decimal.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected merchant rate fallback, got %s %s", result.Click.RateType, result.Click.RateValue.String())
	}
}

func TestRecordClickUnknownMerchant(t *testing.T) {
	svc, _ := setupClickServiceTest(t)

	_, err := svc.RecordClick(RecordClickInput{MerchantSlug: "nope"})
	if err != ErrMerchantNotFound {
		t.Fatalf("expected ErrMerchantNotFound, got %v", err)
	}
}

func TestRecordClickTokenTooLong(t *testing.T) {
	svc, db := setupClickServiceTest(t)
	createClickTestMerchant(t, db, "longtoken", 5)

	_, err := svc.RecordClick(RecordClickInput{
		ClickToken:   strings.Repeat("x", 65),
		MerchantSlug: "longtoken",
	})
	if err != ErrClickTokenInvalid {
		t.Fatalf("expected ErrClickTokenInvalid, got %v", err)
	}
}

func TestRecordClickGeneratesTokenWhenEmpty(t *testing.T) {
	svc, db := setupClickServiceTest(t)
	createClickTestMerchant(t, db, "autotoken", 5)

	result, err := svc.RecordClick(RecordClickInput{MerchantSlug: "autotoken"})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if result.Click.ClickToken == "" {
		t.Fatalf("expected generated token")
	}
	if !strings.Contains(result.RedirectURL, "subid="+result.Click.ClickToken) {
		t.Fatalf("redirect URL missing token: %s", result.RedirectURL)
	}
}

func TestBuildTrackedURL(t *testing.T) {
	svc, _ := setupClickServiceTest(t)

	got := svc.BuildTrackedURL("https://track.example.com/go?aff=rb", "tok-1")
	if !strings.Contains(got, "aff=rb") || !strings.Contains(got, "subid=tok-1") {
		t.Fatalf("unexpected tracked URL: %s", got)
	}

	raw := "://not a url"
	if svc.BuildTrackedURL(raw, "tok-1") != raw {
		t.Fatalf("unparseable URL should be returned as-is")
	}
}
