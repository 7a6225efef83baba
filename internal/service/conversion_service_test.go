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

func setupConversionServiceTest(t *testing.T) (*ConversionService, *LedgerService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:conversion_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Merchant{}, &models.Click{},
		&models.Conversion{}, &models.CashbackTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	ledgerSvc := NewLedgerService(
		repository.NewTransactionRepository(db),
		repository.NewUserRepository(db),
		nil,
		0,
	)
	svc := NewConversionService(
		repository.NewConversionRepository(db),
		repository.NewClickRepository(db),
		repository.NewMerchantRepository(db),
		ledgerSvc,
	)
	return svc, ledgerSvc, db
}

func createConversionTestUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()

	row := models.User{
		Email:        email,
		PasswordHash: "hash",
		DisplayName:  "tester",
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return row
}

func createConversionTestMerchant(t *testing.T, db *gorm.DB, slug string) models.Merchant {
	t.Helper()

	row := models.Merchant{
		Name:         "Store " + slug,
		Slug:         slug,
		SiteURL:      "https://" + slug + ".example.com",
		TrackingURL:  "https://track.example.com/" + slug,
		CashbackType: constants.CashbackTypePercent,
		CashbackRate: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		Status:       constants.MerchantStatusActive,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create merchant failed: %v", err)
	}
	return row
}

func createConversionTestClick(t *testing.T, db *gorm.DB, token string, userID *uint, merchantID uint, rateType string, rateValue int64) models.Click {
	t.Helper()

	row := models.Click{
		ClickToken: token,
		UserID:     userID,
		MerchantID: merchantID,
		TargetURL:  "https://track.example.com/out",
		RateType:   rateType,
		RateValue:  models.NewMoneyFromDecimal(decimal.NewFromInt(rateValue)),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create click failed: %v", err)
	}
	return row
}

func TestIngestMatchedCreatesTransactionAndBalance(t *testing.T) {
	svc, _, db := setupConversionServiceTest(t)
	user := createConversionTestUser(t, db, "matched@example.com")
	merchant := createConversionTestMerchant(t, db, "flipmart")
	createConversionTestClick(t, db, "tok-m-1", &user.ID, merchant.ID, constants.CashbackTypePercent, 5)

	result, err := svc.Ingest(IngestConversionInput{
		ClickToken: "tok-m-1",
		MerchantID: merchant.ID,
		OrderID:    "ORD-1001",
		SaleAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(2500)),
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Conversion.Status != constants.ConversionStatusMatched {
		t.Fatalf("expected matched, got %s", result.Conversion.Status)
	}
	if result.Transaction == nil {
		t.Fatalf("expected transaction for matched user click")
	}
	if result.Transaction.Status != constants.TransactionStatusPending {
		t.Fatalf("expected pending transaction, got %s", result.Transaction.Status)
	}
	// 2500 * 5% = 125
	if !result.Transaction.CashbackAmount.Decimal.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("expected cashback 125, got %s", result.Transaction.CashbackAmount.String())
	}

	var reloadedUser models.User
	if err := db.First(&reloadedUser, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if !reloadedUser.PendingCashback.Decimal.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("expected pending balance 125, got %s", reloadedUser.PendingCashback.String())
	}

	var reloadedClick models.Click
	if err := db.First(&reloadedClick, "click_token = ?", "tok-m-1").Error; err != nil {
		t.Fatalf("reload click failed: %v", err)
	}
	if reloadedClick.ConversionID == nil || *reloadedClick.ConversionID != result.Conversion.ID {
		t.Fatalf("click not backfilled with conversion id")
	}
}

func TestIngestDuplicateOrderRejected(t *testing.T) {
	svc, _, db := setupConversionServiceTest(t)
	merchant := createConversionTestMerchant(t, db, "megabazaar")

	_, err := svc.Ingest(IngestConversionInput{
		MerchantID: merchant.ID,
		OrderID:    "ORD-DUP",
		SaleAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	})
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}

	_, err = svc.Ingest(IngestConversionInput{
		MerchantID: merchant.ID,
		OrderID:    "ORD-DUP",
		SaleAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(999)),
	})
	if !errors.Is(err, ErrDuplicateConversion) {
		t.Fatalf("expected ErrDuplicateConversion, got %v", err)
	}

	// 重复上报绝不覆盖原记录
	var stored models.Conversion
	if err := db.First(&stored, "merchant_id = ? AND order_id = ?", merchant.ID, "ORD-DUP").Error; err != nil {
		t.Fatalf("reload conversion failed: %v", err)
	}
	if !stored.SaleAmount.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("duplicate report overwrote sale amount: %s", stored.SaleAmount.String())
	}
}

func TestIngestSameOrderDifferentMerchants(t *testing.T) {
	svc, _, db := setupConversionServiceTest(t)
	merchantA := createConversionTestMerchant(t, db, "store-a")
	merchantB := createConversionTestMerchant(t, db, "store-b")

	for _, m := range []models.Merchant{merchantA, merchantB} {
		_, err := svc.Ingest(IngestConversionInput{
			MerchantID: m.ID,
			OrderID:    "ORD-SHARED",
			SaleAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		})
		if err != nil {
			t.Fatalf("ingest for merchant %d failed: %v", m.ID, err)
		}
	}
}

func TestIngestUnmatchedLeavesLedgerUntouched(t *testing.T) {
	svc, _, db := setupConversionServiceTest(t)
	merchant := createConversionTestMerchant(t, db, "shopkart")

	result, err := svc.Ingest(IngestConversionInput{
		ClickToken: "tok-unknown",
		MerchantID: merchant.ID,
		OrderID:    "ORD-UM-1",
		SaleAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(500)),
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Conversion.Status != constants.ConversionStatusUnmatched {
		t.Fatalf("expected unmatched, got %s", result.Conversion.Status)
	}
	if result.Transaction != nil {
		t.Fatalf("unmatched conversion must not create a transaction")
	}

	var txnCount int64
	db.Model(&models.CashbackTransaction{}).Count(&txnCount)
	if txnCount != 0 {
		t.Fatalf("expected 0 transactions, got %d", txnCount)
	}
}

func TestIngestAnonymousClickMatchedWithoutTransaction(t *testing.T) {
	svc, _, db := setupConversionServiceTest(t)
	merchant := createConversionTestMerchant(t, db, "anonstore")
	createConversionTestClick(t, db, "tok-anon", nil, merchant.ID, constants.CashbackTypePercent, 5)

	result, err := svc.Ingest(IngestConversionInput{
		ClickToken: "tok-anon",
		MerchantID: merchant.ID,
		OrderID:    "ORD-ANON",
		SaleAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(500)),
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Conversion.Status != constants.ConversionStatusMatched {
		t.Fatalf("anonymous click should still match, got %s", result.Conversion.Status)
	}
	if result.Transaction != nil {
		t.Fatalf("anonymous click must not create a transaction")
	}
}

func TestIngestClickFromOtherMerchantUnmatched(t *testing.T) {
	svc, _, db := setupConversionServiceTest(t)
	user := createConversionTestUser(t, db, "cross@example.com")
	merchantA := createConversionTestMerchant(t, db, "cross-a")
	merchantB := createConversionTestMerchant(t, db, "cross-b")
	createConversionTestClick(t, db, "tok-cross", &user.ID, merchantA.ID, constants.CashbackTypePercent, 5)

	result, err := svc.Ingest(IngestConversionInput{
		ClickToken: "tok-cross",
		MerchantID: merchantB.ID,
		OrderID:    "ORD-CROSS",
		SaleAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(500)),
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Conversion.Status != constants.ConversionStatusUnmatched {
		t.Fatalf("token from another merchant must not match, got %s", result.Conversion.Status)
	}
}

func TestIngestClickConsumedOnlyOnce(t *testing.T) {
	svc, _, db := setupConversionServiceTest(t)
	user := createConversionTestUser(t, db, "once@example.com")
	merchant := createConversionTestMerchant(t, db, "oncestore")
	createConversionTestClick(t, db, "tok-once", &user.ID, merchant.ID, constants.CashbackTypePercent, 5)

	first, err := svc.Ingest(IngestConversionInput{
		ClickToken: "tok-once",
		MerchantID: merchant.ID,
		OrderID:    "ORD-ONCE-1",
		SaleAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	})
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	if first.Conversion.Status != constants.ConversionStatusMatched {
		t.Fatalf("expected first conversion matched")
	}

	second, err := svc.Ingest(IngestConversionInput{
		ClickToken: "tok-once",
		MerchantID: merchant.ID,
		OrderID:    "ORD-ONCE-2",
		SaleAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	})
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if second.Conversion.Status != constants.ConversionStatusUnmatched {
		t.Fatalf("consumed click must not match twice, got %s", second.Conversion.Status)
	}
	if second.Transaction != nil {
		t.Fatalf("consumed click must not create a second transaction")
	}
}

func TestIngestValidation(t *testing.T) {
	svc, _, db := setupConversionServiceTest(t)
	merchant := createConversionTestMerchant(t, db, "valid")

	if _, err := svc.Ingest(IngestConversionInput{MerchantID: merchant.ID, OrderID: "  "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank order id, got %v", err)
	}
	if _, err := svc.Ingest(IngestConversionInput{
		MerchantID: merchant.ID,
		OrderID:    "ORD-NEG",
		SaleAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(-1)),
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative amount, got %v", err)
	}
	if _, err := svc.Ingest(IngestConversionInput{MerchantID: 999, OrderID: "ORD-NX"}); !errors.Is(err, ErrMerchantNotFound) {
		t.Fatalf("expected ErrMerchantNotFound, got %v", err)
	}
}

func TestIngestZeroConfirmWindowDueImmediately(t *testing.T) {
	svc, ledgerSvc, db := setupConversionServiceTest(t)
	user := createConversionTestUser(t, db, "instant@example.com")
	merchant := createConversionTestMerchant(t, db, "instamart")
	createConversionTestClick(t, db, "tok-z-1", &user.ID, merchant.ID, constants.CashbackTypePercent, 5)

	result, err := svc.Ingest(IngestConversionInput{
		ClickToken: "tok-z-1",
		MerchantID: merchant.ID,
		OrderID:    "ORD-Z-1",
		SaleAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(2000)),
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Transaction.ConfirmAt == nil {
		t.Fatalf("expected confirm_at set for zero-day confirm window")
	}

	confirmed, err := ledgerSvc.ConfirmDue(time.Now().Add(time.Second), 10)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if confirmed != 1 {
		t.Fatalf("expected 1 transaction confirmed by sweep, got %d", confirmed)
	}

	var txn models.CashbackTransaction
	if err := db.First(&txn, result.Transaction.ID).Error; err != nil {
		t.Fatalf("reload transaction failed: %v", err)
	}
	if txn.Status != constants.TransactionStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", txn.Status)
	}

	var reloadedUser models.User
	if err := db.First(&reloadedUser, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if !reloadedUser.PendingCashback.Decimal.IsZero() {
		t.Fatalf("expected pending zeroed, got %s", reloadedUser.PendingCashback.String())
	}
	// 2000 * 5% = 100
	if !reloadedUser.ConfirmedBalance.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected confirmed balance 100, got %s", reloadedUser.ConfirmedBalance.String())
	}
}
