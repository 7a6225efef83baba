package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rupeeback/internal/constants"
	"github.com/rupeeback/internal/http/response"
	"github.com/rupeeback/internal/models"
	"github.com/rupeeback/internal/provider"
	"github.com/rupeeback/internal/repository"
	"github.com/rupeeback/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupConversionImportTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:conversion_import_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	ledgerSvc := service.NewLedgerService(
		repository.NewTransactionRepository(db),
		repository.NewUserRepository(db),
		nil,
		0,
	)
	conversionSvc := service.NewConversionService(
		repository.NewConversionRepository(db),
		repository.NewClickRepository(db),
		repository.NewMerchantRepository(db),
		ledgerSvc,
	)

	h := New(&provider.Container{ConversionService: conversionSvc})
	r := gin.New()
	r.POST("/api/v1/admin/conversions/import", h.ImportConversions)
	return r, db
}

func TestImportConversionsKeepsVerbatimRows(t *testing.T) {
	r, db := setupConversionImportTest(t)
	merchant := models.Merchant{
		Name:         "Store megamart",
		Slug:         "megamart",
		SiteURL:      "https://megamart.example.com",
		TrackingURL:  "https://track.example.com/megamart",
		CashbackType: constants.CashbackTypePercent,
		CashbackRate: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		Status:       constants.MerchantStatusActive,
	}
	if err := db.Create(&merchant).Error; err != nil {
		t.Fatalf("create merchant failed: %v", err)
	}

	rowA := fmt.Sprintf(`{"merchant_id":%d,"order_id":"ORD-A","sale_amount":"100","network_txn_ref":"AFF-1"}`, merchant.ID)
	rowB := `{"order_id":"ORD-B"}`
	body := fmt.Sprintf(`{"rows":[%s,%s]}`, rowA, rowB)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/conversions/import", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected http status %d", w.Code)
	}
	var envelope response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if envelope.StatusCode != 0 {
		t.Fatalf("expected success envelope, got code %d", envelope.StatusCode)
	}

	var conversion models.Conversion
	if err := db.First(&conversion, "order_id = ?", "ORD-A").Error; err != nil {
		t.Fatalf("load conversion failed: %v", err)
	}
	if conversion.RawPayload != rowA {
		t.Fatalf("audit copy mutated:\nwant %s\ngot  %s", rowA, conversion.RawPayload)
	}

	// 缺少 merchant_id 的行逐行失败，不落库也不影响其余行
	var failedCount int64
	if err := db.Model(&models.Conversion{}).Where("order_id = ?", "ORD-B").Count(&failedCount).Error; err != nil {
		t.Fatalf("count failed rows failed: %v", err)
	}
	if failedCount != 0 {
		t.Fatalf("invalid row should not be stored")
	}
}
