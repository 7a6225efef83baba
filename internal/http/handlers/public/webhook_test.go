package public

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

func setupWebhookTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:webhook_handler_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	r.POST("/api/v1/webhooks/conversions", h.IngestConversionWebhook)
	return r, db
}

func createWebhookTestMerchant(t *testing.T, db *gorm.DB, slug string) models.Merchant {
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

func postWebhook(t *testing.T, r *gin.Engine, body string) *response.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/conversions", strings.NewReader(body))
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
	return &envelope
}

func TestIngestConversionWebhookKeepsVerbatimPayload(t *testing.T) {
	r, db := setupWebhookTest(t)
	merchant := createWebhookTestMerchant(t, db, "flipmart")

	// 报文带有结构体未声明的联盟侧字段，留档必须原样保留
	body := fmt.Sprintf(
		`{"merchant_id":%d,"order_id":"ORD-77","sale_amount":"100","network_txn_ref":"AFF-NET-XYZ-123"}`,
		merchant.ID,
	)
	envelope := postWebhook(t, r, body)
	if envelope.StatusCode != 0 {
		t.Fatalf("expected success, got code %d msg %s", envelope.StatusCode, envelope.Msg)
	}

	var conversion models.Conversion
	if err := db.First(&conversion, "order_id = ?", "ORD-77").Error; err != nil {
		t.Fatalf("load conversion failed: %v", err)
	}
	if conversion.RawPayload != body {
		t.Fatalf("audit copy mutated:\nwant %s\ngot  %s", body, conversion.RawPayload)
	}
	if !strings.Contains(conversion.RawPayload, "network_txn_ref") {
		t.Fatalf("undeclared field dropped from audit copy")
	}
}

func TestIngestConversionWebhookRejectsBadPayload(t *testing.T) {
	r, _ := setupWebhookTest(t)

	if envelope := postWebhook(t, r, `{not json`); envelope.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected bad request for malformed json, got %d", envelope.StatusCode)
	}
	if envelope := postWebhook(t, r, `{"order_id":"ORD-1"}`); envelope.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected bad request for missing merchant_id, got %d", envelope.StatusCode)
	}
	if envelope := postWebhook(t, r, `{"merchant_id":1,"order_id":"  "}`); envelope.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected bad request for blank order_id, got %d", envelope.StatusCode)
	}
}
