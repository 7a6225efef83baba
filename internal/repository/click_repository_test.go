package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/rupeeback/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupClickRepoTest(t *testing.T) (*GormClickRepository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:click_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Click{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewClickRepository(db), db
}

func TestCreateIdempotentKeepsFirstWrite(t *testing.T) {
	repo, _ := setupClickRepoTest(t)

	first := &models.Click{
		ClickToken: "tok-repo-1",
		MerchantID: 1,
		TargetURL:  "https://track.example.com/a",
		RateType:   "percent",
		RateValue:  models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
	}
	created, err := repo.CreateIdempotent(first)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if !created {
		t.Fatalf("expected first write to insert")
	}

	duplicate := &models.Click{
		ClickToken: "tok-repo-1",
		MerchantID: 2,
		TargetURL:  "https://track.example.com/b",
		RateType:   "fixed",
		RateValue:  models.NewMoneyFromDecimal(decimal.NewFromInt(99)),
	}
	created, err = repo.CreateIdempotent(duplicate)
	if err != nil {
		t.Fatalf("duplicate create failed: %v", err)
	}
	if created {
		t.Fatalf("duplicate token must not insert")
	}

	// 首次写入的快照保持不变
	stored, err := repo.GetByToken("tok-repo-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.MerchantID != 1 || stored.RateType != "percent" {
		t.Fatalf("duplicate write overwrote first snapshot: %+v", stored)
	}
}

func TestCreateIdempotentRejectsBlankToken(t *testing.T) {
	repo, _ := setupClickRepoTest(t)

	if _, err := repo.CreateIdempotent(&models.Click{ClickToken: "  "}); err == nil {
		t.Fatalf("expected error for blank token")
	}
}

func TestSetConversionRefOnlyOnce(t *testing.T) {
	repo, db := setupClickRepoTest(t)

	click := &models.Click{
		ClickToken: "tok-ref-1",
		MerchantID: 1,
		TargetURL:  "https://track.example.com/a",
		RateType:   "percent",
		RateValue:  models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
	}
	if _, err := repo.CreateIdempotent(click); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.SetConversionRef("tok-ref-1", 100); err != nil {
		t.Fatalf("first ref failed: %v", err)
	}
	// 已回填的点击不可再次改写
	if err := repo.SetConversionRef("tok-ref-1", 200); err != nil {
		t.Fatalf("second ref failed: %v", err)
	}

	var stored models.Click
	db.First(&stored, "click_token = ?", "tok-ref-1")
	if stored.ConversionID == nil || *stored.ConversionID != 100 {
		t.Fatalf("conversion ref should keep first value, got %+v", stored.ConversionID)
	}
}
