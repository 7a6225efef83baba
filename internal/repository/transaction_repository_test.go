package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/rupeeback/internal/constants"
	"github.com/rupeeback/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupTransactionRepoTest(t *testing.T) (*GormTransactionRepository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:transaction_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.CashbackTransaction{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewTransactionRepository(db), db
}

func createRepoTestTransaction(t *testing.T, db *gorm.DB, userID uint, conversionID uint, amount int64, status string) models.CashbackTransaction {
	t.Helper()

	row := models.CashbackTransaction{
		UserID:         userID,
		MerchantID:     1,
		ConversionID:   conversionID,
		OrderID:        fmt.Sprintf("ORD-%d", conversionID),
		SaleAmount:     models.NewMoneyFromDecimal(decimal.NewFromInt(amount * 10)),
		CashbackAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(amount)),
		Status:         status,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create transaction failed: %v", err)
	}
	return row
}

func TestSumByUserStatus(t *testing.T) {
	repo, db := setupTransactionRepoTest(t)
	createRepoTestTransaction(t, db, 1, 1, 30, constants.TransactionStatusPending)
	createRepoTestTransaction(t, db, 1, 2, 50, constants.TransactionStatusConfirmed)
	paid := createRepoTestTransaction(t, db, 1, 3, 70, constants.TransactionStatusConfirmed)
	createRepoTestTransaction(t, db, 2, 4, 999, constants.TransactionStatusConfirmed)

	payoutID := uint(9)
	db.Model(&models.CashbackTransaction{}).Where("id = ?", paid.ID).Update("payout_id", payoutID)

	pendingSum, err := repo.SumByUserStatus(1, constants.TransactionStatusPending, false)
	if err != nil {
		t.Fatalf("sum pending failed: %v", err)
	}
	if !pendingSum.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected pending sum 30, got %s", pendingSum.String())
	}

	confirmedUnpaid, err := repo.SumByUserStatus(1, constants.TransactionStatusConfirmed, true)
	if err != nil {
		t.Fatalf("sum confirmed failed: %v", err)
	}
	if !confirmedUnpaid.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected confirmed unpaid sum 50, got %s", confirmedUnpaid.String())
	}

	emptySum, err := repo.SumByUserStatus(3, constants.TransactionStatusConfirmed, true)
	if err != nil {
		t.Fatalf("sum empty failed: %v", err)
	}
	if !emptySum.IsZero() {
		t.Fatalf("expected zero for user without rows, got %s", emptySum.String())
	}
}

func TestBatchMarkPaidOnlyHitsEligibleRows(t *testing.T) {
	repo, db := setupTransactionRepoTest(t)
	confirmed := createRepoTestTransaction(t, db, 1, 10, 100, constants.TransactionStatusConfirmed)
	pending := createRepoTestTransaction(t, db, 1, 11, 100, constants.TransactionStatusPending)
	already := createRepoTestTransaction(t, db, 1, 12, 100, constants.TransactionStatusConfirmed)

	otherPayout := uint(5)
	db.Model(&models.CashbackTransaction{}).Where("id = ?", already.ID).Update("payout_id", otherPayout)

	affected, err := repo.BatchMarkPaid([]uint{confirmed.ID, pending.ID, already.ID}, 42, time.Now())
	if err != nil {
		t.Fatalf("batch mark failed: %v", err)
	}
	// 只有 confirmed 且未挂接提现的行可被消费
	if affected != 1 {
		t.Fatalf("expected 1 row affected, got %d", affected)
	}

	var reloadedConfirmed models.CashbackTransaction
	db.First(&reloadedConfirmed, confirmed.ID)
	if reloadedConfirmed.Status != constants.TransactionStatusPaid || reloadedConfirmed.PayoutID == nil || *reloadedConfirmed.PayoutID != 42 {
		t.Fatalf("eligible row not marked: %+v", reloadedConfirmed)
	}
	var reloadedPending models.CashbackTransaction
	db.First(&reloadedPending, pending.ID)
	if reloadedPending.Status != constants.TransactionStatusPending {
		t.Fatalf("pending row must not be touched")
	}
	var reloadedAlready models.CashbackTransaction
	db.First(&reloadedAlready, already.ID)
	if *reloadedAlready.PayoutID != otherPayout {
		t.Fatalf("row from another payout must not be re-tagged")
	}
}

func TestListConfirmedUnpaidOrdering(t *testing.T) {
	repo, db := setupTransactionRepoTest(t)
	first := createRepoTestTransaction(t, db, 1, 20, 10, constants.TransactionStatusConfirmed)
	second := createRepoTestTransaction(t, db, 1, 21, 20, constants.TransactionStatusConfirmed)
	createRepoTestTransaction(t, db, 1, 22, 30, constants.TransactionStatusPending)

	txns, err := repo.ListConfirmedUnpaidForUpdate(1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(txns))
	}
	if txns[0].ID != first.ID || txns[1].ID != second.ID {
		t.Fatalf("expected ascending id order, got %d then %d", txns[0].ID, txns[1].ID)
	}
}

func TestListDueForConfirm(t *testing.T) {
	repo, db := setupTransactionRepoTest(t)
	due := createRepoTestTransaction(t, db, 1, 30, 10, constants.TransactionStatusPending)
	notDue := createRepoTestTransaction(t, db, 1, 31, 10, constants.TransactionStatusPending)
	noSchedule := createRepoTestTransaction(t, db, 1, 32, 10, constants.TransactionStatusPending)

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	db.Model(&models.CashbackTransaction{}).Where("id = ?", due.ID).Update("confirm_at", past)
	db.Model(&models.CashbackTransaction{}).Where("id = ?", notDue.ID).Update("confirm_at", future)
	_ = noSchedule

	txns, err := repo.ListDueForConfirm(time.Now(), 100)
	if err != nil {
		t.Fatalf("list due failed: %v", err)
	}
	if len(txns) != 1 || txns[0].ID != due.ID {
		t.Fatalf("expected only the due transaction, got %d rows", len(txns))
	}
}
