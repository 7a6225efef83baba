package public

import (
	"strings"

	handlershared "github.com/rupeeback/internal/http/handlers/shared"
	"github.com/rupeeback/internal/http/response"
	"github.com/rupeeback/internal/repository"
	"github.com/rupeeback/internal/service"

	"github.com/gin-gonic/gin"
)

// GetCashbackSummary 用户返利概要（提现页数据契约）
func (h *Handler) GetCashbackSummary(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	summary, err := h.PayoutService.GetSummary(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load summary", err)
		return
	}
	response.Success(c, summary)
}

// ListMyTransactions 用户返利交易历史
func (h *Handler) ListMyTransactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePageQuery(c)
	txns, total, err := h.LedgerService.ListTransactions(repository.TransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load transactions", err)
		return
	}
	response.SuccessWithPage(c, txns, response.NewPagination(page, pageSize, total))
}

// ListMyPayouts 用户提现历史
func (h *Handler) ListMyPayouts(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePageQuery(c)
	payouts, total, err := h.PayoutService.ListPayouts(repository.PayoutListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load payouts", err)
		return
	}
	response.SuccessWithPage(c, payouts, response.NewPagination(page, pageSize, total))
}

// RequestPayoutRequest 提现申请请求
type RequestPayoutRequest struct {
	Method string `json:"method" binding:"required"`
	Detail string `json:"detail" binding:"required"`
}

// RequestPayout 用户发起提现
func (h *Handler) RequestPayout(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	payout, err := h.PayoutService.RequestPayout(c.Request.Context(), userID, service.RequestPayoutInput{
		Method: req.Method,
		Detail: req.Detail,
	})
	if err != nil {
		respondWithMappedError(c, err, payoutErrorRules, response.CodeInternal, "payout request failed")
		return
	}
	response.Success(c, payout)
}
