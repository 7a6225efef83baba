package admin

import (
	"errors"
	"strings"

	handlershared "github.com/rupeeback/internal/http/handlers/shared"
	"github.com/rupeeback/internal/http/response"
	"github.com/rupeeback/internal/repository"
	"github.com/rupeeback/internal/service"

	"github.com/gin-gonic/gin"
)

// ListTransactions 返利交易列表
func (h *Handler) ListTransactions(c *gin.Context) {
	page, pageSize := handlershared.ParsePageQuery(c)
	txns, total, err := h.LedgerService.ListTransactions(repository.TransactionListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     uintQuery(c, "user_id"),
		MerchantID: uintQuery(c, "merchant_id"),
		OrderID:    strings.TrimSpace(c.Query("order_id")),
		Status:     strings.TrimSpace(c.Query("status")),
		PayoutID:   uintQuery(c, "payout_id"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load transactions", err)
		return
	}
	response.SuccessWithPage(c, txns, response.NewPagination(page, pageSize, total))
}

// GetTransaction 返利交易详情
func (h *Handler) GetTransaction(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	txn, err := h.LedgerService.GetTransaction(id)
	if err != nil {
		respondWithMappedError(c, err, transitionErrorRules, response.CodeInternal, "failed to load transaction")
		return
	}
	response.Success(c, txn)
}

// TransitionTransactionRequest 状态流转请求
type TransitionTransactionRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// TransitionTransaction 人工流转交易状态（确认/拒绝/取消）
func (h *Handler) TransitionTransaction(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req TransitionTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	txn, err := h.LedgerService.TransitionStatus(id, req.Status, req.Reason)
	if err != nil {
		respondWithMappedError(c, err, transitionErrorRules, response.CodeInternal, "failed to transition transaction")
		return
	}
	response.Success(c, txn)
}

// AuditUserBalance 核对用户余额与账本汇总
func (h *Handler) AuditUserBalance(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	audit, err := h.LedgerService.AuditBalance(id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "user not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to audit balance", err)
		return
	}
	response.Success(c, audit)
}
