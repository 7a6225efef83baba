package admin

import (
	"strings"

	handlershared "github.com/rupeeback/internal/http/handlers/shared"
	"github.com/rupeeback/internal/http/response"
	"github.com/rupeeback/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListPayouts 提现申请列表
func (h *Handler) ListPayouts(c *gin.Context) {
	page, pageSize := handlershared.ParsePageQuery(c)
	payouts, total, err := h.PayoutService.ListPayouts(repository.PayoutListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uintQuery(c, "user_id"),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load payouts", err)
		return
	}
	response.SuccessWithPage(c, payouts, response.NewPagination(page, pageSize, total))
}

// GetPayout 提现申请详情（含关联交易）
func (h *Handler) GetPayout(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	payout, err := h.PayoutService.GetPayout(id)
	if err != nil {
		respondWithMappedError(c, err, payoutReviewErrorRules, response.CodeInternal, "failed to load payout")
		return
	}
	response.Success(c, payout)
}

// ReviewPayoutRequest 提现审核请求
type ReviewPayoutRequest struct {
	Action string `json:"action" binding:"required"`
	Reason string `json:"reason"`
}

// ReviewPayout 审核提现申请（通过/打款/拒绝/失败）
func (h *Handler) ReviewPayout(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req ReviewPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	payout, err := h.PayoutService.ReviewPayout(adminID, id, req.Action, req.Reason)
	if err != nil {
		respondWithMappedError(c, err, payoutReviewErrorRules, response.CodeInternal, "failed to review payout")
		return
	}
	response.Success(c, payout)
}
