package public

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	handlershared "github.com/rupeeback/internal/http/handlers/shared"
	"github.com/rupeeback/internal/http/response"
	"github.com/rupeeback/internal/repository"
	"github.com/rupeeback/internal/service"

	"github.com/gin-gonic/gin"
)

// Redirect 出站跳转端点
// 记录点击并 302 跳转到商家侧带令牌的追踪链接；
// 落库失败不阻断跳转（服务端已记错误日志）。
func (h *Handler) Redirect(c *gin.Context) {
	input := service.RecordClickInput{
		ClickToken:   strings.TrimSpace(c.Query("token")),
		UserID:       getOptionalUserID(c),
		MerchantSlug: c.Param("merchant"),
		ClientIP:     c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	}
	if productID := parseOptionalUintQuery(c, "product_id"); productID != nil {
		input.ProductID = productID
	}
	if couponID := parseOptionalUintQuery(c, "coupon_id"); couponID != nil {
		input.CouponID = couponID
	}

	result, err := h.ClickService.RecordClick(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMerchantNotFound):
			respondError(c, response.CodeNotFound, "merchant not found", nil)
		case errors.Is(err, service.ErrClickTokenInvalid):
			respondError(c, response.CodeBadRequest, "invalid click token", nil)
		default:
			respondError(c, response.CodeInternal, "redirect failed", err)
		}
		return
	}
	if result.Degraded {
		handlershared.RequestLog(c).Warnw("click_persist_degraded",
			"merchant_slug", input.MerchantSlug,
			"click_token", result.Click.ClickToken,
		)
	}
	c.Redirect(http.StatusFound, result.RedirectURL)
}

// ListMyClicks 用户点击历史
func (h *Handler) ListMyClicks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePageQuery(c)
	clicks, total, err := h.ClickService.ListClicks(repository.ClickListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		OnlyMatched: c.Query("only_matched") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load clicks", err)
		return
	}
	response.SuccessWithPage(c, clicks, response.NewPagination(page, pageSize, total))
}

func parseOptionalUintQuery(c *gin.Context, name string) *uint {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return nil
	}
	id := uint(value)
	return &id
}
