package admin

import (
	"strings"
	"time"

	handlershared "github.com/rupeeback/internal/http/handlers/shared"
	"github.com/rupeeback/internal/http/response"
	"github.com/rupeeback/internal/repository"
	"github.com/rupeeback/internal/service"

	"github.com/gin-gonic/gin"
)

// CouponRequest 优惠券创建/更新请求
type CouponRequest struct {
	MerchantID uint       `json:"merchant_id" binding:"required"`
	Code       string     `json:"code" binding:"required"`
	Title      string     `json:"title" binding:"required"`
	TargetURL  string     `json:"target_url"`
	Status     string     `json:"status"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

func (r *CouponRequest) toInput() service.CouponInput {
	return service.CouponInput{
		MerchantID: r.MerchantID,
		Code:       r.Code,
		Title:      r.Title,
		TargetURL:  r.TargetURL,
		Status:     r.Status,
		ExpiresAt:  r.ExpiresAt,
	}
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	coupon, err := h.CatalogService.CreateCoupon(req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "failed to create coupon")
		return
	}
	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	coupon, err := h.CatalogService.UpdateCoupon(id, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "failed to update coupon")
		return
	}
	response.Success(c, coupon)
}

// ListCoupons 优惠券列表
func (h *Handler) ListCoupons(c *gin.Context) {
	page, pageSize := handlershared.ParsePageQuery(c)
	coupons, total, err := h.CatalogService.ListCoupons(repository.CouponListFilter{
		Page:       page,
		PageSize:   pageSize,
		MerchantID: uintQuery(c, "merchant_id"),
		Status:     strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load coupons", err)
		return
	}
	response.SuccessWithPage(c, coupons, response.NewPagination(page, pageSize, total))
}
