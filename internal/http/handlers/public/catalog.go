package public

import (
	"errors"
	"strings"

	"github.com/rupeeback/internal/constants"
	handlershared "github.com/rupeeback/internal/http/handlers/shared"
	"github.com/rupeeback/internal/http/response"
	"github.com/rupeeback/internal/repository"
	"github.com/rupeeback/internal/service"

	"github.com/gin-gonic/gin"
)

// ListMerchants 商家目录
func (h *Handler) ListMerchants(c *gin.Context) {
	page, pageSize := handlershared.ParsePageQuery(c)
	merchants, total, err := h.CatalogService.ListMerchants(repository.MerchantListFilter{
		Page:       page,
		PageSize:   pageSize,
		OnlyActive: true,
		Search:     strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load merchants", err)
		return
	}
	response.SuccessWithPage(c, merchants, response.NewPagination(page, pageSize, total))
}

// GetMerchantBySlug 商家详情
func (h *Handler) GetMerchantBySlug(c *gin.Context) {
	merchant, err := h.CatalogService.GetActiveMerchantBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrMerchantNotFound) {
			respondError(c, response.CodeNotFound, "merchant not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to load merchant", err)
		return
	}
	response.Success(c, merchant)
}

// ListMerchantProducts 商家商品列表
func (h *Handler) ListMerchantProducts(c *gin.Context) {
	merchant, err := h.CatalogService.GetActiveMerchantBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrMerchantNotFound) {
			respondError(c, response.CodeNotFound, "merchant not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to load merchant", err)
		return
	}
	page, pageSize := handlershared.ParsePageQuery(c)
	products, total, err := h.CatalogService.ListProducts(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		MerchantID: merchant.ID,
		Status:     constants.ProductStatusActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load products", err)
		return
	}
	response.SuccessWithPage(c, products, response.NewPagination(page, pageSize, total))
}

// ListMerchantCoupons 商家优惠券列表
func (h *Handler) ListMerchantCoupons(c *gin.Context) {
	merchant, err := h.CatalogService.GetActiveMerchantBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrMerchantNotFound) {
			respondError(c, response.CodeNotFound, "merchant not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to load merchant", err)
		return
	}
	page, pageSize := handlershared.ParsePageQuery(c)
	coupons, total, err := h.CatalogService.ListCoupons(repository.CouponListFilter{
		Page:       page,
		PageSize:   pageSize,
		MerchantID: merchant.ID,
		OnlyValid:  true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load coupons", err)
		return
	}
	response.SuccessWithPage(c, coupons, response.NewPagination(page, pageSize, total))
}
