package admin

import (
	"strings"

	handlershared "github.com/rupeeback/internal/http/handlers/shared"
	"github.com/rupeeback/internal/http/response"
	"github.com/rupeeback/internal/models"
	"github.com/rupeeback/internal/repository"
	"github.com/rupeeback/internal/service"

	"github.com/gin-gonic/gin"
)

// MerchantRequest 商家创建/更新请求
type MerchantRequest struct {
	Name         string       `json:"name" binding:"required"`
	Slug         string       `json:"slug" binding:"required"`
	SiteURL      string       `json:"site_url"`
	TrackingURL  string       `json:"tracking_url" binding:"required"`
	CashbackType string       `json:"cashback_type" binding:"required"`
	CashbackRate models.Money `json:"cashback_rate"`
	Status       string       `json:"status"`
}

func (r *MerchantRequest) toInput() service.MerchantInput {
	return service.MerchantInput{
		Name:         r.Name,
		Slug:         r.Slug,
		SiteURL:      r.SiteURL,
		TrackingURL:  r.TrackingURL,
		CashbackType: r.CashbackType,
		CashbackRate: r.CashbackRate,
		Status:       r.Status,
	}
}

// CreateMerchant 创建商家
func (h *Handler) CreateMerchant(c *gin.Context) {
	var req MerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	merchant, err := h.CatalogService.CreateMerchant(req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "failed to create merchant")
		return
	}
	response.Success(c, merchant)
}

// UpdateMerchant 更新商家
func (h *Handler) UpdateMerchant(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req MerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	merchant, err := h.CatalogService.UpdateMerchant(id, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "failed to update merchant")
		return
	}
	response.Success(c, merchant)
}

// GetMerchant 商家详情
func (h *Handler) GetMerchant(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	merchant, err := h.CatalogService.GetMerchant(id)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "failed to load merchant")
		return
	}
	response.Success(c, merchant)
}

// ListMerchants 商家列表
func (h *Handler) ListMerchants(c *gin.Context) {
	page, pageSize := handlershared.ParsePageQuery(c)
	merchants, total, err := h.CatalogService.ListMerchants(repository.MerchantListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load merchants", err)
		return
	}
	response.SuccessWithPage(c, merchants, response.NewPagination(page, pageSize, total))
}
