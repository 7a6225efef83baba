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

// ProductRequest 商品创建/更新请求
type ProductRequest struct {
	MerchantID   uint         `json:"merchant_id" binding:"required"`
	Name         string       `json:"name" binding:"required"`
	URL          string       `json:"url"`
	CashbackType string       `json:"cashback_type"`
	CashbackRate models.Money `json:"cashback_rate"`
	Status       string       `json:"status"`
}

func (r *ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		MerchantID:   r.MerchantID,
		Name:         r.Name,
		URL:          r.URL,
		CashbackType: r.CashbackType,
		CashbackRate: r.CashbackRate,
		Status:       r.Status,
	}
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	product, err := h.CatalogService.CreateProduct(req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "failed to create product")
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	product, err := h.CatalogService.UpdateProduct(id, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "failed to update product")
		return
	}
	response.Success(c, product)
}

// ListProducts 商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := handlershared.ParsePageQuery(c)
	products, total, err := h.CatalogService.ListProducts(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		MerchantID: uintQuery(c, "merchant_id"),
		Status:     strings.TrimSpace(c.Query("status")),
		Search:     strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load products", err)
		return
	}
	response.SuccessWithPage(c, products, response.NewPagination(page, pageSize, total))
}
