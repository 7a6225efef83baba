package admin

import (
	"encoding/json"
	"errors"
	"strings"

	handlershared "github.com/rupeeback/internal/http/handlers/shared"
	"github.com/rupeeback/internal/http/response"
	"github.com/rupeeback/internal/models"
	"github.com/rupeeback/internal/repository"
	"github.com/rupeeback/internal/service"

	"github.com/gin-gonic/gin"
)

// ListConversions 转化列表
func (h *Handler) ListConversions(c *gin.Context) {
	page, pageSize := handlershared.ParsePageQuery(c)
	conversions, total, err := h.ConversionService.ListConversions(repository.ConversionListFilter{
		Page:       page,
		PageSize:   pageSize,
		MerchantID: uintQuery(c, "merchant_id"),
		OrderID:    strings.TrimSpace(c.Query("order_id")),
		Status:     strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load conversions", err)
		return
	}
	response.SuccessWithPage(c, conversions, response.NewPagination(page, pageSize, total))
}

// GetConversion 转化详情
func (h *Handler) GetConversion(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	conversion, err := h.ConversionService.GetConversion(id)
	if err != nil {
		if errors.Is(err, service.ErrConversionNotFound) {
			respondError(c, response.CodeNotFound, "conversion not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to load conversion", err)
		return
	}
	response.Success(c, conversion)
}

// ListClicks 点击列表
func (h *Handler) ListClicks(c *gin.Context) {
	page, pageSize := handlershared.ParsePageQuery(c)
	clicks, total, err := h.ClickRepo.List(repository.ClickListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      uintQuery(c, "user_id"),
		MerchantID:  uintQuery(c, "merchant_id"),
		OnlyMatched: c.Query("only_matched") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load clicks", err)
		return
	}
	response.SuccessWithPage(c, clicks, response.NewPagination(page, pageSize, total))
}

// ConversionRow 批量导入的单行转化
type ConversionRow struct {
	ClickToken string       `json:"click_token"`
	MerchantID uint         `json:"merchant_id"`
	OrderID    string       `json:"order_id"`
	SaleAmount models.Money `json:"sale_amount"`
}

// ImportConversionsRequest 批量导入请求
// 行保留为原始 JSON，留档时逐字节入库。
type ImportConversionsRequest struct {
	Rows []json.RawMessage `json:"rows" binding:"required,min=1"`
}

// conversionImportRow 单行导入结果
type conversionImportRow struct {
	OrderID      string `json:"order_id"`
	ConversionID uint   `json:"conversion_id,omitempty"`
	Status       string `json:"status,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ImportConversions 批量导入转化，逐行独立入账，单行失败不影响其余行
func (h *Handler) ImportConversions(c *gin.Context) {
	var req ImportConversionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	results := make([]conversionImportRow, 0, len(req.Rows))
	imported := 0
	for _, rowRaw := range req.Rows {
		var row ConversionRow
		if err := json.Unmarshal(rowRaw, &row); err != nil {
			results = append(results, conversionImportRow{Error: "invalid row"})
			continue
		}
		result, err := h.ConversionService.Ingest(service.IngestConversionInput{
			ClickToken: row.ClickToken,
			MerchantID: row.MerchantID,
			OrderID:    row.OrderID,
			SaleAmount: row.SaleAmount,
			RawPayload: string(rowRaw),
		})
		if err != nil {
			results = append(results, conversionImportRow{
				OrderID: row.OrderID,
				Error:   importRowError(err),
			})
			continue
		}
		imported++
		results = append(results, conversionImportRow{
			OrderID:      row.OrderID,
			ConversionID: result.Conversion.ID,
			Status:       result.Conversion.Status,
		})
	}

	response.Success(c, gin.H{
		"imported": imported,
		"total":    len(req.Rows),
		"rows":     results,
	})
}

func importRowError(err error) string {
	switch {
	case errors.Is(err, service.ErrDuplicateConversion):
		return "duplicate order"
	case errors.Is(err, service.ErrMerchantNotFound):
		return "merchant not found"
	case errors.Is(err, service.ErrInvalidInput):
		return "invalid row"
	default:
		return "ingest failed"
	}
}
