package public

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/rupeeback/internal/http/response"
	"github.com/rupeeback/internal/models"
	"github.com/rupeeback/internal/service"

	"github.com/gin-gonic/gin"
)

// ConversionWebhookRequest 联盟转化回传报文
type ConversionWebhookRequest struct {
	ClickToken string       `json:"click_token"`
	MerchantID uint         `json:"merchant_id"`
	OrderID    string       `json:"order_id"`
	SaleAmount models.Money `json:"sale_amount"`
}

// IngestConversionWebhook 接收联盟转化回传
// 回传渠道不可信：原始报文逐字节留档，不经结构体转写；
// 重复上报返回 409 且不改动已有记录。
func (h *Handler) IngestConversionWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, response.CodeBadRequest, "failed to read payload", err)
		return
	}
	var req ConversionWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid payload", err)
		return
	}
	if req.MerchantID == 0 || strings.TrimSpace(req.OrderID) == "" {
		respondError(c, response.CodeBadRequest, "merchant_id and order_id required", nil)
		return
	}

	result, err := h.ConversionService.Ingest(service.IngestConversionInput{
		ClickToken: req.ClickToken,
		MerchantID: req.MerchantID,
		OrderID:    req.OrderID,
		SaleAmount: req.SaleAmount,
		RawPayload: string(body),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "order_id required and sale_amount must be non-negative", nil)
		case errors.Is(err, service.ErrMerchantNotFound):
			respondError(c, response.CodeNotFound, "unknown merchant", nil)
		case errors.Is(err, service.ErrDuplicateConversion):
			respondError(c, response.CodeConflict, "conversion already recorded", nil)
		default:
			respondError(c, response.CodeInternal, "failed to ingest conversion", err)
		}
		return
	}
	response.Success(c, gin.H{
		"conversion_id": result.Conversion.ID,
		"status":        result.Conversion.Status,
	})
}
