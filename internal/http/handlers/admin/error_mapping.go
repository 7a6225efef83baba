package admin

import (
	"errors"

	handlershared "github.com/rupeeback/internal/http/handlers/shared"
	"github.com/rupeeback/internal/http/response"
	"github.com/rupeeback/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// mappedHandlerError 业务错误到接口错误响应的映射
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var catalogErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid input"},
	{target: service.ErrMerchantNotFound, code: response.CodeNotFound, msg: "merchant not found"},
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "record not found"},
}

var transitionErrorRules = []mappedHandlerError{
	{target: service.ErrTransactionNotFound, code: response.CodeNotFound, msg: "transaction not found"},
	{target: service.ErrInvalidTransition, code: response.CodeBadRequest, msg: "status transition not allowed"},
	{target: service.ErrTransactionLocked, code: response.CodeConflict, msg: "transaction already included in a payout"},
	{target: service.ErrBalanceCorruption, code: response.CodeInternal, msg: "balance integrity check failed, operation aborted"},
}

var payoutReviewErrorRules = []mappedHandlerError{
	{target: service.ErrPayoutNotFound, code: response.CodeNotFound, msg: "payout not found"},
	{target: service.ErrPayoutStatusInvalid, code: response.CodeConflict, msg: "payout is not in a reviewable state"},
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid review input"},
}
