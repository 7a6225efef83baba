package public

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

var authErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "invalid email address"},
	{target: service.ErrPasswordTooWeak, code: response.CodeBadRequest, msg: "password must be at least 8 characters"},
	{target: service.ErrEmailTaken, code: response.CodeConflict, msg: "email already registered"},
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "invalid email or password"},
	{target: service.ErrUserDisabled, code: response.CodeUnauthorized, msg: "account disabled"},
}

var payoutErrorRules = []mappedHandlerError{
	{target: service.ErrPayoutMethodInvalid, code: response.CodeBadRequest, msg: "unsupported payout method"},
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "payout detail required"},
	{target: service.ErrInsufficientBalance, code: response.CodeBadRequest, msg: "confirmed balance below payout threshold"},
	{target: service.ErrTransactionConflict, code: response.CodeConflict, msg: "request conflicted with another operation, please retry"},
	{target: service.ErrBalanceReconciliation, code: response.CodeInternal, msg: "balance verification failed, support has been notified"},
	{target: service.ErrUserNotFound, code: response.CodeUnauthorized, msg: "unauthorized"},
}
