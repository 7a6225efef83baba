package service

import (
	"errors"

	"github.com/rupeeback/internal/repository"
)

// 服务层统一错误定义，处理器按错误映射响应码
var (
	// 通用
	ErrNotFound           = errors.New("record not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPersistence        = errors.New("persistence failure")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserDisabled       = errors.New("user disabled")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("wrong password")
	ErrPasswordTooWeak    = errors.New("password too short")

	// 点击与转化
	ErrMerchantNotFound    = errors.New("merchant not found or inactive")
	ErrDuplicateConversion = errors.New("conversion already recorded for this merchant order")
	ErrConversionNotFound  = errors.New("conversion not found")
	ErrClickTokenInvalid   = errors.New("click token invalid")

	// 账本
	ErrTransactionNotFound = errors.New("cashback transaction not found")
	ErrInvalidTransition   = errors.New("illegal transaction status transition")
	ErrTransactionLocked   = errors.New("transaction attached to a payout cannot change")
	ErrBalanceCorruption   = errors.New("balance would become negative")

	// 提现
	ErrPayoutNotFound        = errors.New("payout request not found")
	ErrInsufficientBalance   = errors.New("confirmed balance below payout threshold")
	ErrBalanceReconciliation = errors.New("stored balance does not match transaction sum")
	ErrTransactionConflict   = errors.New("concurrent modification, please retry")
	ErrPayoutStatusInvalid   = errors.New("payout request is not in a reviewable status")
	ErrPayoutMethodInvalid   = errors.New("unsupported payout method")
)

// wrapPersistence 将底层存储错误归一为持久化错误，保留原因链
func wrapPersistence(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrPersistence, err)
}

// isConflictError 判断是否为可重试的并发冲突
func isConflictError(err error) bool {
	return repository.IsSerializationFailure(err)
}

// isUniqueViolation 判断是否为唯一约束冲突
func isUniqueViolation(err error) bool {
	return repository.IsUniqueViolation(err)
}
