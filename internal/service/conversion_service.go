package service

import (
	"strings"

	"github.com/rupeeback/internal/constants"
	"github.com/rupeeback/internal/logger"
	"github.com/rupeeback/internal/models"
	"github.com/rupeeback/internal/repository"

	"gorm.io/gorm"
)

// ConversionService 转化入账服务
type ConversionService struct {
	conversionRepo repository.ConversionRepository
	clickRepo      repository.ClickRepository
	merchantRepo   repository.MerchantRepository
	ledgerSvc      *LedgerService
}

// IngestConversionInput 转化上报输入（联盟回传或后台批量导入）
type IngestConversionInput struct {
	ClickToken string
	MerchantID uint
	OrderID    string
	SaleAmount models.Money
	RawPayload string
}

// IngestConversionResult 转化入账结果
type IngestConversionResult struct {
	Conversion  *models.Conversion
	Transaction *models.CashbackTransaction // 匹配到登录用户点击时创建
}

// NewConversionService 创建转化入账服务
func NewConversionService(
	conversionRepo repository.ConversionRepository,
	clickRepo repository.ClickRepository,
	merchantRepo repository.MerchantRepository,
	ledgerSvc *LedgerService,
) *ConversionService {
	return &ConversionService{
		conversionRepo: conversionRepo,
		clickRepo:      clickRepo,
		merchantRepo:   merchantRepo,
		ledgerSvc:      ledgerSvc,
	}
}

// Ingest 接收一笔联盟转化上报
// (merchant_id, order_id) 为去重自然键；重复上报拒绝，绝不更新已有记录。
// 令牌匹配到登录用户的点击时，转化、账本交易、余额累加在同一事务内落库。
func (s *ConversionService) Ingest(input IngestConversionInput) (*IngestConversionResult, error) {
	input.OrderID = strings.TrimSpace(input.OrderID)
	input.ClickToken = strings.TrimSpace(input.ClickToken)
	if input.MerchantID == 0 || input.OrderID == "" {
		return nil, ErrInvalidInput
	}
	if input.SaleAmount.IsNegative() {
		return nil, ErrInvalidInput
	}

	merchant, err := s.merchantRepo.GetByID(input.MerchantID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}

	// 事务外先查一次，常见的重复上报不必进入写事务
	existing, err := s.conversionRepo.GetByMerchantAndOrder(input.MerchantID, input.OrderID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if existing != nil {
		return nil, ErrDuplicateConversion
	}

	result := &IngestConversionResult{}
	err = s.conversionRepo.Transaction(func(tx *gorm.DB) error {
		conversionRepo := s.conversionRepo.WithTx(tx)
		clickRepo := s.clickRepo.WithTx(tx)

		conversion := &models.Conversion{
			ClickToken: input.ClickToken,
			MerchantID: input.MerchantID,
			OrderID:    input.OrderID,
			SaleAmount: input.SaleAmount,
			Status:     constants.ConversionStatusUnmatched,
			RawPayload: input.RawPayload,
		}

		var click *models.Click
		if input.ClickToken != "" {
			click, err = clickRepo.GetByTokenForUpdate(input.ClickToken)
			if err != nil {
				return wrapPersistence(err)
			}
			if click != nil && click.MerchantID != input.MerchantID {
				// 令牌属于其他商家的点击，视为无匹配
				click = nil
			}
			if click != nil && click.ConversionID != nil {
				// 点击已被先前的转化消费，不再二次归因
				click = nil
			}
		}
		if click != nil {
			conversion.Status = constants.ConversionStatusMatched
			conversion.UserID = click.UserID
		}

		if err := conversionRepo.Create(conversion); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateConversion
			}
			return wrapPersistence(err)
		}

		if click != nil {
			if err := clickRepo.SetConversionRef(click.ClickToken, conversion.ID); err != nil {
				return wrapPersistence(err)
			}
			// 匿名点击匹配成功但无账户可入账，只保留归因记录
			if click.UserID != nil {
				txn, err := s.ledgerSvc.CreateTransactionInTx(tx, conversion, click)
				if err != nil {
					return err
				}
				result.Transaction = txn
			}
		}

		result.Conversion = conversion
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Transaction != nil {
		s.ledgerSvc.AfterTransactionCreated(result.Transaction)
	}
	if result.Conversion.Status == constants.ConversionStatusUnmatched {
		logger.Infow("转化未匹配到点击，仅留档",
			"merchant_id", input.MerchantID,
			"order_id", input.OrderID,
			"click_token", input.ClickToken,
		)
	}
	return result, nil
}

// GetConversion 按ID获取转化记录
func (s *ConversionService) GetConversion(id uint) (*models.Conversion, error) {
	conversion, err := s.conversionRepo.GetByID(id)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if conversion == nil {
		return nil, ErrConversionNotFound
	}
	return conversion, nil
}

// ListConversions 分页查询转化记录
func (s *ConversionService) ListConversions(filter repository.ConversionListFilter) ([]models.Conversion, int64, error) {
	conversions, total, err := s.conversionRepo.List(filter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return conversions, total, nil
}
