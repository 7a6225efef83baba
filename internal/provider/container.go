package provider

import (
	"github.com/rupeeback/internal/cache"
	"github.com/rupeeback/internal/config"
	"github.com/rupeeback/internal/logger"
	"github.com/rupeeback/internal/models"
	"github.com/rupeeback/internal/queue"
	"github.com/rupeeback/internal/repository"
	"github.com/rupeeback/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo       repository.AdminRepository
	UserRepo        repository.UserRepository
	MerchantRepo    repository.MerchantRepository
	ProductRepo     repository.ProductRepository
	CouponRepo      repository.CouponRepository
	ClickRepo       repository.ClickRepository
	ConversionRepo  repository.ConversionRepository
	TransactionRepo repository.TransactionRepository
	PayoutRepo      repository.PayoutRepository

	// Services
	AuthService       *service.AuthService
	UserAuthService   *service.UserAuthService
	CatalogService    *service.CatalogService
	ClickService      *service.ClickService
	ConversionService *service.ConversionService
	LedgerService     *service.LedgerService
	PayoutService     *service.PayoutService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.MerchantRepo = repository.NewMerchantRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.ClickRepo = repository.NewClickRepository(db)
	c.ConversionRepo = repository.NewConversionRepository(db)
	c.TransactionRepo = repository.NewTransactionRepository(db)
	c.PayoutRepo = repository.NewPayoutRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.CatalogService = service.NewCatalogService(c.MerchantRepo, c.ProductRepo, c.CouponRepo)
	c.ClickService = service.NewClickService(c.ClickRepo, c.MerchantRepo, c.ProductRepo, c.CouponRepo, c.Config.Cashback.SubIDParam)
	c.LedgerService = service.NewLedgerService(c.TransactionRepo, c.UserRepo, c.QueueClient, c.Config.Cashback.ConfirmDays)
	c.ConversionService = service.NewConversionService(c.ConversionRepo, c.ClickRepo, c.MerchantRepo, c.LedgerService)
	c.PayoutService = service.NewPayoutService(c.PayoutRepo, c.TransactionRepo, c.UserRepo, c.Config.Cashback)
}
