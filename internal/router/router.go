package router

import (
	"fmt"
	"strings"

	"github.com/rupeeback/internal/cache"
	"github.com/rupeeback/internal/config"
	adminhandlers "github.com/rupeeback/internal/http/handlers/admin"
	publichandlers "github.com/rupeeback/internal/http/handlers/public"
	"github.com/rupeeback/internal/logger"
	"github.com/rupeeback/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "rb"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}
	payoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:payout", redisPrefix),
		WindowSeconds: cfg.Security.PayoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.PayoutRateLimit.MaxAttempts,
		Message:       "too many payout requests",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/merchants", publicHandler.ListMerchants)
			public.GET("/merchants/:slug", publicHandler.GetMerchantBySlug)
			public.GET("/merchants/:slug/products", publicHandler.ListMerchantProducts)
			public.GET("/merchants/:slug/coupons", publicHandler.ListMerchantCoupons)
		}

		// 出站跳转（登录可选，登录用户的点击参与归因）
		apiV1.GET("/go/:merchant", OptionalUserJWTMiddleware(cfg.UserJWT.SecretKey), publicHandler.Redirect)

		// 联盟转化回传
		apiV1.POST("/webhooks/conversions", publicHandler.IngestConversionWebhook)

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.PUT("/me/password", publicHandler.ChangeUserPassword)
			user.GET("/me/summary", publicHandler.GetCashbackSummary)
			user.GET("/me/clicks", publicHandler.ListMyClicks)
			user.GET("/me/transactions", publicHandler.ListMyTransactions)
			user.GET("/me/payouts", publicHandler.ListMyPayouts)
			user.POST("/me/payouts", RateLimitMiddleware(redisClient, payoutRule, KeyByUserID), publicHandler.RequestPayout)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.Login)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.PUT("/password", adminHandler.ChangePassword)

				// 商家管理
				authorized.GET("/merchants", adminHandler.ListMerchants)
				authorized.GET("/merchants/:id", adminHandler.GetMerchant)
				authorized.POST("/merchants", adminHandler.CreateMerchant)
				authorized.PUT("/merchants/:id", adminHandler.UpdateMerchant)

				// 商品管理
				authorized.GET("/products", adminHandler.ListProducts)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)

				// 优惠券管理
				authorized.GET("/coupons", adminHandler.ListCoupons)
				authorized.POST("/coupons", adminHandler.CreateCoupon)
				authorized.PUT("/coupons/:id", adminHandler.UpdateCoupon)

				// 点击与转化
				authorized.GET("/clicks", adminHandler.ListClicks)
				authorized.GET("/conversions", adminHandler.ListConversions)
				authorized.GET("/conversions/:id", adminHandler.GetConversion)
				authorized.POST("/conversions/import", adminHandler.ImportConversions)

				// 返利账本
				authorized.GET("/transactions", adminHandler.ListTransactions)
				authorized.GET("/transactions/:id", adminHandler.GetTransaction)
				authorized.POST("/transactions/:id/transition", adminHandler.TransitionTransaction)
				authorized.GET("/users/:id/balance-audit", adminHandler.AuditUserBalance)

				// 提现管理
				authorized.GET("/payouts", adminHandler.ListPayouts)
				authorized.GET("/payouts/:id", adminHandler.GetPayout)
				authorized.POST("/payouts/:id/review", adminHandler.ReviewPayout)
			}
		}
	}

	return r
}
