package app

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/payflow/server/internal/module/payment"
	"github.com/payflow/server/internal/module/payment/entity"
	"github.com/payflow/server/internal/module/payment/provider"
	"github.com/payflow/server/internal/module/payment/token"
	"github.com/payflow/server/internal/module/settings"
	"github.com/payflow/server/internal/shared/cache"
	"github.com/payflow/server/internal/shared/config"
	"github.com/payflow/server/internal/shared/database"
	"github.com/payflow/server/internal/shared/events"
	"github.com/payflow/server/internal/shared/logger"
	"github.com/payflow/server/internal/shared/middleware"
	"github.com/payflow/server/internal/shared/routing"
	"github.com/payflow/server/internal/utils/metrics"
)

// App wires the payment server together. Construction is explicit and
// ordered: infrastructure first, then services, then the router.
type App struct {
	config *config.Config
	logger *zap.Logger
	db     *gorm.DB
	redis  redis.UniversalClient
	router *gin.Engine

	eventBus *events.Bus
	metrics  *metrics.Metrics

	settingsService *settings.Service
	paymentService  *payment.Service
	paymentHandler  *payment.Handler
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	zapLogger, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{
		config: cfg,
		logger: zapLogger,
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	if err := db.AutoMigrate(&entity.TransactionEntity{}, &settings.SettingEntity{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	app.redis = redisClient

	app.eventBus = events.NewBus(zapLogger)
	app.metrics = metrics.New("payflow")

	app.initSettings()
	if err := app.initPayment(); err != nil {
		return nil, err
	}
	app.initRouter()

	app.eventBus.Register(payment.NewFailureMonitor(zapLogger))

	return app, nil
}

func (a *App) initSettings() {
	repo := settings.NewRepository(a.db)
	a.settingsService = settings.NewService(repo, a.redis, a.logger)
}

func (a *App) initPayment() error {
	cfg := a.config

	codec := token.NewJWTCodec(&token.Config{
		Secret:     cfg.Payment.TokenSecret,
		Issuer:     cfg.Payment.TokenIssuer,
		DefaultTTL: cfg.Payment.DefaultTokenExpiry,
	}, token.NewRedisStore(a.redis))

	registry := provider.NewRegistry()
	if err := a.registerProviders(registry); err != nil {
		return err
	}

	urls := routing.NewBuilder(cfg.Server.PublicURL)
	urls.Register(payment.RoutePaymentFinalize, cfg.Payment.FinalizeRoute)

	repo := payment.NewRepository(a.db)
	gateway := payment.NewStateGateway(repo, a.eventBus, a.metrics, a.logger)
	returnURLs := payment.NewReturnURLBuilder(codec, a.settingsService, urls, a.logger)
	legacy := payment.NewLegacyProcessor(gateway, a.logger)

	a.paymentService = payment.NewService(gateway, registry, codec, returnURLs, legacy, a.metrics, a.logger)
	a.paymentHandler = payment.NewHandler(a.paymentService, a.logger)
	return nil
}

// registerProviders binds the built-in providers to their configured payment
// method ids. A provider without a configured method stays unregistered.
func (a *App) registerProviders(registry *provider.Registry) error {
	cfg := a.config

	if id := cfg.Payment.Methods.Stripe; id != "" {
		methodID, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("parse stripe method id: %w", err)
		}
		registry.Register(methodID, provider.NewStripeProvider(&provider.StripeConfig{
			APIKey:           cfg.Stripe.APIKey,
			FailureThreshold: cfg.Payment.BreakerFailureThreshold,
			BreakerTimeout:   cfg.Payment.BreakerTimeout,
		}))
		a.logger.Info("registered payment provider",
			zap.String("provider", "stripe"),
			zap.String("payment_method_id", id))
	}

	if id := cfg.Payment.Methods.Alipay; id != "" {
		methodID, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("parse alipay method id: %w", err)
		}
		alipayProvider, err := provider.NewAlipayProvider(&provider.AlipayConfig{
			AppID:           cfg.Alipay.AppID,
			PrivateKey:      cfg.Alipay.PrivateKey,
			AlipayPublicKey: cfg.Alipay.AlipayPublicKey,
			IsProd:          cfg.Alipay.IsProd,
		})
		if err != nil {
			return fmt.Errorf("init alipay provider: %w", err)
		}
		registry.Register(methodID, alipayProvider)
		a.logger.Info("registered payment provider",
			zap.String("provider", "alipay"),
			zap.String("payment_method_id", id))
	}

	if id := cfg.Payment.Methods.Invoice; id != "" {
		methodID, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("parse invoice method id: %w", err)
		}
		registry.Register(methodID, provider.NewInvoiceProvider())
		a.logger.Info("registered payment provider",
			zap.String("provider", "invoice"),
			zap.String("payment_method_id", id))
	}

	return nil
}

func (a *App) initRouter() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging(a.logger))
	router.Use(middleware.Metrics(a.metrics))
	router.Use(middleware.CORS(a.config.Server.AllowOrigins))

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.Ping(c.Request.Context(), a.db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		a.metrics.DBConnectionsOpen.Set(float64(database.OpenConnections(a.db)))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	a.paymentHandler.RegisterRoutes(api, router)

	a.router = router
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// PaymentService exposes the coordinator for embedding callers.
func (a *App) PaymentService() *payment.Service {
	return a.paymentService
}

// Stop releases held resources.
func (a *App) Stop() {
	if err := cache.Close(a.redis); err != nil {
		a.logger.Warn("close redis", zap.Error(err))
	}
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}
