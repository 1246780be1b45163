// cmd/storefront-service/main.go
package main

import (
	"context"
	"net/http"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"petshop/internal/pkg/bootstrap"
	"petshop/internal/pkg/database"
	"petshop/internal/pkg/httpclient"
	"petshop/internal/pkg/kvstore"
	"petshop/internal/pkg/logger"
	pkgredis "petshop/internal/pkg/redis"
	"petshop/internal/pkg/session"
	"petshop/internal/pkg/zookeeper"

	cartapp "petshop/internal/service/cart/application"
	cartinfra "petshop/internal/service/cart/infrastructure"
	cartiface "petshop/internal/service/cart/interfaces"
	catalogapp "petshop/internal/service/catalog/application"
	cataloginfra "petshop/internal/service/catalog/infrastructure"
	catalogiface "petshop/internal/service/catalog/interfaces"
	notifapp "petshop/internal/service/notification/application"
	notifinfra "petshop/internal/service/notification/infrastructure"
	notififace "petshop/internal/service/notification/interfaces"
	orderapp "petshop/internal/service/order/application"
	orderinfra "petshop/internal/service/order/infrastructure"
	orderiface "petshop/internal/service/order/interfaces"
	promoapp "petshop/internal/service/promotion/application"
	promoinfra "petshop/internal/service/promotion/infrastructure"
	"petshop/internal/service/promotion/infrastructure/rule"
	promoiface "petshop/internal/service/promotion/interfaces"
	userapp "petshop/internal/service/user/application"
	userinfra "petshop/internal/service/user/infrastructure"
	useriface "petshop/internal/service/user/interfaces"
)

const serviceName = "storefront-service"

// discountAdapter 让结算编排器只拿到折扣金额，拿不到券对象
type discountAdapter struct {
	promotions *promoapp.PromotionService
}

func (a *discountAdapter) ResolveDiscount(ctx context.Context, code string, subtotal decimal.Decimal, itemCount int) (decimal.Decimal, error) {
	discount, _, err := a.promotions.ResolveDiscount(ctx, code, subtotal, itemCount)
	return discount, err
}

func main() {
	logger.Init(serviceName)
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()
	ctx := context.Background()

	// 基础设施
	redisClient, err := pkgredis.NewClient(ctx, cfg.Infra.Redis.Addr)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to redis")
	}
	db, err := database.OpenMysql(cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to mysql")
	}
	zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Addrs, 5*time.Second)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to zookeeper")
	}

	store := kvstore.NewRedisStore(redisClient)
	sessionMgr := session.NewManager(store, time.Duration(cfg.App.SessionIdleMinutes)*time.Minute)

	// 购物车
	cartRepo, err := cartinfra.NewCartRedisRepository(redisClient)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to initialize cart repository")
	}
	cartService := cartapp.NewCartService(cartRepo, otel.Tracer(serviceName))
	cartHandler := cartiface.NewCartHandler(cartService, sessionMgr)

	// 营销
	ruleEngine, err := rule.NewCELRuleEngine()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to initialize rule engine")
	}
	promotionService := promoapp.NewPromotionService(
		promoinfra.NewGormVoucherRepository(db),
		ruleEngine,
		promoinfra.NewZkVoucherLocker(zkConn),
		cfg.App.FeatureFlags.EnableVoucherRules,
		otel.Tracer(serviceName),
	)
	promotionHandler := promoiface.NewPromotionHandler(promotionService, sessionMgr)

	// 商品目录
	catalogService := catalogapp.NewCatalogService(
		cataloginfra.NewGormProductRepository(db),
		cataloginfra.NewKvReviewStore(store),
	)
	catalogHandler := catalogiface.NewCatalogHandler(catalogService, sessionMgr)

	// 结算
	publisher := orderinfra.NewKafkaEventPublisher(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.OrderTopic)
	checkoutService := orderapp.NewCheckoutService(
		orderinfra.NewGormOrderRepository(db),
		cartService,
		&discountAdapter{promotions: promotionService},
		publisher,
		cfg.App.ShippingFees,
	)
	orderHandler := orderiface.NewOrderHandler(checkoutService, sessionMgr)

	// 站内通知（只读接口，写入在 notification-service 消费侧）
	notificationService := notifapp.NewNotificationService(notifinfra.NewKvNotificationStore(store))
	notificationHandler := notififace.NewNotificationHandler(notificationService, sessionMgr)

	// 登录会话
	authService := userapp.NewAuthService(
		userinfra.NewRestAuthClient(httpclient.NewClient(otel.Tracer(serviceName)), cfg.Auth.BaseURL),
		sessionMgr,
	)
	authHandler := useriface.NewAuthHandler(authService)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8080,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			registerHealth(appCtx.Mux)
			cartHandler.RegisterRoutes(appCtx.Mux)
			promotionHandler.RegisterRoutes(appCtx.Mux)
			catalogHandler.RegisterRoutes(appCtx.Mux)
			orderHandler.RegisterRoutes(appCtx.Mux)
			notificationHandler.RegisterRoutes(appCtx.Mux)
			authHandler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if err := publisher.Close(); err != nil {
				zlog.Error().Err(err).Msg("error closing kafka writer")
			}
			zkConn.Close()
			if err := redisClient.Close(); err != nil {
				zlog.Error().Err(err).Msg("error closing redis client")
			}
		},
	})
}

func registerHealth(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
