// cmd/admin-service/main.go
package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"petshop/internal/pkg/bootstrap"
	"petshop/internal/pkg/database"
	"petshop/internal/pkg/kvstore"
	"petshop/internal/pkg/logger"
	pkgredis "petshop/internal/pkg/redis"
	"petshop/internal/pkg/session"
	"petshop/internal/pkg/zookeeper"

	cartapp "petshop/internal/service/cart/application"
	cartinfra "petshop/internal/service/cart/infrastructure"
	catalogapp "petshop/internal/service/catalog/application"
	cataloginfra "petshop/internal/service/catalog/infrastructure"
	catalogiface "petshop/internal/service/catalog/interfaces"
	orderapp "petshop/internal/service/order/application"
	orderinfra "petshop/internal/service/order/infrastructure"
	orderiface "petshop/internal/service/order/interfaces"
	promoapp "petshop/internal/service/promotion/application"
	promoinfra "petshop/internal/service/promotion/infrastructure"
	"petshop/internal/service/promotion/infrastructure/rule"
	promoiface "petshop/internal/service/promotion/interfaces"
)

const serviceName = "admin-service"

func main() {
	seedDir := flag.String("seed", "", "目录非空时启动前导入商品种子文件")
	flag.Parse()

	logger.Init(serviceName)
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()
	ctx := context.Background()

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

	productRepo := cataloginfra.NewGormProductRepository(db)
	if *seedDir != "" {
		count, err := cataloginfra.NewSeedLoader(productRepo, *seedDir).Load(ctx)
		if err != nil {
			zlog.Fatal().Err(err).Str("dir", *seedDir).Msg("failed to load product seed files")
		}
		zlog.Info().Int("count", count).Str("dir", *seedDir).Msg("product seed files loaded")
	}

	catalogService := catalogapp.NewCatalogService(productRepo, cataloginfra.NewKvReviewStore(store))
	catalogHandler := catalogiface.NewCatalogHandler(catalogService, sessionMgr)

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

	// 后台只查订单、改状态，不走结算链路，购物车和折扣依赖给内存实现即可
	cartService := cartapp.NewCartService(cartinfra.NewCartMemoryRepository(), otel.Tracer(serviceName))
	checkoutService := orderapp.NewCheckoutService(
		orderinfra.NewGormOrderRepository(db),
		cartService,
		&noDiscount{},
		&noopPublisher{},
		cfg.App.ShippingFees,
	)
	orderHandler := orderiface.NewOrderHandler(checkoutService, sessionMgr)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8081,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			catalogHandler.RegisterAdminRoutes(appCtx.Mux)
			promotionHandler.RegisterAdminRoutes(appCtx.Mux)
			orderHandler.RegisterAdminRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			zkConn.Close()
			if err := redisClient.Close(); err != nil {
				zlog.Error().Err(err).Msg("error closing redis client")
			}
		},
	})
}
