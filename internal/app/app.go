package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/prodev-shop/backend/internal/domain/auth"
	"github.com/prodev-shop/backend/internal/domain/cart"
	"github.com/prodev-shop/backend/internal/domain/favorite"
	"github.com/prodev-shop/backend/internal/domain/order"
	"github.com/prodev-shop/backend/internal/events"
	"github.com/prodev-shop/backend/internal/handler"
	"github.com/prodev-shop/backend/internal/receipt"
	"github.com/prodev-shop/backend/internal/repository"
	"github.com/prodev-shop/backend/pkg/health"
	"github.com/prodev-shop/backend/pkg/httpmiddleware"
)

// publishingOrders decorates the order service with event publishing. The
// event goes out only after Checkout has committed, so consumers never see
// an order that was rolled back.
type publishingOrders struct {
	*order.Service
	producer *events.Producer
}

func (p publishingOrders) Checkout(ctx context.Context, who order.Identity, couponCode string) (*order.Result, error) {
	res, err := p.Service.Checkout(ctx, who, couponCode)
	if err != nil {
		return nil, err
	}
	p.producer.PublishOrderCreated(ctx, who.UserID, couponCode, res.OrderLines)
	return res, nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories. All bind to the pool; checkout rebinds them to one
	// transaction through the Store.
	store := repository.NewStore(pool)
	userRepo := repository.NewUserRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	favoriteRepo := repository.NewFavoriteRepository(pool)

	// Domain services.
	tokens := auth.NewTokenIssuer([]byte(cfg.TokenSecret), cfg.TokenTTL)
	authSvc := auth.NewService(userRepo, tokens)
	cartSvc := cart.NewService(cartRepo, productRepo)
	orderSvc := order.NewService(store, orderRepo, cartSvc, receipt.Render)
	favoriteSvc := favorite.NewService(favoriteRepo, productRepo)

	// Kafka producer; nil when no brokers are configured.
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, lg.Named("events"))
		defer func() {
			if err := producer.Close(); err != nil {
				lg.Error("Close kafka producer", zap.Error(err))
			}
		}()
	}

	// HTTP handlers.
	h := handler.New(
		authSvc,
		tokens,
		productRepo,
		cartSvc,
		couponRepo,
		publishingOrders{Service: orderSvc, producer: producer},
		favoriteSvc,
	)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	h.Routes(engine)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", engine)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("shop-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
