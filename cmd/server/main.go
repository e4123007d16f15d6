package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/booking"
	"github.com/iliyamo/artist-site/internal/catalog"
	"github.com/iliyamo/artist-site/internal/checkout"
	"github.com/iliyamo/artist-site/internal/config"
	"github.com/iliyamo/artist-site/internal/contact"
	"github.com/iliyamo/artist-site/internal/database"
	"github.com/iliyamo/artist-site/internal/handler"
	"github.com/iliyamo/artist-site/internal/logging"
	"github.com/iliyamo/artist-site/internal/mailer"
	"github.com/iliyamo/artist-site/internal/middleware"
	"github.com/iliyamo/artist-site/internal/payment"
	"github.com/iliyamo/artist-site/internal/queue"
	"github.com/iliyamo/artist-site/internal/repository"
	"github.com/iliyamo/artist-site/internal/router"
	"github.com/iliyamo/artist-site/internal/session"
	"github.com/iliyamo/artist-site/internal/subscription"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	mailCfg, err := config.LoadMailConfig()
	if err != nil {
		logger.Fatal("mail config", zap.Error(err))
	}
	payCfg := config.LoadPaymentConfig()
	coCfg := config.LoadCheckoutConfig()
	queueCfg := config.LoadQueueConfig()

	// Everything logged from here on has provider and service secrets masked.
	redactor := logging.NewRedactor(payCfg.StripeSecretKey, payCfg.PayPalClientSecret,
		payCfg.CryptoWebhookSecret, mailCfg.Pass, cfg.DBPass, cfg.JWTSecret)
	logger = logging.Redacting(logger, redactor)

	// ---- MySQL ----
	dsn := database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	migrateDB, err := database.Open(database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, "multiStatements=true"))
	if err != nil {
		logger.Fatal("database (migrate)", zap.Error(err))
	}
	if err := database.Migrate(migrateDB); err != nil {
		logger.Fatal("migrations", zap.Error(err))
	}
	db, err := database.Open(dsn)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer db.Close()

	// ---- Redis ----
	// Carts live in Redis, so unlike caching and rate limiting it is required.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Fatal("redis unreachable; cart sessions need it")
	}
	defer rdb.Close()

	// ---- Email ----
	var mail mailer.Sender = mailer.NewSMTPSender(mailCfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if queueCfg.Queued() {
		consumer := &queue.Consumer{URL: queueCfg.URL, Queue: queueCfg.EmailQueue, Sender: mail, Log: logger}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("email consumer stopped", zap.Error(err))
			}
		}()
		mail = queue.NewPublisher(queueCfg.URL, queueCfg.EmailQueue, logger)
	}
	compose := mailer.Composer{AdminEmail: mailCfg.AdminEmail, SiteURL: cfg.SiteURL}

	// ---- Services ----
	products := repository.NewProductRepo(db)
	cacheCfg := config.LoadCacheConfig()
	cat := catalog.NewService(products, middleware.NewCacheInvalidator(rdb, cacheCfg.Prefix), logger)

	payments := newPayments(payCfg, repository.NewCryptoPaymentRepo(db), redactor, logger)
	ctl := checkout.NewController(payments, repository.NewOrderRepo(db), mail, compose, checkout.Config{
		PollAttempts: coCfg.PollAttempts,
		PollInterval: coCfg.PollInterval,
		CloseAfter:   coCfg.CloseAfter,
	}, logger)
	// The lock must outlive the longest payment wait.
	sessions := session.NewRedisStore(rdb, coCfg.CartTTL, ctl.MaxWait()+30*time.Second)

	bookings := booking.NewService(repository.NewBookingRepo(db), mail, compose, logger)
	contacts := contact.NewService(repository.NewContactRepo(db), mail, compose, logger)
	subs := subscription.NewService(repository.NewSubscriberRepo(db), mail, compose, logger)

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.Validator{}
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	cache := middleware.NewRedisCache(cacheCfg, rdb, logger)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger)

	router.RegisterRoutes(e, &handler.ReadyHandler{DB: db, Redis: rdb})
	api := router.API(e)
	router.RegisterShop(api,
		&handler.ProductHandler{Catalog: cat, Log: logger},
		&handler.CartHandler{Sessions: sessions, Catalog: cat, Log: logger},
		&handler.CheckoutHandler{Sessions: sessions, Checkout: ctl, Log: logger},
		cache, limit)
	router.RegisterPayment(api, &handler.PaymentHandler{
		Payments:      payments,
		WebhookSecret: payCfg.CryptoWebhookSecret,
		SiteURL:       cfg.SiteURL,
		Log:           logger,
	}, limit)
	router.RegisterForms(api,
		&handler.BookingHandler{Bookings: bookings, Log: logger},
		&handler.ContactHandler{Contacts: contacts, Log: logger},
		&handler.SubscribeHandler{Subscriptions: subs, Log: logger},
		limit)
	router.RegisterAdmin(api, &handler.AdminHandler{
		Cfg:           cfg,
		Bookings:      bookings,
		Catalog:       cat,
		Subscriptions: subs,
		Log:           logger,
	}, cfg.JWTSecret, limit)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")
	// Requests may be mid payment poll; give them the full wait to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ctl.MaxWait()+10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}

// newPayments builds one processor per payment method. Processors with
// missing credentials are still registered and fail with a configuration
// error, so a misconfigured method surfaces on use instead of at boot.
func newPayments(cfg config.PaymentConfig, crypto *repository.CryptoPaymentRepo, redactor *logging.Redactor, logger *zap.Logger) *payment.Service {
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	prices := &payment.CoinGecko{BaseURL: cfg.CoinGeckoBaseURL, Client: client}
	return payment.NewService(
		payment.WithProcessor(payment.Card, &payment.CardProcessor{
			SecretKey: cfg.StripeSecretKey,
			BaseURL:   cfg.StripeBaseURL,
			Client:    client,
		}),
		payment.WithProcessor(payment.PayPal, &payment.PayPalProcessor{
			ClientID:     cfg.PayPalClientID,
			ClientSecret: cfg.PayPalClientSecret,
			BaseURL:      cfg.PayPalBaseURL,
			ReturnBase:   cfg.ReturnBaseURL,
			Client:       client,
		}),
		payment.WithProcessor(payment.Bitcoin, &payment.CryptoProcessor{
			Coin: payment.Bitcoin, Address: cfg.BitcoinAddress, Prices: prices, Store: crypto,
		}),
		payment.WithProcessor(payment.Ethereum, &payment.CryptoProcessor{
			Coin: payment.Ethereum, Address: cfg.EthereumAddress, Prices: prices, Store: crypto,
		}),
		payment.WithCryptoConfirmer(payment.CryptoLedger{Store: crypto}),
		payment.WithAlerts(payment.NewAlerts(cfg.AlertWindow)),
		payment.WithRedactor(redactor),
		payment.WithLogger(logger),
	)
}
