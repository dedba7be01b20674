package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/HSouheill/taskreward_backend/config"
	"github.com/HSouheill/taskreward_backend/controllers"
	"github.com/HSouheill/taskreward_backend/metrics"
	"github.com/HSouheill/taskreward_backend/middleware"
	"github.com/HSouheill/taskreward_backend/repositories"
	"github.com/HSouheill/taskreward_backend/repositories/memory"
	"github.com/HSouheill/taskreward_backend/routes"
	"github.com/HSouheill/taskreward_backend/services"
	"github.com/HSouheill/taskreward_backend/session"
	"github.com/HSouheill/taskreward_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Ledger store
	store, ping, closeStore := openStore(ctx, cfg)
	defer closeStore()

	// Sessions
	keys, err := session.DeriveKeys(cfg.SecretKey)
	if err != nil {
		log.Fatalf("Failed to derive session keys: %v", err)
	}
	sessions := openSessions(ctx, cfg, keys)
	codec := session.NewCookieCodec(keys.Signing, cfg.SecureCookie)

	// Firebase
	authClient, err := config.InitFirebase(ctx, cfg)
	if err != nil {
		log.Fatalf("Firebase initialization failed: %v", err)
	}
	verifier := services.NewFirebaseVerifier(authClient)

	// Admin live feed
	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)

	// Collaborators
	if cfg.ImgBBKey == "" {
		log.Println("Warning: IMGBB_API_KEY not set, image proofs will fail to upload")
	}
	images := services.NewImgBBService(cfg.ImgBBKey)

	var alerter services.Alerter
	if cfg.TelegramEnabled() {
		telegram, err := services.NewTelegramAlerter(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("Warning: Telegram alerts disabled: %v", err)
		} else {
			alerter = telegram
		}
	}

	var mailer services.Mailer
	if cfg.MailEnabled() {
		mailer = services.NewMailService(services.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
		}, cfg.AdminEmail)
	}

	rules := services.Rules{
		SignupBonus:        cfg.SignupBonus,
		ReferralBonus:      cfg.ReferralBonus,
		WithdrawMinimum:    cfg.WithdrawMinimum,
		EligibleBalance:    cfg.EligibleBalance,
		EligibleReferrals:  cfg.EligibleReferrals,
		TaskCandidateLimit: cfg.TaskCandidates,
		TaskVisibleLimit:   cfg.TaskVisible,
	}

	// Initialize services
	identityService := services.NewIdentityService(store, store, verifier, sessions, cfg.SessionTTL, rules)
	taskService := services.NewTaskService(store, store, store, images, wsHub, rules)
	walletService := services.NewWalletService(store, store, store, store, mailer, wsHub, rules)
	accountService := services.NewAccountService(store, store, store, store, alerter, wsHub, cfg.PublicURL)
	sweeper := services.NewSweeper(store, cfg.CleanupRetention, cfg.CleanupBatch)
	adminService := services.NewAdminService(store, store, taskService, walletService, sweeper)

	if cfg.CleanupCron != "" {
		if err := sweeper.Start(cfg.CleanupCron); err != nil {
			log.Fatalf("Failed to schedule cleanup: %v", err)
		}
		defer sweeper.Stop()
	}

	// Create a new Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	rateLimiter := middleware.NewRateLimiter().
		Limit("/session_login", 2*time.Second, 5).
		Limit("/withdraw", 5*time.Second, 3).
		Limit("/tasks", time.Second, 5)
	go rateLimiter.Cleanup(ctx, 5*time.Minute)

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(metrics.Middleware())
	e.Use(middleware.GlobalCORS(cfg.Origins))
	e.Use(echoMiddleware.Secure())
	e.Use(echoMiddleware.BodyLimit("12M"))
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: cfg.Origins,
		ImageHosts:     []string{"https://i.ibb.co"},
		HSTS:           cfg.SecureCookie,
	}))

	guard := middleware.NewSessionGuard(identityService, codec)

	// Initialize controllers
	routes.SetupRoutes(e, routes.Handlers{
		Guard:       guard,
		AdminPrefix: cfg.AdminRoute,
		Auth:        controllers.NewAuthController(identityService, guard, codec, cfg.FirebaseWebConfig(), cfg.AdminRoute),
		Task:        controllers.NewTaskController(taskService),
		Wallet: controllers.NewWalletController(walletService, controllers.ActivationInfo{
			Fee:    cfg.ActivationFee,
			Number: cfg.ActivationNumber,
		}),
		Account: controllers.NewAccountController(accountService, adminService),
		Admin:   controllers.NewAdminController(adminService, taskService, walletService, wsHub, websocket.NewUpgrader(cfg.Origins)),
		Ping:    ping,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

// openStore connects the configured ledger store and returns it with a health probe and a closer
func openStore(ctx context.Context, cfg *config.Config) (services.Store, func(context.Context) error, func()) {
	if cfg.StoreDriver == "memory" {
		log.Println("Warning: using in-memory store, all data is lost on restart")
		return memory.New(), nil, func() {}
	}

	client, err := config.ConnectDB(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	if err := config.SetupCollections(ctx, client.Database(cfg.DBName)); err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}

	ping := func(ctx context.Context) error { return client.Ping(ctx, nil) }
	closer := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("MongoDB disconnect failed: %v", err)
		}
	}
	return repositories.NewMongoStore(client, cfg.DBName), ping, closer
}

func openSessions(ctx context.Context, cfg *config.Config, keys session.Keys) session.Store {
	if cfg.SessionDriver == "memory" {
		log.Println("Warning: using in-memory sessions")
		return session.NewMemoryStore()
	}

	client, err := config.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	store, err := session.NewRedisStore(client, keys.Encryption)
	if err != nil {
		log.Fatalf("Session store setup failed: %v", err)
	}
	return store
}
