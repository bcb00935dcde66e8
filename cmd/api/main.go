package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/Aakashmid/Ecommerce-chatbot/api/routes"
	authsvc "github.com/Aakashmid/Ecommerce-chatbot/internal/auth"
	cartsvc "github.com/Aakashmid/Ecommerce-chatbot/internal/cart"
	"github.com/Aakashmid/Ecommerce-chatbot/internal/catalog"
	chatsvc "github.com/Aakashmid/Ecommerce-chatbot/internal/chatbot"
	ordersvc "github.com/Aakashmid/Ecommerce-chatbot/internal/orders"
	usersvc "github.com/Aakashmid/Ecommerce-chatbot/internal/users"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/config"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/llm"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/logger"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/metrics"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if cfg.FeatureFlags.AutoMigrate {
		if err := dbClient.AutoMigrate(
			&models.User{},
			&models.Address{},
			&models.Category{},
			&models.Product{},
			&models.CartItem{},
			&models.Order{},
			&models.OrderItem{},
			&models.ChatbotSession{},
			&models.ChatMessage{},
		); err != nil {
			logg.Error(context.Background(), "failed to run migrations", err)
			os.Exit(1)
		}
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	chatMetrics := metrics.NewChatMetrics(registry)

	conn := dbClient.DB()
	userRepo := usersvc.NewRepository(conn)
	catalogRepo := catalog.NewRepository(conn)
	cartRepo := cartsvc.NewRepository(conn)
	orderRepo := ordersvc.NewRepository(conn)
	chatRepo := chatsvc.NewRepository(conn)

	authService, err := authsvc.NewService(userRepo, redisClient, cfg.JWT, cfg.Password)
	if err != nil {
		fatal(logg, "failed to create auth service", err)
	}
	userService, err := usersvc.NewService(userRepo, dbClient)
	if err != nil {
		fatal(logg, "failed to create user service", err)
	}
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		fatal(logg, "failed to create catalog service", err)
	}
	cartService, err := cartsvc.NewService(cartRepo, catalogRepo)
	if err != nil {
		fatal(logg, "failed to create cart service", err)
	}
	orderService, err := ordersvc.NewService(orderRepo, dbClient, catalogRepo)
	if err != nil {
		fatal(logg, "failed to create order service", err)
	}

	history, err := chatsvc.NewHistory(redisClient, chatRepo, cfg.Chat.HistoryMaxTurns, cfg.Chat.HistoryTTL)
	if err != nil {
		fatal(logg, "failed to create chat history", err)
	}
	tools, err := chatsvc.NewToolDispatcher(catalogService, cartService, orderService)
	if err != nil {
		fatal(logg, "failed to create tool dispatcher", err)
	}
	chatService, err := chatsvc.NewService(
		chatRepo,
		dbClient,
		history,
		llm.NewClient(cfg.OpenAI),
		tools,
		chatMetrics,
		logg,
		cfg.Chat,
		cfg.OpenAI.Model,
	)
	if err != nil {
		fatal(logg, "failed to create chat service", err)
	}
	relay := chatsvc.NewRelay(chatService, cfg.JWT, chatMetrics, logg)

	router := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Registry: registry,

		AuthService:    authService,
		UserService:    userService,
		CatalogService: catalogService,
		CartService:    cartService,
		OrderService:   orderService,
		ChatService:    chatService,
		ChatRelay:      relay,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(graceCtx))
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
