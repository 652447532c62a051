package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/transcribe-bot/internal/api/handler"
	"github.com/cuongbtq/transcribe-bot/internal/api/router"
	"github.com/cuongbtq/transcribe-bot/internal/bot"
	"github.com/cuongbtq/transcribe-bot/internal/collector"
	"github.com/cuongbtq/transcribe-bot/internal/config"
	"github.com/cuongbtq/transcribe-bot/internal/elevateai"
	"github.com/cuongbtq/transcribe-bot/internal/events"
	"github.com/cuongbtq/transcribe-bot/internal/history"
	"github.com/cuongbtq/transcribe-bot/internal/jobstatus"
	"github.com/cuongbtq/transcribe-bot/internal/lifecycle"
	"github.com/cuongbtq/transcribe-bot/internal/registry"
	"github.com/cuongbtq/transcribe-bot/shared/logger"
	"github.com/cuongbtq/transcribe-bot/shared/postgresql"
	"github.com/cuongbtq/transcribe-bot/shared/rabbitmq"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("TRANSCRIBE_BOT_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/transcribe-bot/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting transcription bot",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := make(map[string]handler.HealthCheck)

	// Optional job history
	var (
		recorder     lifecycle.Recorder
		historyStore handler.HistoryStore
		dbClient     *postgresql.Client
	)
	if cfg.Database.Enabled {
		dbClient, err = initPostgreSQL(&cfg.Database, appLogger.Component("postgresql"))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer dbClient.Close()

		if err := history.Migrate(ctx, dbClient); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		store := history.NewStorage(dbClient)
		recorder = store
		historyStore = store
		checks["database"] = dbClient.HealthCheck
		appLogger.Info("Job history enabled")
	}

	// Optional lifecycle events
	var publisher lifecycle.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Component("rabbitmq"))
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		defer rabbitClient.Close()

		publisher = events.NewPublisher(rabbitClient, appLogger.Component("events"))
		checks["rabbitmq"] = func(ctx context.Context) error {
			if !rabbitClient.IsConnected() {
				return errors.New("not connected to RabbitMQ")
			}
			return nil
		}
		appLogger.Info("Lifecycle events enabled", slog.String("exchange", cfg.RabbitMQ.Exchange.Name))
	}

	session, err := bot.NewSession(cfg.Discord.Token)
	if err != nil {
		return err
	}

	transcriber := elevateai.NewClient(&elevateai.Config{
		BaseURL: cfg.ElevateAI.BaseURL,
		Token:   cfg.ElevateAI.Token,
		Timeout: cfg.ElevateAI.Timeout,
		Logger:  appLogger.Component("elevateai"),
	})

	jobs := registry.New()
	hub := collector.NewHub()
	attachments := collector.New(hub, appLogger.Component("collector"))
	statusService := jobstatus.NewService(jobs)

	controller := lifecycle.NewController(&lifecycle.Config{
		Logger:             appLogger.Component("lifecycle"),
		Transcriber:        transcriber,
		Registry:           jobs,
		Collector:          attachments,
		Fetcher:            bot.NewDownloader(cfg.ElevateAI.Timeout, bot.DefaultMaxAttachmentBytes),
		Messenger:          bot.NewDirectMessenger(session),
		Recorder:           recorder,
		Publisher:          publisher,
		PollInterval:       cfg.Transcription.PollInterval,
		AttachmentTimeout:  cfg.Transcription.AttachmentTimeout,
		SlowWarningAfter:   cfg.Transcription.SlowWarningAfter,
		MaxPollFailures:    cfg.Transcription.MaxPollFailures,
		UseAttachmentLinks: cfg.Transcription.UseAttachmentLinks,
		Languages:          cfg.Transcription.Languages,
		DefaultLanguage:    cfg.Transcription.DefaultLanguage,
	})

	discordBot := bot.New(&bot.Config{
		Logger:                   appLogger.Component("bot"),
		Session:                  session,
		GuildID:                  cfg.Discord.GuildID,
		RemoveCommandsOnShutdown: cfg.Discord.RemoveCommandsOnShutdown,
		Jobs:                     controller,
		Status:                   statusService,
		Canceller:                attachments,
		Messages:                 hub,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return discordBot.Run(gctx)
	})

	if cfg.Server.Enabled {
		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: initRouter(cfg, &handler.Dependencies{
				Logger:      appLogger.Component("api"),
				ServiceName: cfg.App.Name,
				AdminToken:  cfg.Server.AdminToken,
				Status:      statusService,
				History:     historyStore,
				Checks:      checks,
			}),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}

		g.Go(func() error {
			appLogger.Info("Starting HTTP server", slog.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	appLogger.Info("Transcription bot is running")

	runErr := g.Wait()
	if runErr != nil {
		appLogger.Error("Service stopped with error", slog.Any("error", runErr))
	}

	appLogger.Info("Shutting down...")

	// Jobs run under ctx; make sure they see the cancellation even when the
	// group stopped on an error rather than a signal.
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := controller.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("Jobs did not stop in time", slog.Any("error", err))
	}

	appLogger.Info("Transcription bot shutdown complete")
	return runErr
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		BindingKey:         cfg.Queue.BindingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, deps *handler.Dependencies) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	return router.SetupRouter(deps)
}
