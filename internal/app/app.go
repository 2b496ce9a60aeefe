package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/opsfort/opsledger/internal/analyzer"
	"github.com/opsfort/opsledger/internal/cache"
	"github.com/opsfort/opsledger/internal/config"
	"github.com/opsfort/opsledger/internal/env"
	"github.com/opsfort/opsledger/internal/errHandler"
	"github.com/opsfort/opsledger/internal/helper"
	"github.com/opsfort/opsledger/internal/ledger"
	"github.com/opsfort/opsledger/internal/repository"
	"github.com/opsfort/opsledger/internal/smtp"
	"github.com/opsfort/opsledger/internal/stream"

	"github.com/joho/godotenv"
)

// Essential services and resources are exposed to the application
// this makes it possible for methods to have access to these items and when they need them
type Application struct {
	Config       config.Config
	DB           repository.Database
	Logger       *slog.Logger
	Mailer       *smtp.Mailer
	WG           sync.WaitGroup
	Cache        *cache.Cache
	Kafka        *stream.KafkaStream
	Engine       *ledger.Engine
	Limits       *ledger.LimitStore
	Coordinator  *ledger.Coordinator
	Analyzer     *analyzer.Analyzer
	errorHandler *errHandler.ErrorHandler
	helper       *helper.HelperRepository
}

func NewApplication(logger *slog.Logger) (*Application, error) {
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", "error", err)
	}

	var cfg config.Config

	// config values are loaded from the .env file
	// Default values are provided for these items and these should strictly be values for development mode only
	// make sure no production-level value is exposed as default value here
	cfg.BaseURL = env.GetString("BASE_URL", "http://localhost:4444")
	cfg.HttpPort = env.GetInt("HTTP_PORT", 4444)

	cfg.Db.Dsn = env.GetString("DB_DSN", "user:pass@localhost:5432/db")
	cfg.Db.Automigrate = env.GetBool("DB_AUTOMIGRATE", true)

	cfg.Jwt.SecretKey = env.GetString("JWT_SECRET_KEY", "ajf5nx3qmp6zquevllxocxqvyz42ypuo")

	// server errors won't be sent via email if the NOTIFICATIONS_EMAIL wasn't set in the .env file
	cfg.Notifications.Email = env.GetString("NOTIFICATIONS_EMAIL", "")
	cfg.Notifications.OpsEmail = env.GetString("OPS_ALERT_EMAIL", "")

	cfg.Smtp.Host = env.GetString("SMTP_HOST", "example.smtp.host")
	cfg.Smtp.Port = env.GetInt("SMTP_PORT", 25)
	cfg.Smtp.Username = env.GetString("SMTP_USERNAME", "example_username")
	cfg.Smtp.Password = env.GetString("SMTP_PASSWORD", "pa55word")
	cfg.Smtp.From = env.GetString("SMTP_FROM", "Ops Ledger <no_reply@example.org>")

	cfg.Ledger.BulkWorkers = env.GetInt("LEDGER_BULK_WORKERS", 8)

	cfg.RedisServer = env.GetString("REDIS_SERVER", "localhost:6379")
	cfg.RedisDB = env.GetInt("REDIS_DB", 0)
	cfg.KafkaServers = env.GetString("KAFKA_SERVERS", "localhost:9092")

	db, err := repository.New(cfg.Db.Dsn, cfg.Db.Automigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	kafkaStream, err := stream.New(cfg.KafkaServers, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize kafka producer: %w", err)
	}

	redisCache := cache.New(cfg.RedisServer, cfg.RedisDB)

	app := &Application{
		Config: cfg,
		DB:     db,
		Logger: logger,
		Mailer: mailer,
		Cache:  redisCache,
		Kafka:  kafkaStream,
	}

	app.helper = helper.New(&cfg.BaseURL, &app.WG, logger)
	app.errorHandler = errHandler.New(cfg.Notifications.Email, mailer, logger, app.helper)

	// The role-default table is injected here; the limit store has no
	// global state of its own.
	app.Limits = ledger.NewLimitStore(db.RiskLimit(), ledger.DefaultRoleLimits)

	app.Engine = ledger.NewEngine(db, db.Wallet(), db.Transaction(), app.Limits, redisCache, kafkaStream, logger)
	app.Coordinator = ledger.NewCoordinator(app.Engine, db.Wallet(), logger, cfg.Ledger.BulkWorkers)
	app.Analyzer = analyzer.New()

	return app, nil
}
