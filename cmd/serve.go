package cmd

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"marketplace-auth/internal/data/repository"
	"marketplace-auth/internal/usecase"
	"marketplace-auth/internal/wire"
	"marketplace-auth/pkg/auth"
	"marketplace-auth/pkg/database"
	"marketplace-auth/pkg/notify"
	"marketplace-auth/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "load config").Wrap(err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using production logger.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("env", config.App.Env),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if config.Database.AutoMigrate {
		if err := migrateUp(config.Database.URL()); err != nil {
			logger.Error("Failed to apply migrations", zap.Error(err))
			return err
		}
		logger.Info("Database migrations applied")
	}

	// Connect to database
	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	notifier, closeNotifier, err := newNotifier(config, logger)
	if err != nil {
		logger.Error("Failed to set up notifier", zap.Error(err))
		return oops.Code("NOTIFIER_INIT_FAILED").With("driver", config.Notify.Driver).Wrap(err)
	}
	defer closeNotifier()

	deps, err := newDependencies(ctx, config, notifier, logger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	usecase.RegisterMetrics(registry)

	repos := repository.NewRepository(db, logger)
	app := wire.Wiring(repos, deps, config, registry, logger)

	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))
	if err := APIServer(ctx, app.Router, config.App.Port); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", zap.Error(err))
		return err
	}

	logger.Info("Server stopped")
	return nil
}

func newDependencies(ctx context.Context, config *utils.Config, notifier notify.Sender, logger *zap.Logger) (usecase.Dependencies, error) {
	tokens, err := auth.NewTokenIssuer(config.JWT.Secret, config.JWT.Issuer)
	if err != nil {
		return usecase.Dependencies{}, oops.Code("CONFIG_INVALID").With("operation", "create token issuer").Wrap(err)
	}

	if config.Google.ClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID not set, federated login will reject every assertion")
	}
	keys, err := auth.NewGoogleKeys(ctx, config.Google.JWKSURL)
	if err != nil {
		return usecase.Dependencies{}, oops.Code("CONFIG_INVALID").With("operation", "load google signing keys").Wrap(err)
	}

	return usecase.Dependencies{
		Hasher:     auth.NewBcryptHasher(config.Auth.BcryptCost),
		Tokens:     tokens,
		ResetCodes: auth.NewResetCodeManager(config.Auth.ResetCodeTTL),
		Identities: auth.NewGoogleVerifier(config.Google.ClientID, keys),
		Notifier:   notifier,
	}, nil
}

// newNotifier picks the reset-code delivery channel. The returned func
// releases its resources.
func newNotifier(config *utils.Config, logger *zap.Logger) (notify.Sender, func(), error) {
	switch config.Notify.Driver {
	case "smtp":
		e := config.Email
		return notify.NewSMTPSender(e.Host, e.Port, e.User, e.Password, e.From, config.Auth.ResetCodeTTL), func() {}, nil
	case "amqp":
		pub, err := notify.NewPublisher(config.AMQP.URL, config.AMQP.Exchange)
		if err != nil {
			return nil, nil, err
		}
		return notify.NewAMQPSender(pub), func() { _ = pub.Close() }, nil
	default:
		if !config.App.IsDevelopment() {
			logger.Warn("Reset codes are only written to the log; set NOTIFY_DRIVER for delivery")
		}
		return notify.NewLogSender(logger), func() {}, nil
	}
}
