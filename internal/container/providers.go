package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/application/dispatcher"
	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/application/service"
	"github.com/garyjia/expense-workflow/internal/domain/payment"
	"github.com/garyjia/expense-workflow/internal/infrastructure/export"
	infraLark "github.com/garyjia/expense-workflow/internal/infrastructure/external/lark"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-workflow/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database and creates the transaction manager.
// Pending embedded migrations are applied when AutoMigrate is set.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		migrator := database.NewMigrator(conn, database.Migrations(), logger)
		if _, err := migrator.Run(ctx); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DatabaseBundle{
		Conn:           conn,
		TransactionMgr: sqlite.NewDB(conn.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Claim:    repository.NewClaimRepository(db, logger),
		Settings: repository.NewSettingsRepository(db, logger),
		History:  repository.NewHistoryRepository(db, logger),
		Draft:    repository.NewDraftRepository(db, logger),
	}, nil
}

// ProvideNotifier creates the Lark notifier.
// It returns nil when notifications are disabled.
func ProvideNotifier(cfg *LarkConfig, logger *zap.Logger) (port.Notifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("lark config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if !cfg.Enabled {
		return nil, nil
	}

	client := infraLark.NewSDKClient(infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		Timeout:   cfg.APITimeout,
	}, logger)

	return infraLark.NewNotifier(client, infraLark.NotifierConfig{
		ApproverID:    cfg.ApproverOpenID,
		ReceiveIDType: cfg.ReceiveIDType,
	}, logger), nil
}

// ProvideDispatcher creates the event dispatcher that delivers claim notifications
// in the background. target may be nil, in which case events have no subscriber.
func ProvideDispatcher(target port.Notifier, logger *zap.Logger) dispatcher.Dispatcher {
	d := dispatcher.NewDispatcher(dispatcher.WithLogger(&zapLoggerAdapter{logger: logger}))
	if target != nil {
		dispatcher.SubscribeNotifier(d, "lark", target)
	}
	return d
}

// ProvideCalculator builds the pay calculator from the expense rules.
func ProvideCalculator(cfg *ExpenseConfig) *payment.Calculator {
	return payment.NewCalculator(payment.Rules{
		MealCapPerPerson: cfg.MealCapPerPerson,
		RoundingUnit:     cfg.RoundingUnit,
		EfficiencyFactor: cfg.EfficiencyFactor,
	})
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Notifier   port.Notifier
	Calculator *payment.Calculator
	Export     ExportConfig
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Calculator == nil {
		return nil, fmt.Errorf("calculator is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	// Create logger adapter for services
	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	opts := []service.ClaimServiceOption{service.WithCalculator(deps.Calculator)}
	if deps.Notifier != nil {
		opts = append(opts, service.WithNotifier(deps.Notifier))
	}

	return &ServiceBundle{
		Claim: service.NewClaimService(
			deps.Repos.Claim,
			deps.Repos.Settings,
			deps.Repos.Draft,
			deps.Repos.History,
			deps.TxManager,
			serviceLogger,
			opts...,
		),
		Export: service.NewExportService(
			deps.Repos.Claim,
			deps.Repos.Settings,
			export.NewXLSXWriter(deps.Export.SummarySheet, deps.Logger),
			deps.Calculator,
			deps.Export.CompanyName,
			serviceLogger,
		),
		Settings: service.NewSettingsService(
			deps.Repos.Settings,
			deps.Calculator,
			serviceLogger,
		),
	}, nil
}
