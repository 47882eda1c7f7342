package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/application/dispatcher"
	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/application/service"
	"github.com/garyjia/expense-workflow/internal/domain/event"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-workflow/pkg/database"
)

// Container wires the expense workflow: sqlite storage, the notification
// dispatcher and the application services. Start builds them, Close tears them down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	conn         *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	notifier   port.Notifier
	dispatcher dispatcher.Dispatcher

	services *ServiceBundle

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle holds the sqlite-backed stores.
type RepositoryBundle struct {
	Claim    *repository.ClaimRepository
	Settings *repository.SettingsRepository
	History  *repository.HistoryRepository
	Draft    *repository.DraftRepository
}

// ServiceBundle holds the services exposed over HTTP and the CLI.
type ServiceBundle struct {
	Claim    service.ClaimService
	Export   service.ExportService
	Settings service.SettingsService
}

// HealthStatus is the payload of GET /health.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer validates cfg. Nothing is opened until Start.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("container: nil config")
	}
	if logger == nil {
		return nil, fmt.Errorf("container: nil logger")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("container config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start opens the database, runs migrations when enabled, connects Lark when
// enabled and builds the services. A failure releases whatever was opened.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container: start after close")
	}

	if c.ready.Load() {
		return fmt.Errorf("container: already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	c.logger.Info("storage ready", zap.String("path", c.config.Database.Path))

	if err := c.initExternalClients(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("notifications: %w", err)
	}
	c.logger.Info("notifications ready",
		zap.Bool("lark_enabled", c.notifier != nil),
		zap.Int("submit_subscribers", c.dispatcher.HandlerCount(event.TypeClaimSubmitted)))

	if err := c.initServices(); err != nil {
		c.dispatcher.Close()
		c.closeDatabase()
		return fmt.Errorf("services: %w", err)
	}

	c.ready.Store(true)
	c.logger.Info("expense workflow started")

	return nil
}

// Close waits for queued notifications, then closes the database. It fails on a second call.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container: already closed")
	}

	var errs []error

	if c.cancel != nil {
		c.cancel()
	}

	// Pending notifications are delivered before the database goes away
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
		c.dispatcher = nil
	}

	c.services = nil
	c.notifier = nil

	if err := c.closeDatabase(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("expense workflow stopped with errors", zap.Errors("errors", errs))
		return fmt.Errorf("container close: %v", errs)
	}

	c.logger.Info("expense workflow stopped")
	return nil
}

func (c *Container) closeDatabase() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	if err != nil {
		c.logger.Error("close database", zap.Error(err))
	}
	c.conn = nil
	c.db = nil
	c.repositories = nil
	return err
}

// Ready reports whether Start completed and Close has not run.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health pings the database. Lark is reported as disabled when not configured.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, h ComponentHealth) {
		status.Components[name] = h
		status.Overall = status.Overall && h.Healthy
	}

	switch {
	case c.conn == nil:
		set("database", ComponentHealth{Message: "not started"})
	default:
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := c.conn.PingContext(pingCtx); err != nil {
			set("database", ComponentHealth{Message: fmt.Sprintf("ping: %v", err)})
		} else {
			set("database", ComponentHealth{Healthy: true})
		}
	}

	if c.notifier != nil {
		set("lark", ComponentHealth{Healthy: true})
	} else {
		set("lark", ComponentHealth{Healthy: true, Message: "disabled"})
	}

	if c.services != nil {
		set("services", ComponentHealth{Healthy: true})
	} else {
		set("services", ComponentHealth{Message: "not started"})
	}

	return status
}

func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(c.ctx, &c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.conn = dbBundle.Conn
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.db, c.logger)
	if err != nil {
		c.closeDatabase()
		return err
	}

	c.repositories = repos
	return nil
}

// The dispatcher always exists; with Lark disabled it has no subscribers.
func (c *Container) initExternalClients() error {
	notifier, err := ProvideNotifier(&c.config.Lark, c.logger)
	if err != nil {
		return err
	}
	c.notifier = notifier
	c.dispatcher = ProvideDispatcher(notifier, c.logger)
	return nil
}

func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		TxManager:  c.db,
		Notifier:   dispatcher.NewEventNotifier(c.dispatcher),
		Calculator: ProvideCalculator(&c.config.Expense),
		Export:     c.config.Export,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}

	c.services = services
	return nil
}

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Conn returns the raw database connection.
func (c *Container) Conn() *database.DB {
	return c.conn
}

// Dispatcher delivers claim events to the configured notifiers. It is nil before Start.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Repositories is nil before Start.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Services is nil before Start.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

func (c *Container) Logger() *zap.Logger {
	return c.logger
}

func (c *Container) Config() *Config {
	return c.config
}

type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, kv ...interface{}) {
	a.logger.Info(msg, zapFields(kv)...)
}

func (a *zapLoggerAdapter) Error(msg string, kv ...interface{}) {
	a.logger.Error(msg, zapFields(kv)...)
}

// zapFields pairs up kv. Non-string keys and a trailing odd value are dropped.
func zapFields(kv []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		if err, isErr := kv[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, kv[i+1]))
	}
	return fields
}

// LoggerAdapter exposes a zap logger through the key/value Logger interface of the service and HTTP layers.
func LoggerAdapter(logger *zap.Logger) service.Logger {
	return &zapLoggerAdapter{logger: logger}
}
