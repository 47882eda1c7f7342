// Package container provides dependency injection and lifecycle management
// for the expense workflow service.
package container

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Expense holds the pay calculation rules
	Expense ExpenseConfig

	// Lark notification configuration
	Lark LarkConfig

	// Export configuration
	Export ExportConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// AutoMigrate applies the embedded migrations on start
	AutoMigrate bool
}

// ExpenseConfig holds the business constants of the pay calculation.
type ExpenseConfig struct {
	MealCapPerPerson int64
	RoundingUnit     int64
	EfficiencyFactor decimal.Decimal
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	// Enabled turns Lark notifications on
	Enabled bool

	// AppID is the Lark application ID
	AppID string

	// AppSecret is the Lark application secret
	AppSecret string

	// ApproverOpenID receives submission notices
	ApproverOpenID string

	// ReceiveIDType tells Lark how to read receive ids
	ReceiveIDType string

	// APITimeout is the timeout for API calls
	APITimeout time.Duration
}

// ExportConfig holds statement export settings.
type ExportConfig struct {
	// CompanyName is printed on every statement
	CompanyName string

	// SummarySheet names the overview sheet of multi-claim workbooks
	SummarySheet string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "data/expense.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			AutoMigrate:  true,
		},
		Expense: ExpenseConfig{
			MealCapPerPerson: 8000,
			RoundingUnit:     10,
			EfficiencyFactor: decimal.RequireFromString("0.85"),
		},
		Lark: LarkConfig{
			ReceiveIDType: "open_id",
			APITimeout:    10 * time.Second,
		},
		Export: ExportConfig{
			SummarySheet: "Summary",
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Expense.MealCapPerPerson <= 0 {
		return fmt.Errorf("expense.meal_cap_per_person must be positive")
	}
	if c.Expense.RoundingUnit <= 0 {
		return fmt.Errorf("expense.rounding_unit must be positive")
	}
	if !c.Expense.EfficiencyFactor.IsPositive() {
		return fmt.Errorf("expense.efficiency_factor must be positive")
	}

	// Validate Lark configuration
	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required")
		}
		if c.Lark.ApproverOpenID == "" {
			return fmt.Errorf("lark.approver_open_id is required")
		}
	}

	return nil
}
