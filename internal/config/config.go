package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Expense  ExpenseConfig  `mapstructure:"expense"`
	Lark     LarkConfig     `mapstructure:"lark"`
	Export   ExportConfig   `mapstructure:"export"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Mode         string        `mapstructure:"mode"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// ExpenseConfig holds the pay calculation rules
type ExpenseConfig struct {
	MealCapPerPerson int64  `mapstructure:"meal_cap_per_person"`
	RoundingUnit     int64  `mapstructure:"rounding_unit"`
	EfficiencyFactor string `mapstructure:"efficiency_factor"`
}

// LarkConfig holds Lark notification configuration
type LarkConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	AppID          string        `mapstructure:"app_id"`
	AppSecret      string        `mapstructure:"app_secret"`
	ApproverOpenID string        `mapstructure:"approver_open_id"`
	ReceiveIDType  string        `mapstructure:"receive_id_type"`
	APITimeout     time.Duration `mapstructure:"api_timeout"`
}

// ExportConfig holds statement export configuration
type ExportConfig struct {
	CompanyName  string `mapstructure:"company_name"`
	SummarySheet string `mapstructure:"summary_sheet"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// An empty configPath uses defaults and the environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.mode", "release")

	// Database defaults
	v.SetDefault("database.path", "data/expense.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)
	v.SetDefault("database.auto_migrate", true)

	// Expense defaults
	v.SetDefault("expense.meal_cap_per_person", 8000)
	v.SetDefault("expense.rounding_unit", 10)
	v.SetDefault("expense.efficiency_factor", "0.85")

	// Lark defaults
	v.SetDefault("lark.enabled", false)
	v.SetDefault("lark.receive_id_type", "open_id")
	v.SetDefault("lark.api_timeout", 10*time.Second)

	// Export defaults
	v.SetDefault("export.company_name", "")
	v.SetDefault("export.summary_sheet", "Summary")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	_ = v.BindEnv("lark.app_id", "LARK_APP_ID")
	_ = v.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	_ = v.BindEnv("lark.approver_open_id", "LARK_APPROVER_OPEN_ID")
	_ = v.BindEnv("database.path", "EXPENSE_DB_PATH")
	_ = v.BindEnv("export.company_name", "COMPANY_NAME")
	_ = v.BindEnv("logger.level", "LOG_LEVEL")
}

var receiveIDTypes = map[string]bool{
	"open_id":  true,
	"user_id":  true,
	"union_id": true,
	"email":    true,
	"chat_id":  true,
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Expense.MealCapPerPerson <= 0 {
		return fmt.Errorf("expense.meal_cap_per_person must be positive")
	}
	if c.Expense.RoundingUnit <= 0 {
		return fmt.Errorf("expense.rounding_unit must be positive")
	}

	// Lark credentials are only needed when notifications are on
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
		if !receiveIDTypes[strings.ToLower(c.Lark.ReceiveIDType)] {
			return fmt.Errorf("lark.receive_id_type %q is not supported", c.Lark.ReceiveIDType)
		}
	}

	switch strings.ToLower(c.Logger.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format %q is not supported", c.Logger.Format)
	}

	return nil
}

// Address returns the host:port the HTTP server listens on
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
