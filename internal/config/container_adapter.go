package config

import (
	"github.com/garyjia/expense-workflow/internal/container"
	"github.com/garyjia/expense-workflow/internal/domain/money"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			AutoMigrate:     c.Database.AutoMigrate,
		},
		Expense: container.ExpenseConfig{
			MealCapPerPerson: c.Expense.MealCapPerPerson,
			RoundingUnit:     c.Expense.RoundingUnit,
			EfficiencyFactor: money.ParseDecimal(c.Expense.EfficiencyFactor),
		},
		Lark: container.LarkConfig{
			Enabled:        c.Lark.Enabled,
			AppID:          c.Lark.AppID,
			AppSecret:      c.Lark.AppSecret,
			ApproverOpenID: c.Lark.ApproverOpenID,
			ReceiveIDType:  c.Lark.ReceiveIDType,
			APITimeout:     c.Lark.APITimeout,
		},
		Export: container.ExportConfig{
			CompanyName:  c.Export.CompanyName,
			SummarySheet: c.Export.SummarySheet,
		},
	}
}
