package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/money"
	"github.com/garyjia/expense-workflow/internal/domain/policy"
)

// GetFuelSettings handles GET /api/periods/:period/fuel-settings
func (h *Handlers) GetFuelSettings(c *gin.Context) {
	period, valid := pathPeriod(c)
	if !valid {
		return
	}
	settings, err := h.settings.GetFuelSettings(c.Request.Context(), period)
	if err != nil {
		h.writeError(c, "get fuel settings", err)
		return
	}
	ok(c, settings)
}

// UpdateFuelSettings handles PUT /api/periods/:period/fuel-settings
func (h *Handlers) UpdateFuelSettings(c *gin.Context) {
	period, valid := pathPeriod(c)
	if !valid {
		return
	}

	var settings entity.FuelSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, "invalid fuel settings body")
		return
	}
	settings.Period = period

	view := viewContext(c, policy.ClaimSelection{Period: period})
	if err := h.settings.UpdateFuelSettings(c.Request.Context(), view, &settings); err != nil {
		h.writeError(c, "update fuel settings", err)
		return
	}
	ok(c, settings)
}

// ListCorporateCards handles GET /api/cards
func (h *Handlers) ListCorporateCards(c *gin.Context) {
	cards, err := h.settings.ListCorporateCards(c.Request.Context())
	if err != nil {
		h.writeError(c, "list corporate cards", err)
		return
	}
	ok(c, cards)
}

// SaveCorporateCard handles PUT /api/cards/:cardID
func (h *Handlers) SaveCorporateCard(c *gin.Context) {
	var card entity.CorporateCard
	if err := c.ShouldBindJSON(&card); err != nil {
		badRequest(c, "invalid card body")
		return
	}
	card.ID = c.Param("cardID")

	if err := h.settings.SaveCorporateCard(c.Request.Context(), viewContext(c, policy.ClaimSelection{}), card); err != nil {
		h.writeError(c, "save corporate card", err)
		return
	}
	ok(c, card)
}

// QuoteFuel handles GET /api/periods/:period/fuel-quote
func (h *Handlers) QuoteFuel(c *gin.Context) {
	period, valid := pathPeriod(c)
	if !valid {
		return
	}

	distance, err := queryDecimal(c, "distance")
	if err != nil {
		badRequest(c, "invalid distance")
		return
	}
	vehicleEfficiency, err := queryDecimal(c, "vehicle_efficiency")
	if err != nil {
		badRequest(c, "invalid vehicle_efficiency")
		return
	}
	fuelType := strings.TrimSpace(c.DefaultQuery("fuel_type", entity.FuelGasoline))
	toll := money.Parse(c.Query("toll_fee"))

	quote, err := h.settings.QuoteFuel(c.Request.Context(), period, fuelType, distance, vehicleEfficiency, toll)
	if err != nil {
		h.writeError(c, "quote fuel", err)
		return
	}
	ok(c, quote)
}

// queryDecimal parses an optional decimal query parameter; absent means zero
func queryDecimal(c *gin.Context, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
}
