package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-workflow/internal/application/service"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/expense-workflow/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	claims   service.ClaimService
	export   service.ExportService
	settings service.SettingsService
	health   HealthFunc
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, health HealthFunc, logger Logger) *Handlers {
	return &Handlers{
		claims:   services.Claims,
		export:   services.Export,
		settings: services.Settings,
		health:   health,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Version    string      `json:"version"`
	Components interface{} `json:"components,omitempty"`
}

// Version is reported by the health check
var Version = "1.0.0"

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	healthy := true
	var details interface{}
	if h.health != nil {
		healthy, details = h.health(c.Request.Context())
	}

	response := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Version:    Version,
		Components: details,
	}
	status := http.StatusOK
	if !healthy {
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, Response{
		Success: healthy,
		Data:    response,
	})
}

// staleDetails is rendered for a claim whose status moved under the caller
type staleDetails struct {
	ClaimID  int64         `json:"claim_id"`
	Expected entity.Status `json:"expected"`
	Actual   entity.Status `json:"actual"`
}

// conflictDetails carries both versions of a claim awaiting draft confirmation
type conflictDetails struct {
	Server *entity.ExpenseClaim `json:"server"`
	Cached *entity.ExpenseClaim `json:"cached"`
}

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrValidation), errors.Is(err, entity.ErrReasonRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrStaleState), errors.Is(err, entity.ErrConflict),
		errors.Is(err, domainwf.ErrInvalidTransition), errors.Is(err, domainwf.ErrGuardFailed):
		return http.StatusConflict
	case errors.Is(err, entity.ErrForbidden), errors.Is(err, entity.ErrNotEditable), errors.Is(err, entity.ErrClaimLocked):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrClaimNotFound), errors.Is(err, entity.ErrRowNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, entity.ErrInvalidPeriod), errors.Is(err, entity.ErrLastRow), errors.Is(err, domainwf.ErrInvalidState):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with its status and, where the kind carries data, details
func (h *Handlers) writeError(c *gin.Context, op string, err error) {
	status := statusFor(err)

	resp := Response{Success: false, Error: err.Error()}

	var validation *entity.ValidationError
	var stale *entity.StaleStateError
	var conflict *entity.ConflictError
	switch {
	case errors.As(err, &validation):
		resp.Details = validation.Violations
	case errors.As(err, &stale):
		resp.Details = staleDetails{ClaimID: stale.ClaimID, Expected: stale.Expected, Actual: stale.Actual}
	case errors.As(err, &conflict):
		resp.Details = conflictDetails{Server: conflict.Server, Cached: conflict.Cached}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "op", op, "error", err, "request_id", c.GetString(requestIDKey))
		if status == http.StatusInternalServerError {
			resp.Error = "internal error"
		}
	}

	c.JSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// pathID parses the :id path parameter
func pathID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid claim ID")
		return 0, false
	}
	return id, true
}

// pathPeriod parses the :period path parameter
func pathPeriod(c *gin.Context) (entity.Period, bool) {
	period, err := entity.ParsePeriod(c.Param("period"))
	if err != nil {
		badRequest(c, err.Error())
		return entity.Period{}, false
	}
	return period, true
}
