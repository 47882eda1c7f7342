package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-workflow/internal/application/service"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/policy"
	"github.com/garyjia/expense-workflow/pkg/utils"
)

// RowRequest addresses one row of an edited claim
type RowRequest struct {
	Claim     entity.ExpenseClaim `json:"claim"`
	Index     int                 `json:"index"`
	Confirmed bool                `json:"confirmed"`
}

// ImportRequest copies rows from another period into an edited claim
type ImportRequest struct {
	Claim entity.ExpenseClaim `json:"claim"`
	// SourcePeriod defaults to the month before the claim when omitted
	SourcePeriod entity.Period `json:"source_period"`
}

// TransitionRequest carries the status the caller last saw
type TransitionRequest struct {
	ExpectedStatus entity.Status `json:"expected_status"`
	Reason         string        `json:"reason"`
}

func draftDecision(c *gin.Context) (service.DraftDecision, bool) {
	switch d := service.DraftDecision(c.Query("draft")); d {
	case service.DraftAsk, service.DraftApply, service.DraftDiscard:
		return d, true
	default:
		badRequest(c, "draft must be apply or discard")
		return "", false
	}
}

// claimSelection selects the claim a request body refers to
func claimSelection(claim *entity.ExpenseClaim) policy.ClaimSelection {
	return policy.ClaimSelection{ClaimID: claim.ID, Period: claim.Period}
}

func (h *Handlers) bindClaim(c *gin.Context) (*entity.ExpenseClaim, bool) {
	var claim entity.ExpenseClaim
	if err := c.ShouldBindJSON(&claim); err != nil {
		badRequest(c, "invalid claim body")
		return nil, false
	}
	if claim.Period.IsZero() {
		badRequest(c, "claim period is required")
		return nil, false
	}
	return &claim, true
}

// LoadClaim handles GET /api/claims?period=YYYY-MM
func (h *Handlers) LoadClaim(c *gin.Context) {
	period, err := entity.ParsePeriod(c.Query("period"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	decision, valid := draftDecision(c)
	if !valid {
		return
	}

	view := viewContext(c, policy.ClaimSelection{Period: period})
	result, err := h.claims.Load(c.Request.Context(), view, decision)
	if err != nil {
		h.writeError(c, "load claim", err)
		return
	}
	ok(c, result)
}

// LoadClaimByID handles GET /api/claims/:id
func (h *Handlers) LoadClaimByID(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	decision, valid := draftDecision(c)
	if !valid {
		return
	}

	view := viewContext(c, policy.ClaimSelection{ClaimID: id})
	result, err := h.claims.Load(c.Request.Context(), view, decision)
	if err != nil {
		h.writeError(c, "load claim", err)
		return
	}
	ok(c, result)
}

// QuoteClaim handles POST /api/claims/quote
func (h *Handlers) QuoteClaim(c *gin.Context) {
	h.withClaim(c, "quote claim", h.claims.Quote)
}

// SaveClaim handles POST /api/claims/save
func (h *Handlers) SaveClaim(c *gin.Context) {
	h.withClaim(c, "save claim", h.claims.Save)
}

// SubmitClaim handles POST /api/claims/submit
func (h *Handlers) SubmitClaim(c *gin.Context) {
	h.withClaim(c, "submit claim", h.claims.Submit)
}

type claimEdit func(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim) (*service.ClaimView, error)

func (h *Handlers) withClaim(c *gin.Context, op string, fn claimEdit) {
	claim, valid := h.bindClaim(c)
	if !valid {
		return
	}
	result, err := fn(c.Request.Context(), viewContext(c, claimSelection(claim)), claim)
	if err != nil {
		h.writeError(c, op, err)
		return
	}
	ok(c, result)
}

// SaveDraft handles PUT /api/claims/draft
func (h *Handlers) SaveDraft(c *gin.Context) {
	claim, valid := h.bindClaim(c)
	if !valid {
		return
	}
	if err := h.claims.SaveDraft(c.Request.Context(), viewContext(c, claimSelection(claim)), claim); err != nil {
		h.writeError(c, "save draft", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// DeleteRow handles POST /api/claims/rows/delete
func (h *Handlers) DeleteRow(c *gin.Context) {
	var req RowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid row request")
		return
	}
	result, err := h.claims.DeleteRow(c.Request.Context(), viewContext(c, claimSelection(&req.Claim)), &req.Claim, req.Index)
	if err != nil {
		h.writeError(c, "delete row", err)
		return
	}
	ok(c, result)
}

// ConfirmRow handles POST /api/claims/rows/confirm
func (h *Handlers) ConfirmRow(c *gin.Context) {
	var req RowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid row request")
		return
	}
	result, err := h.claims.ConfirmRow(c.Request.Context(), viewContext(c, claimSelection(&req.Claim)), &req.Claim, req.Index, req.Confirmed)
	if err != nil {
		h.writeError(c, "confirm row", err)
		return
	}
	ok(c, result)
}

// ImportRows handles POST /api/claims/rows/import
func (h *Handlers) ImportRows(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid import request")
		return
	}
	result, err := h.claims.ImportRows(c.Request.Context(), viewContext(c, claimSelection(&req.Claim)), &req.Claim, req.SourcePeriod)
	if err != nil {
		h.writeError(c, "import rows", err)
		return
	}
	ok(c, result)
}

// transition runs a status change addressed by the :id path parameter
func (h *Handlers) transition(c *gin.Context, op string, fn func(view policy.ViewContext, id int64, req TransitionRequest) (*service.ClaimView, error)) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	var req TransitionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid transition request")
			return
		}
	}
	req.Reason = utils.SanitizeText(req.Reason)

	result, err := fn(viewContext(c, policy.ClaimSelection{ClaimID: id}), id, req)
	if err != nil {
		h.writeError(c, op, err)
		return
	}
	ok(c, result)
}

// ApproveClaim handles POST /api/claims/:id/approve
func (h *Handlers) ApproveClaim(c *gin.Context) {
	h.transition(c, "approve claim", func(view policy.ViewContext, id int64, req TransitionRequest) (*service.ClaimView, error) {
		return h.claims.Approve(c.Request.Context(), view, id, req.ExpectedStatus)
	})
}

// RejectClaim handles POST /api/claims/:id/reject
func (h *Handlers) RejectClaim(c *gin.Context) {
	h.transition(c, "reject claim", func(view policy.ViewContext, id int64, req TransitionRequest) (*service.ClaimView, error) {
		return h.claims.Reject(c.Request.Context(), view, id, req.ExpectedStatus, req.Reason)
	})
}

// CompleteClaim handles POST /api/claims/:id/complete
func (h *Handlers) CompleteClaim(c *gin.Context) {
	h.transition(c, "complete claim", func(view policy.ViewContext, id int64, req TransitionRequest) (*service.ClaimView, error) {
		return h.claims.Complete(c.Request.Context(), view, id, req.ExpectedStatus)
	})
}

// ReopenClaim handles POST /api/claims/:id/reopen
func (h *Handlers) ReopenClaim(c *gin.Context) {
	h.transition(c, "reopen claim", func(view policy.ViewContext, id int64, req TransitionRequest) (*service.ClaimView, error) {
		return h.claims.Reopen(c.Request.Context(), view, id, req.ExpectedStatus)
	})
}

// MarkNotSubmitted handles POST /api/claims/:id/not-submitted
func (h *Handlers) MarkNotSubmitted(c *gin.Context) {
	h.transition(c, "mark not submitted", func(view policy.ViewContext, id int64, req TransitionRequest) (*service.ClaimView, error) {
		return h.claims.MarkNotSubmitted(c.Request.Context(), view, id, req.ExpectedStatus)
	})
}

// CheckClaim handles POST /api/claims/:id/check
func (h *Handlers) CheckClaim(c *gin.Context) {
	h.transition(c, "check claim", func(view policy.ViewContext, id int64, _ TransitionRequest) (*service.ClaimView, error) {
		return h.claims.Check(c.Request.Context(), view, id)
	})
}

// ClaimHistory handles GET /api/claims/:id/history
func (h *Handlers) ClaimHistory(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	entries, err := h.claims.History(c.Request.Context(), viewContext(c, policy.ClaimSelection{ClaimID: id}), id)
	if err != nil {
		h.writeError(c, "claim history", err)
		return
	}
	ok(c, entries)
}

// ListPeriod handles GET /api/periods/:period/claims
func (h *Handlers) ListPeriod(c *gin.Context) {
	period, valid := pathPeriod(c)
	if !valid {
		return
	}
	summaries, err := h.claims.ListPeriod(c.Request.Context(), viewContext(c, policy.ClaimSelection{Period: period}), period)
	if err != nil {
		h.writeError(c, "list period", err)
		return
	}
	ok(c, summaries)
}

// ExportClaim handles GET /api/claims/:id/export.xlsx
func (h *Handlers) ExportClaim(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	var buf bytes.Buffer
	view := viewContext(c, policy.ClaimSelection{ClaimID: id})
	if err := h.export.ExportClaim(c.Request.Context(), view, id, &buf); err != nil {
		h.writeError(c, "export claim", err)
		return
	}
	h.attachment(c, fmt.Sprintf("claim-%d", id), &buf)
}

// ExportPeriod handles GET /api/periods/:period/export.xlsx
func (h *Handlers) ExportPeriod(c *gin.Context) {
	period, valid := pathPeriod(c)
	if !valid {
		return
	}

	var buf bytes.Buffer
	view := viewContext(c, policy.ClaimSelection{Period: period})
	if err := h.export.ExportPeriod(c.Request.Context(), view, period, &buf); err != nil {
		h.writeError(c, "export period", err)
		return
	}
	h.attachment(c, "claims-"+period.String(), &buf)
}

func (h *Handlers) attachment(c *gin.Context, name string, buf *bytes.Buffer) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, name, h.export.Extension()))
	c.Data(http.StatusOK, h.export.ContentType(), buf.Bytes())
}
