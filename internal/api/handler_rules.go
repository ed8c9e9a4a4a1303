package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fieldservice-backend/internal/model"
	"fieldservice-backend/internal/schedule"
)

type ruleRequest struct {
	CustomerID  int64           `json:"customerId" binding:"required"`
	Frequency   model.Frequency `json:"frequency" binding:"required"`
	ByDay       []int           `json:"byDay"`
	DTStart     string          `json:"dtStart" binding:"required"`
	WindowStart string          `json:"windowStart" binding:"required"`
	WindowEnd   string          `json:"windowEnd" binding:"required"`
	Timezone    string          `json:"timezone"`
	Paused      bool            `json:"paused"`
	Notes       string          `json:"notes"`
	Addons      string          `json:"addons"`
}

func (r *ruleRequest) toModel() (*model.RecurrenceRule, error) {
	start, err := schedule.ParseDate(r.DTStart)
	if err != nil {
		return nil, err
	}
	return &model.RecurrenceRule{
		CustomerID:  r.CustomerID,
		Frequency:   r.Frequency,
		ByDay:       model.WeekdaySet(r.ByDay),
		DTStart:     start,
		WindowStart: r.WindowStart,
		WindowEnd:   r.WindowEnd,
		Timezone:    r.Timezone,
		Paused:      r.Paused,
		Notes:       r.Notes,
		Addons:      r.Addons,
	}, nil
}

type ruleResponse struct {
	model.RecurrenceRule
	DTStartDate   string `json:"dtStart"`
	VisitsCreated int64  `json:"visitsCreated,omitempty"`
	VisitsRemoved int64  `json:"visitsRemoved,omitempty"`
}

func newRuleResponse(rule *model.RecurrenceRule, created, removed int64) ruleResponse {
	return ruleResponse{
		RecurrenceRule: *rule,
		DTStartDate:    rule.DTStart.Format(schedule.DateLayout),
		VisitsCreated:  created,
		VisitsRemoved:  removed,
	}
}

// PostRule handles POST /api/rules: create a rule and materialize its visits.
func (h *Handler) PostRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dtStart must be a YYYY-MM-DD date"})
		return
	}

	created, err := h.scheduler.CreateRule(c.Request.Context(), rule)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newRuleResponse(rule, created, 0))
}

// PutRule handles PUT /api/rules/:id: apply a rule edit and reconcile its
// future visits. An optional "cutoff" query date moves the reconciliation
// boundary later than the default of tomorrow.
func (h *Handler) PutRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule ID"})
		return
	}

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.store.GetRule(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	rule, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dtStart must be a YYYY-MM-DD date"})
		return
	}
	rule.ID = existing.ID
	rule.CreatedAt = existing.CreatedAt

	result, err := h.scheduler.RuleChanged(c.Request.Context(), rule, cutoffParam(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRuleResponse(rule, result.Created, result.Removed))
}

// DeleteRule handles DELETE /api/rules/:id.
func (h *Handler) DeleteRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule ID"})
		return
	}

	removed, err := h.scheduler.RuleDeleted(c.Request.Context(), id, cutoffParam(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"visitsRemoved": removed})
}

// PauseRule handles POST /api/rules/:id/pause.
func (h *Handler) PauseRule(c *gin.Context) {
	h.setPaused(c, true)
}

// ResumeRule handles POST /api/rules/:id/resume.
func (h *Handler) ResumeRule(c *gin.Context) {
	h.setPaused(c, false)
}

func (h *Handler) setPaused(c *gin.Context, paused bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule ID"})
		return
	}

	result, err := h.scheduler.SetPaused(c.Request.Context(), id, paused)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paused":        paused,
		"visitsRemoved": result.Removed,
		"visitsCreated": result.Created,
	})
}

// GenerateRuleVisits handles POST /api/rules/:id/generate: idempotently
// re-expand a rule, optionally up to a "horizon" query date.
func (h *Handler) GenerateRuleVisits(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule ID"})
		return
	}

	var horizon time.Time
	if raw := c.Query("horizon"); raw != "" {
		horizon, err = schedule.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "horizon must be a YYYY-MM-DD date"})
			return
		}
	}

	created, err := h.scheduler.GenerateVisits(c.Request.Context(), id, horizon)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"visitsCreated": created})
}

// GetNextVisit handles GET /api/customers/:customer_id/next-visit.
func (h *Handler) GetNextVisit(c *gin.Context) {
	customerID, err := strconv.ParseInt(c.Param("customer_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer ID"})
		return
	}

	next, ok, err := h.scheduler.NextVisit(c.Request.Context(), customerID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"nextVisit": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"nextVisit": next})
}

// cutoffParam reads the optional "cutoff" query date. A missing or malformed
// value falls back to the default boundary (tomorrow).
func cutoffParam(c *gin.Context) *time.Time {
	raw := c.Query("cutoff")
	if raw == "" {
		return nil
	}
	t, err := schedule.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &t
}
