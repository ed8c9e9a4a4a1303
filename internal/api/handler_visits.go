package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fieldservice-backend/internal/model"
	"fieldservice-backend/internal/schedule"
	"fieldservice-backend/internal/store"
	"fieldservice-backend/internal/visit"
)

type visitResponse struct {
	model.Visit
	DateString string `json:"date"`
}

func newVisitResponse(v model.Visit) visitResponse {
	return visitResponse{Visit: v, DateString: v.Date.Format(schedule.DateLayout)}
}

// GetVisits handles GET /api/visits with optional customer_id, rule_id,
// status, from and to filters.
func (h *Handler) GetVisits(c *gin.Context) {
	var filter store.VisitFilter

	if raw := c.Query("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer_id"})
			return
		}
		filter.CustomerID = &id
	}
	if raw := c.Query("rule_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule_id"})
			return
		}
		filter.RuleID = &id
	}
	filter.Status = model.VisitStatus(c.Query("status"))
	if raw := c.Query("from"); raw != "" {
		t, err := schedule.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be a YYYY-MM-DD date"})
			return
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := schedule.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be a YYYY-MM-DD date"})
			return
		}
		filter.To = &t
	}

	visits, err := h.store.ListVisits(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]visitResponse, 0, len(visits))
	for _, v := range visits {
		out = append(out, newVisitResponse(v))
	}
	c.JSON(http.StatusOK, out)
}

type skipRequest struct {
	By     string `json:"by" binding:"required"`
	Reason string `json:"reason" binding:"required"`
	Notes  string `json:"notes"`
}

// StartVisit handles POST /api/visits/:id/start.
func (h *Handler) StartVisit(c *gin.Context) {
	h.transition(c, func(v *model.Visit) error {
		return visit.Start(v)
	})
}

// CompleteVisit handles POST /api/visits/:id/complete.
func (h *Handler) CompleteVisit(c *gin.Context) {
	h.transition(c, func(v *model.Visit) error {
		return visit.Complete(v, time.Now().UTC())
	})
}

// SkipVisit handles POST /api/visits/:id/skip. The visit stays billable;
// whether a skip is charged is a billing decision, not a scheduling one.
func (h *Handler) SkipVisit(c *gin.Context) {
	var req skipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.transition(c, func(v *model.Visit) error {
		return visit.Skip(v, time.Now().UTC(), visit.SkipInfo{
			By:     req.By,
			Reason: req.Reason,
			Notes:  req.Notes,
		})
	})
}

// UnskipVisit handles POST /api/visits/:id/unskip.
func (h *Handler) UnskipVisit(c *gin.Context) {
	h.transition(c, func(v *model.Visit) error {
		return visit.Unskip(v)
	})
}

// transition loads the visit, applies the lifecycle mutation, and persists
// it. On a state conflict the stored visit is left unchanged and the request
// fails with 409.
func (h *Handler) transition(c *gin.Context, apply func(*model.Visit) error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit ID"})
		return
	}

	v, err := h.store.GetVisit(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := apply(&v); err != nil {
		abortWithError(c, err)
		return
	}

	if err := h.store.SaveVisit(c.Request.Context(), &v); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newVisitResponse(v))
}
