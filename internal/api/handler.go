package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fieldservice-backend/internal/bestfit"
	"fieldservice-backend/internal/geocode"
	"fieldservice-backend/internal/schedule"
	"fieldservice-backend/internal/scheduler"
	"fieldservice-backend/internal/store"
	"fieldservice-backend/internal/visit"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store         store.Store
	scheduler     *scheduler.Service
	geocoder      geocode.Geocoder
	analyzer      *bestfit.Analyzer
	webpush       *webpush.Options
	recommendDays int
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, sched *scheduler.Service, g geocode.Geocoder, analyzer *bestfit.Analyzer, webpushOptions *webpush.Options, recommendDays int) *Handler {
	return &Handler{
		store:         s,
		scheduler:     sched,
		geocoder:      g,
		analyzer:      analyzer,
		webpush:       webpushOptions,
		recommendDays: recommendDays,
	}
}

// abortWithError maps domain errors onto HTTP statuses and writes the
// standard error body.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, schedule.ErrInvalidRule):
		status = http.StatusBadRequest
	case errors.Is(err, schedule.ErrRuleNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, visit.ErrInvalidTransition):
		status = http.StatusConflict
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
