package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldservice-backend/internal/bestfit"
	"fieldservice-backend/internal/geocode"
)

// recommendationResponse is the ranked weekday list for a candidate address.
// Available is false when the address could not be geocoded; callers fall
// back to manual day selection in that case.
type recommendationResponse struct {
	Available   bool              `json:"available"`
	Days        []bestfit.DayScore `json:"days,omitempty"`
	Recommended []int             `json:"recommended,omitempty"`
}

// GetRecommendations handles GET /api/recommendations?address=... and
// returns weekdays ranked by proximity to already-routed stops. A geocoding
// failure degrades to an empty, available=false result rather than an error.
func (h *Handler) GetRecommendations(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}

	candidate, err := h.geocoder.Geocode(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, geocode.ErrUnavailable) {
			c.JSON(http.StatusOK, recommendationResponse{Available: false})
			return
		}
		abortWithError(c, err)
		return
	}

	stops, err := h.store.ListStops(c.Request.Context())
	if err != nil {
		log.Printf("Error loading stop snapshot: %v", err)
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, recommendationResponse{
		Available:   true,
		Days:        h.analyzer.Rank(candidate, stops),
		Recommended: h.analyzer.Recommend(candidate, stops, h.recommendDays),
	})
}
