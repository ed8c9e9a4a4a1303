// Package bestfit recommends which weekday a new stop should be routed on,
// by geographic proximity to already-scheduled stops.
//
// The analyzer is a pure function over an in-memory snapshot of stops: it
// performs no persistence or network calls, which keeps it independent of
// the geocoder's availability.
package bestfit

import (
	"sort"

	"fieldservice-backend/internal/geo"
)

// DefaultRadiusMiles bounds what counts as "nearby" an existing stop.
const DefaultRadiusMiles = 5.0

// unreachable sorts weekdays with no nearby stops after every weekday that
// has at least one.
const unreachable = 1e12

var weekdayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// Stop is one already-routed service location.
type Stop struct {
	Weekday    int            `json:"weekday"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

// DayScore is the proximity score of one weekday.
type DayScore struct {
	Weekday         int              `json:"weekday"`
	Name            string           `json:"name"`
	NearbyCount     int              `json:"nearbyCount"`
	AverageDistance float64          `json:"averageDistance"` // miles, over nearby stops only
	NearbyStops     []geo.Coordinate `json:"nearbyStops"`
}

// Analyzer scores weekdays for a candidate coordinate.
type Analyzer struct {
	radiusMiles float64
}

// New returns an Analyzer using the given nearby radius in miles; values
// <= 0 fall back to DefaultRadiusMiles.
func New(radiusMiles float64) *Analyzer {
	if radiusMiles <= 0 {
		radiusMiles = DefaultRadiusMiles
	}
	return &Analyzer{radiusMiles: radiusMiles}
}

// Rank scores all seven weekdays for the candidate coordinate, ordered most
// nearby first: a weekday with any nearby stops always outranks one with
// none, and among those, lower mean distance wins. Weekdays with no nearby
// stops follow in natural weekday order.
func (a *Analyzer) Rank(candidate geo.Coordinate, stops []Stop) []DayScore {
	scores := make([]DayScore, 7)
	for d := 0; d < 7; d++ {
		scores[d] = DayScore{Weekday: d, Name: weekdayNames[d], AverageDistance: unreachable}
	}

	sums := make([]float64, 7)
	for _, stop := range stops {
		if stop.Weekday < 0 || stop.Weekday > 6 {
			continue
		}
		dist := geo.DistanceMiles(candidate, stop.Coordinate)
		if dist > a.radiusMiles {
			continue
		}
		s := &scores[stop.Weekday]
		s.NearbyCount++
		s.NearbyStops = append(s.NearbyStops, stop.Coordinate)
		sums[stop.Weekday] += dist
	}

	for d := 0; d < 7; d++ {
		if scores[d].NearbyCount > 0 {
			scores[d].AverageDistance = sums[d] / float64(scores[d].NearbyCount)
		}
	}

	// Stable sort keeps zero-nearby weekdays in natural order.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].AverageDistance < scores[j].AverageDistance
	})
	return scores
}

// Recommend returns the weekdays of the top n ranked days that have at least
// one nearby stop, as a byDay set for a new rule. Fewer than n may be
// returned; distant days are never padded in.
func (a *Analyzer) Recommend(candidate geo.Coordinate, stops []Stop, n int) []int {
	var days []int
	for _, score := range a.Rank(candidate, stops) {
		if score.NearbyCount == 0 || len(days) >= n {
			break
		}
		days = append(days, score.Weekday)
	}
	return days
}
