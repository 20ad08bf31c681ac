package heuristic

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RaparthiSrikar/CityAssist/internal/model"
)

// Route picks a route by preference precedence and estimates the ETA as
// a 10 minute base plus traffic and per-incident penalties.
func Route(trafficLevel float64, incidents []model.Incident, prefs model.RoutePrefs) model.RouteResponse {
	eta := 10 + int(math.Round(trafficLevel*60)) + 10*len(incidents)

	// first match wins
	route := "main_street"
	switch {
	case prefs.AvoidHighways:
		route = "local_roads_via_X"
	case trafficLevel > 0.8:
		route = "alt_route_1"
	case prefs.PreferBusLanes:
		route = "bus_lane_friendly_route"
	}

	parts := []string{
		"traffic level " + strconv.FormatFloat(trafficLevel, 'g', -1, 64),
	}
	if len(incidents) > 0 {
		details := make([]string, 0, len(incidents))
		for _, inc := range incidents {
			typ := inc.Type
			if typ == "" {
				typ = "incident"
			}
			loc := inc.Location
			if loc == "" {
				loc = "unknown"
			}
			details = append(details, fmt.Sprintf("%s at %s", typ, loc))
		}
		parts = append(parts, "incidents: "+strings.Join(details, ", "))
	}
	if prefs.AvoidHighways {
		parts = append(parts, "user prefers to avoid highways")
	}
	if prefs.PreferBusLanes {
		parts = append(parts, "user prefers bus lanes")
	}

	return model.RouteResponse{
		RecommendedRoute: []string{route},
		ETAMinutes:       eta,
		Reason:           strings.Join(parts, "; "),
	}
}
