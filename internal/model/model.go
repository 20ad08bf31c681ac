// Package model defines the request and response shapes for the four
// triage domains served by the gateway.
package model

import "time"

// Domain identifies one of the four triage question kinds. Its string
// form doubles as the cache key namespace prefix.
type Domain string

const (
	DomainPersonalization Domain = "personalization"
	DomainRoute           Domain = "route"
	DomainOutage          Domain = "outage"
	DomainImage           Domain = "image"
)

// Domains lists every domain in registration order.
var Domains = []Domain{DomainPersonalization, DomainRoute, DomainOutage, DomainImage}

type PersonalizationRequest struct {
	UserID            string   `json:"user_id,omitempty"`
	Age               *int     `json:"age,omitempty" validate:"omitempty,gte=0,lte=150"`
	Sensitivity       *float64 `json:"sensitivity,omitempty" validate:"omitempty,gte=0"`
	ChronicConditions []string `json:"chronic_conditions,omitempty"`
	AQI               float64  `json:"aqi" validate:"gte=0"`
}

type PersonalizationResponse struct {
	SendAlert bool   `json:"send_alert"`
	Severity  string `json:"severity"`
	Reason    string `json:"reason"`
}

type Incident struct {
	Type     string `json:"type,omitempty"`
	Location string `json:"location,omitempty"`
}

type RoutePrefs struct {
	AvoidHighways  bool `json:"avoid_highways,omitempty"`
	PreferBusLanes bool `json:"prefer_bus_lanes,omitempty"`
}

type RouteRequest struct {
	Origin       string     `json:"origin" validate:"required"`
	Destination  string     `json:"destination" validate:"required"`
	UserPrefs    RoutePrefs `json:"user_prefs,omitempty"`
	TrafficLevel *float64   `json:"traffic_level,omitempty" validate:"omitempty,gte=0,lte=1"`
	Incidents    []Incident `json:"incidents,omitempty"`
}

type RouteResponse struct {
	RecommendedRoute []string `json:"recommended_route"`
	ETAMinutes       int      `json:"eta_minutes"`
	Reason           string   `json:"reason"`
}

type OutageRequest struct {
	OutageStart       *time.Time `json:"outage_start,omitempty"`
	AffectedCustomers int        `json:"affected_customers" validate:"gte=0"`
	WeatherSeverity   *float64   `json:"weather_severity,omitempty" validate:"omitempty,gte=0,lte=1"`
	GridLoad          *float64   `json:"grid_load,omitempty" validate:"omitempty,gte=0,lte=1"`
}

type OutageResponse struct {
	ETAMinutes int     `json:"eta_minutes"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

type ImageTriageResponse struct {
	Label    string `json:"label"`
	Priority string `json:"priority"`
	Reason   string `json:"reason"`
}

// Defaults for optional fields, shared by handlers and heuristics.
const (
	DefaultAge          = 40
	DefaultSensitivity  = 1.0
	DefaultTrafficLevel = 0.5
	DefaultWeather      = 0.0
	DefaultGridLoad     = 0.5
)
