package heuristic

import (
	"strings"
	"testing"

	"github.com/RaparthiSrikar/CityAssist/internal/model"
)

func TestPersonalization_ElderlyModerateAQI(t *testing.T) {
	// age 70 lowers the threshold by 15: 150-15=135, AQI 160 crosses it
	got := Personalization(70, 1.0, 0, 160)

	if !got.SendAlert {
		t.Fatalf("expected alert for AQI 160 vs threshold 135")
	}
	if got.Severity != "moderate" {
		t.Fatalf("severity = %q, want moderate", got.Severity)
	}
	if !strings.Contains(got.Reason, "AQI 160 vs threshold 135") {
		t.Fatalf("reason missing comparison: %q", got.Reason)
	}
	if !strings.Contains(got.Reason, "age >=65") {
		t.Fatalf("reason missing age factor: %q", got.Reason)
	}
}

func TestPersonalization_ThresholdFloorAndChronic(t *testing.T) {
	// 150 - round(60*0.5) - 5*20 = -10, floored at 50
	got := Personalization(100, 1.0, 5, 55)
	if !got.SendAlert {
		t.Fatalf("expected alert: AQI 55 >= floored threshold 50")
	}
	if !strings.Contains(got.Reason, "threshold 50") {
		t.Fatalf("reason should show floored threshold: %q", got.Reason)
	}
	if !strings.Contains(got.Reason, "5 chronic conditions") {
		t.Fatalf("reason missing chronic factor: %q", got.Reason)
	}
	if got.Severity != "low" {
		t.Fatalf("severity = %q, want low", got.Severity)
	}
}

func TestPersonalization_SensitivityOverride(t *testing.T) {
	// AQI 120 below default threshold 150 but sensitivity > 1.5 triggers
	got := Personalization(40, 2.0, 0, 120)
	if !got.SendAlert {
		t.Fatalf("expected sensitivity override to alert")
	}

	calm := Personalization(40, 1.0, 0, 120)
	if calm.SendAlert {
		t.Fatalf("AQI 120 below threshold 150 must not alert at default sensitivity")
	}
}

func TestSeverityBuckets(t *testing.T) {
	cases := []struct {
		aqi  float64
		want string
	}{
		{250, "high"},
		{200, "high"},
		{150, "moderate"},
		{100, "moderate"},
		{99, "low"},
		{0, "low"},
	}
	for _, c := range cases {
		if got := Severity(c.aqi); got != c.want {
			t.Fatalf("Severity(%v) = %q, want %q", c.aqi, got, c.want)
		}
	}
}

func TestRoute_HeavyTrafficAltRoute(t *testing.T) {
	got := Route(0.9, nil, model.RoutePrefs{})

	if len(got.RecommendedRoute) != 1 || got.RecommendedRoute[0] != "alt_route_1" {
		t.Fatalf("route = %v, want [alt_route_1]", got.RecommendedRoute)
	}
	if got.ETAMinutes != 64 {
		t.Fatalf("eta = %d, want 64 (10 + 54)", got.ETAMinutes)
	}
	if !strings.Contains(got.Reason, "traffic level 0.9") {
		t.Fatalf("reason missing traffic level: %q", got.Reason)
	}
}

func TestRoute_PreferencePrecedence(t *testing.T) {
	// avoid_highways beats heavy traffic and bus lanes
	got := Route(0.9, nil, model.RoutePrefs{AvoidHighways: true, PreferBusLanes: true})
	if got.RecommendedRoute[0] != "local_roads_via_X" {
		t.Fatalf("route = %v, want local_roads_via_X", got.RecommendedRoute)
	}
	if !strings.Contains(got.Reason, "avoid highways") {
		t.Fatalf("reason missing preference: %q", got.Reason)
	}

	got = Route(0.2, nil, model.RoutePrefs{PreferBusLanes: true})
	if got.RecommendedRoute[0] != "bus_lane_friendly_route" {
		t.Fatalf("route = %v, want bus_lane_friendly_route", got.RecommendedRoute)
	}

	got = Route(0.2, nil, model.RoutePrefs{})
	if got.RecommendedRoute[0] != "main_street" {
		t.Fatalf("route = %v, want main_street", got.RecommendedRoute)
	}
}

func TestRoute_IncidentsPenalizeAndExplain(t *testing.T) {
	incidents := []model.Incident{
		{Type: "crash", Location: "5th Ave"},
		{},
	}
	got := Route(0.5, incidents, model.RoutePrefs{})

	// 10 + round(30) + 2*10
	if got.ETAMinutes != 60 {
		t.Fatalf("eta = %d, want 60", got.ETAMinutes)
	}
	if !strings.Contains(got.Reason, "crash at 5th Ave") {
		t.Fatalf("reason missing incident detail: %q", got.Reason)
	}
	if !strings.Contains(got.Reason, "incident at unknown") {
		t.Fatalf("reason missing defaulted incident detail: %q", got.Reason)
	}
}

func TestOutage_AdditiveTerms(t *testing.T) {
	got := Outage(250, 0.8, 0.5)

	// 30 + 2*10 + round(48) + round(15)
	if got.ETAMinutes != 113 {
		t.Fatalf("eta = %d, want 113", got.ETAMinutes)
	}
	if got.Confidence != 0.5 {
		t.Fatalf("confidence = %v, want 0.5 when weather > 0.7", got.Confidence)
	}
	if got.Reason != "Base 30 + customers factor 20 + weather 48 + load 15" {
		t.Fatalf("reason = %q", got.Reason)
	}
}

func TestOutage_CalmWeatherConfidence(t *testing.T) {
	got := Outage(50, 0.0, 0.5)
	// 30 + 0 + 0 + 15
	if got.ETAMinutes != 45 {
		t.Fatalf("eta = %d, want 45", got.ETAMinutes)
	}
	if got.Confidence != 0.7 {
		t.Fatalf("confidence = %v, want 0.7", got.Confidence)
	}
}

func TestImageTriage_Rules(t *testing.T) {
	cases := []struct {
		name         string
		mean         float64
		w, h         int
		wantLabel    string
		wantPriority string
	}{
		{"dark pothole", 50, 100, 90, "pothole", "high"},
		{"bright garbage", 200, 100, 100, "garbage", "low"},
		{"tall tree fall", 100, 100, 130, "tree_fall", "high"},
		{"midtone other", 120, 100, 100, "other", "normal"},
		{"bright beats tall", 170, 100, 200, "garbage", "low"},
	}
	for _, c := range cases {
		got := ImageTriage(c.mean, c.w, c.h)
		if got.Label != c.wantLabel || got.Priority != c.wantPriority {
			t.Fatalf("%s: got (%s,%s), want (%s,%s)", c.name, got.Label, got.Priority, c.wantLabel, c.wantPriority)
		}
	}
}

func TestImageTriage_ReasonReportsStats(t *testing.T) {
	got := ImageTriage(50, 100, 90)
	if got.Reason != "Heuristic: mean_brightness=50.0, size=100x90" {
		t.Fatalf("reason = %q", got.Reason)
	}
}

func TestHeuristics_Deterministic(t *testing.T) {
	incidents := []model.Incident{{Type: "flood", Location: "underpass"}}
	for i := 0; i < 5; i++ {
		if Personalization(70, 1.0, 1, 160) != Personalization(70, 1.0, 1, 160) {
			t.Fatalf("personalization is not deterministic")
		}
		if Outage(250, 0.8, 0.5) != Outage(250, 0.8, 0.5) {
			t.Fatalf("outage is not deterministic")
		}
		a, b := Route(0.5, incidents, model.RoutePrefs{}), Route(0.5, incidents, model.RoutePrefs{})
		if a.Reason != b.Reason || a.ETAMinutes != b.ETAMinutes || a.RecommendedRoute[0] != b.RecommendedRoute[0] {
			t.Fatalf("route is not deterministic")
		}
		if ImageTriage(50, 100, 90) != ImageTriage(50, 100, 90) {
			t.Fatalf("image triage is not deterministic")
		}
	}
}
