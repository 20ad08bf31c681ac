// Package heuristic implements the deterministic fallback rules used
// when no predictor is loaded or inference fails. Every function is pure:
// identical inputs always produce identical responses, including the
// reason text.
package heuristic

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RaparthiSrikar/CityAssist/internal/model"
)

// Severity buckets an AQI reading. Shared with the model path, which
// derives severity from the raw AQI the same way.
func Severity(aqi float64) string {
	switch {
	case aqi >= 200:
		return "high"
	case aqi >= 100:
		return "moderate"
	default:
		return "low"
	}
}

// Personalization decides whether to send an air-quality alert. The
// threshold starts at 150 and drops for older users and chronic
// conditions, floored at 50.
func Personalization(age int, sensitivity float64, chronicCount int, aqi float64) model.PersonalizationResponse {
	threshold := 150 - int(math.Round(float64(age-40)*0.5)) - chronicCount*20
	if threshold < 50 {
		threshold = 50
	}

	sendAlert := aqi >= float64(threshold) || (aqi >= 100 && sensitivity > 1.5)

	parts := []string{
		fmt.Sprintf("AQI %s vs threshold %d", strconv.FormatFloat(aqi, 'g', -1, 64), threshold),
	}
	if age >= 65 {
		parts = append(parts, "age >=65 -> more sensitive")
	}
	if chronicCount > 0 {
		parts = append(parts, fmt.Sprintf("%d chronic conditions -> more sensitive", chronicCount))
	}

	return model.PersonalizationResponse{
		SendAlert: sendAlert,
		Severity:  Severity(aqi),
		Reason:    strings.Join(parts, "; "),
	}
}
