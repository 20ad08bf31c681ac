package heuristic

import (
	"fmt"
	"math"

	"github.com/RaparthiSrikar/CityAssist/internal/model"
)

// Outage estimates restoration time additively: a 30 minute base, 10
// minutes per full hundred affected customers, plus weather and grid-load
// terms. Confidence drops when weather drives the estimate.
func Outage(affectedCustomers int, weatherSeverity, gridLoad float64) model.OutageResponse {
	const base = 30
	customersFactor := affectedCustomers / 100
	weatherFactor := int(math.Round(weatherSeverity * 60))
	loadFactor := int(math.Round(gridLoad * 30))

	eta := base + customersFactor*10 + weatherFactor + loadFactor

	confidence := 0.7
	if weatherSeverity > 0.7 {
		confidence = 0.5
	}

	return model.OutageResponse{
		ETAMinutes: eta,
		Confidence: confidence,
		Reason: fmt.Sprintf("Base %d + customers factor %d + weather %d + load %d",
			base, customersFactor*10, weatherFactor, loadFactor),
	}
}
