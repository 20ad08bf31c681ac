package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/RaparthiSrikar/CityAssist/internal/model"
)

// handleHealth reports liveness plus the per-domain predictor presence
// map. Presence is a capability fact, not a readiness gate: the gateway
// serves heuristics whether or not models are loaded.
func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	loaded := a.reg.Loaded()
	models := make(map[string]bool, len(loaded))
	for d, ok := range loaded {
		models[string(d)] = ok
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":        "ok",
		"models_loaded": models,
	})
}

// handleModels reports the statically declared capability descriptor per
// domain, or null where no predictor is loaded.
func (a *API) handleModels(w http.ResponseWriter, _ *http.Request) {
	descriptors := a.reg.Descriptors()
	models := make(map[string]any, len(model.Domains))
	for _, d := range model.Domains {
		if desc, ok := descriptors[d]; ok {
			models[string(d)] = desc
		} else {
			models[string(d)] = nil
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"models": models})
}
