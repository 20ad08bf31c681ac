package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(a.log))
	r.Use(RequestLog(a.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))

	r.Get("/health", instrument("/health", a.handleHealth))
	r.Get("/models", instrument("/models", a.handleModels))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/predict", func(r chi.Router) {
		r.Post("/personalization", instrument("/predict/personalization", a.handlePersonalization))
		r.Post("/route", instrument("/predict/route", a.handleRoute))
		r.Post("/outage_eta", instrument("/predict/outage_eta", a.handleOutage))
		r.Post("/image_triage", instrument("/predict/image_triage", a.handleImageTriage))
	})

	return r
}
