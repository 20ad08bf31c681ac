// Package gateway orchestrates one triage request: fingerprint the
// payload, consult the response cache, attempt the domain predictor, fall
// back to the heuristic, and store the result. Every terminal path writes
// through the key computed up front, so identical requests inside the TTL
// window return byte-identical bodies.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/RaparthiSrikar/CityAssist/internal/cache"
	"github.com/RaparthiSrikar/CityAssist/internal/events"
	"github.com/RaparthiSrikar/CityAssist/internal/fingerprint"
	"github.com/RaparthiSrikar/CityAssist/internal/model"
	"github.com/RaparthiSrikar/CityAssist/internal/observability"
	"github.com/RaparthiSrikar/CityAssist/internal/predictor"
)

// Source names the path that produced a response.
type Source string

const (
	SourceCache     Source = "cache"
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"
)

// Task describes one request to resolve. Payload is the canonical form
// fed to the fingerprinter; Features is the predictor input vector.
// FromModel maps a successful prediction onto a response value and may
// reject it (treated as a predictor failure). Fallback computes the
// deterministic heuristic answer and must not fail.
type Task struct {
	Domain    model.Domain
	Payload   any
	Features  []float64
	FromModel func(predictor.Prediction) (any, error)
	Fallback  func() any
}

// Sink receives decision events. May be nil.
type Sink interface {
	Publish(events.Event)
}

type Gateway struct {
	log   *slog.Logger
	cache *cache.ResponseCache
	reg   *predictor.Registry
	sink  Sink
}

func New(log *slog.Logger, rc *cache.ResponseCache, reg *predictor.Registry, sink Sink) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{log: log, cache: rc, reg: reg, sink: sink}
}

// Resolve runs the state machine and returns the JSON response body and
// the source that produced it. The only errors it returns are internal
// (fingerprinting or encoding); predictor problems never surface here.
func (g *Gateway) Resolve(ctx context.Context, t Task) (json.RawMessage, Source, error) {
	start := time.Now()

	sum, err := fingerprint.Sum(t.Payload)
	if err != nil {
		return nil, "", fmt.Errorf("fingerprint %s payload: %w", t.Domain, err)
	}
	key := fingerprint.Key(t.Domain, sum)

	if body, ok := g.cache.Get(ctx, key); ok {
		observability.IncCacheHit()
		g.finish(ctx, t.Domain, key, SourceCache, start)
		return body, SourceCache, nil
	}
	observability.IncCacheMiss()

	var value any
	source := SourceHeuristic

	res := g.reg.Predict(ctx, t.Domain, t.Features)
	if res.Outcome == predictor.OutcomeValue {
		v, err := t.FromModel(res.Output)
		if err != nil {
			g.log.WarnContext(ctx, "model output rejected, using heuristic",
				"domain", string(t.Domain), "err", err)
		} else {
			value = v
			source = SourceModel
		}
	}
	if value == nil {
		value = t.Fallback()
	}

	body, err := json.Marshal(value)
	if err != nil {
		return nil, "", fmt.Errorf("encode %s response: %w", t.Domain, err)
	}

	g.cache.Set(ctx, key, body)
	g.finish(ctx, t.Domain, key, source, start)
	return body, source, nil
}

func (g *Gateway) finish(ctx context.Context, domain model.Domain, key string, source Source, start time.Time) {
	elapsed := time.Since(start)
	observability.IncResolution(string(domain), string(source))
	if g.sink != nil {
		g.sink.Publish(events.Event{
			Domain:    string(domain),
			Key:       fingerprint.Short(key),
			Source:    string(source),
			ElapsedMS: elapsed.Milliseconds(),
			TS:        time.Now().UTC(),
		})
	}
	g.log.InfoContext(ctx, "request resolved",
		"domain", string(domain),
		"key", fingerprint.Short(key),
		"source", string(source),
		"dur", elapsed.String())
}
