// Package predictor holds the optional learned-model capability. A
// Registry owns at most one Handle per domain; callers receive an
// explicit Result variant instead of an error, so absence and inference
// failure read as ordinary branch conditions in the gateway.
package predictor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/RaparthiSrikar/CityAssist/internal/model"
	"github.com/RaparthiSrikar/CityAssist/internal/observability"
)

// Prediction is the raw model output. Values carries regression outputs
// or per-class scores; Label is set by classifiers.
type Prediction struct {
	Values []float64
	Label  string
}

// Handle is a loaded model capable of inference.
type Handle interface {
	Predict(ctx context.Context, features []float64) (Prediction, error)
}

type Outcome int

const (
	OutcomeValue Outcome = iota
	OutcomeAbsent
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValue:
		return "value"
	case OutcomeAbsent:
		return "absent"
	default:
		return "failure"
	}
}

// Result is the outcome of one predictor attempt. Output is meaningful
// only when Outcome is OutcomeValue; Reason explains Absent/Failure.
type Result struct {
	Outcome Outcome
	Output  Prediction
	Reason  string
}

type entry struct {
	h          Handle
	descriptor string
}

// Registry maps domains to handles. It is populated once at startup and
// read-only afterwards, so no locking is needed on the request path.
type Registry struct {
	log     *slog.Logger
	timeout time.Duration
	handles map[model.Domain]entry
}

func NewRegistry(log *slog.Logger, predictTimeout time.Duration) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:     log,
		timeout: predictTimeout,
		handles: make(map[model.Domain]entry),
	}
}

// Register installs a handle for domain. The descriptor is a statically
// declared capability string reported by the models endpoint; it is never
// derived from the handle's concrete type.
func (r *Registry) Register(domain model.Domain, h Handle, descriptor string) {
	if h == nil {
		return
	}
	r.handles[domain] = entry{h: h, descriptor: descriptor}
}

// Loaded reports per-domain handle presence, for the health endpoint.
func (r *Registry) Loaded() map[model.Domain]bool {
	out := make(map[model.Domain]bool, len(model.Domains))
	for _, d := range model.Domains {
		_, ok := r.handles[d]
		out[d] = ok
	}
	return out
}

// Descriptors returns the capability string per loaded domain.
func (r *Registry) Descriptors() map[model.Domain]string {
	out := make(map[model.Domain]string, len(r.handles))
	for d, e := range r.handles {
		out[d] = e.descriptor
	}
	return out
}

// Predict runs inference for domain if a handle is registered. Any
// runtime failure, panic, or timeout is reported as OutcomeFailure and
// never propagates; the caller falls back to the heuristic.
func (r *Registry) Predict(ctx context.Context, domain model.Domain, features []float64) Result {
	ent, ok := r.handles[domain]
	if !ok {
		observability.IncPredictorOutcome(string(domain), OutcomeAbsent.String())
		return Result{Outcome: OutcomeAbsent, Reason: "no predictor loaded"}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	type res struct {
		out Prediction
		err error
	}
	ch := make(chan res, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- res{err: fmt.Errorf("predictor panic: %v", rec)}
			}
		}()
		out, err := ent.h.Predict(ctx, features)
		ch <- res{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		r.log.WarnContext(ctx, "predictor timed out", "domain", string(domain), "err", ctx.Err())
		observability.IncPredictorOutcome(string(domain), OutcomeFailure.String())
		return Result{Outcome: OutcomeFailure, Reason: "inference timed out"}
	case v := <-ch:
		if v.err != nil {
			r.log.WarnContext(ctx, "predictor inference failed", "domain", string(domain), "err", v.err)
			observability.IncPredictorOutcome(string(domain), OutcomeFailure.String())
			return Result{Outcome: OutcomeFailure, Reason: v.err.Error()}
		}
		observability.IncPredictorOutcome(string(domain), OutcomeValue.String())
		return Result{Outcome: OutcomeValue, Output: v.out}
	}
}
