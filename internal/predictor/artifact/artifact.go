// Package artifact loads pretrained model artifacts from disk. An
// artifact is a JSON description of a linear model; a missing or
// malformed artifact leaves the domain without a predictor rather than
// failing startup.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/RaparthiSrikar/CityAssist/internal/model"
	"github.com/RaparthiSrikar/CityAssist/internal/predictor"
)

const (
	KindLinearRegression = "linear_regression"
	KindLinearClassifier = "linear_classifier"
)

type Class struct {
	Label   string    `json:"label"`
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
}

// Model is a deserialized artifact. Regressors use Bias/Weights;
// classifiers score each Class and pick the argmax.
type Model struct {
	Kind    string    `json:"kind"`
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
	Classes []Class   `json:"classes"`
}

var _ predictor.Handle = (*Model)(nil)

func (m *Model) Predict(_ context.Context, features []float64) (predictor.Prediction, error) {
	switch m.Kind {
	case KindLinearRegression:
		v, err := dot(m.Bias, m.Weights, features)
		if err != nil {
			return predictor.Prediction{}, err
		}
		return predictor.Prediction{Values: []float64{v}}, nil
	case KindLinearClassifier:
		best := 0
		scores := make([]float64, len(m.Classes))
		for i, c := range m.Classes {
			v, err := dot(c.Bias, c.Weights, features)
			if err != nil {
				return predictor.Prediction{}, err
			}
			scores[i] = v
			if v > scores[best] {
				best = i
			}
		}
		return predictor.Prediction{Values: scores, Label: m.Classes[best].Label}, nil
	default:
		return predictor.Prediction{}, fmt.Errorf("unknown model kind %q", m.Kind)
	}
}

func dot(bias float64, weights, features []float64) (float64, error) {
	if len(weights) != len(features) {
		return 0, fmt.Errorf("feature shape mismatch: model expects %d, got %d", len(weights), len(features))
	}
	v := bias
	for i, w := range weights {
		v += w * features[i]
	}
	return v, nil
}

func Load(path string) (*Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var m Model
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", filepath.Base(path), err)
	}
	switch m.Kind {
	case KindLinearRegression:
		if len(m.Weights) == 0 {
			return nil, fmt.Errorf("artifact %s: regression model has no weights", filepath.Base(path))
		}
	case KindLinearClassifier:
		if len(m.Classes) == 0 {
			return nil, fmt.Errorf("artifact %s: classifier has no classes", filepath.Base(path))
		}
	default:
		return nil, fmt.Errorf("artifact %s: unknown kind %q", filepath.Base(path), m.Kind)
	}
	return &m, nil
}

// names of the per-domain artifact files under the artifacts dir
var fileNames = map[model.Domain]string{
	model.DomainPersonalization: "personalization.json",
	model.DomainRoute:           "route_model.json",
	model.DomainOutage:          "outage_eta.json",
	model.DomainImage:           "image_triage.json",
}

// LoadDir attempts to load an artifact for each domain independently.
// Absence and deserialization failures are logged and skipped.
func LoadDir(dir string, log *slog.Logger) map[model.Domain]*Model {
	if log == nil {
		log = slog.Default()
	}
	out := make(map[model.Domain]*Model)
	for _, d := range model.Domains {
		path := filepath.Join(dir, fileNames[d])
		m, err := Load(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Info("model artifact not found", "domain", string(d), "path", path)
			} else {
				log.Error("failed loading model artifact", "domain", string(d), "path", path, "err", err)
			}
			continue
		}
		log.Info("loaded model artifact", "domain", string(d), "path", path, "kind", m.Kind)
		out[d] = m
	}
	return out
}
