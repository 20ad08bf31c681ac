package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RaparthiSrikar/CityAssist/internal/cache"
	"github.com/RaparthiSrikar/CityAssist/internal/cache/memstore"
	"github.com/RaparthiSrikar/CityAssist/internal/gateway"
	"github.com/RaparthiSrikar/CityAssist/internal/imaging"
	"github.com/RaparthiSrikar/CityAssist/internal/model"
	"github.com/RaparthiSrikar/CityAssist/internal/predictor"
)

type handleFunc func(ctx context.Context, features []float64) (predictor.Prediction, error)

func (f handleFunc) Predict(ctx context.Context, features []float64) (predictor.Prediction, error) {
	return f(ctx, features)
}

func newTestAPI(t *testing.T, reg *predictor.Registry) http.Handler {
	t.Helper()
	if reg == nil {
		reg = predictor.NewRegistry(slog.Default(), time.Second)
	}
	rc := cache.New(memstore.New(64), slog.Default(), 0, time.Minute)
	t.Cleanup(func() { _ = rc.Close() })
	gw := gateway.New(slog.Default(), rc, reg, nil)
	return New(slog.Default(), gw, reg, imaging.StdDecoder{}).Router()
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPersonalization_HeuristicLiteral(t *testing.T) {
	h := newTestAPI(t, nil)

	rr := postJSON(t, h, "/predict/personalization",
		`{"age":70,"sensitivity":1.0,"chronic_conditions":[],"aqi":160}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	var out model.PersonalizationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.SendAlert {
		t.Fatalf("send_alert = false, want true")
	}
	if out.Severity != "moderate" {
		t.Fatalf("severity = %q, want moderate", out.Severity)
	}
	if !strings.Contains(out.Reason, "threshold 135") {
		t.Fatalf("reason = %q", out.Reason)
	}
}

func TestPersonalization_IdenticalRequestsByteIdentical(t *testing.T) {
	h := newTestAPI(t, nil)
	body := `{"age":70,"aqi":160}`

	first := postJSON(t, h, "/predict/personalization", body)
	second := postJSON(t, h, "/predict/personalization", body)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("status = %d/%d", first.Code, second.Code)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Fatalf("responses differ:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

func TestPersonalization_ModelPreferred(t *testing.T) {
	reg := predictor.NewRegistry(slog.Default(), time.Second)
	reg.Register(model.DomainPersonalization, handleFunc(func(_ context.Context, _ []float64) (predictor.Prediction, error) {
		return predictor.Prediction{Values: []float64{1}}, nil
	}), "linear_regression")
	h := newTestAPI(t, reg)

	rr := postJSON(t, h, "/predict/personalization", `{"age":30,"aqi":40}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var out model.PersonalizationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Reason != "Model-based decision" {
		t.Fatalf("reason = %q, want model path", out.Reason)
	}
	if !out.SendAlert {
		t.Fatalf("model said alert, response disagrees")
	}
	if out.Severity != "low" {
		t.Fatalf("severity = %q, want low for AQI 40", out.Severity)
	}
}

func TestPersonalization_ValidationErrors(t *testing.T) {
	h := newTestAPI(t, nil)

	for name, body := range map[string]string{
		"negative aqi":   `{"aqi":-5}`,
		"malformed json": `{"aqi":`,
		"unknown field":  `{"aqi":50,"bogus":1}`,
	} {
		rr := postJSON(t, h, "/predict/personalization", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", name, rr.Code)
		}
	}
}

func TestRoute_HeuristicLiteral(t *testing.T) {
	h := newTestAPI(t, nil)

	rr := postJSON(t, h, "/predict/route",
		`{"origin":"depot","destination":"plant","traffic_level":0.9,"incidents":[]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	var out model.RouteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.RecommendedRoute) != 1 || out.RecommendedRoute[0] != "alt_route_1" {
		t.Fatalf("route = %v, want [alt_route_1]", out.RecommendedRoute)
	}
	if out.ETAMinutes != 64 {
		t.Fatalf("eta = %d, want 64", out.ETAMinutes)
	}
}

func TestRoute_RequiresEndpoints(t *testing.T) {
	h := newTestAPI(t, nil)
	rr := postJSON(t, h, "/predict/route", `{"traffic_level":0.5}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing origin/destination", rr.Code)
	}
}

func TestOutage_HeuristicLiteral(t *testing.T) {
	h := newTestAPI(t, nil)

	rr := postJSON(t, h, "/predict/outage_eta",
		`{"affected_customers":250,"weather_severity":0.8,"grid_load":0.5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	var out model.OutageResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ETAMinutes != 113 {
		t.Fatalf("eta = %d, want 113", out.ETAMinutes)
	}
	if out.Confidence != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", out.Confidence)
	}
}

func multipartImage(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func darkPNG(t *testing.T, w, hgt int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, hgt))
	for i := range img.Pix {
		img.Pix[i] = 50
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestImageTriage_HeuristicPothole(t *testing.T) {
	h := newTestAPI(t, nil)

	body, ctype := multipartImage(t, "report.png", darkPNG(t, 100, 90))
	req := httptest.NewRequest(http.MethodPost, "/predict/image_triage", body)
	req.Header.Set("Content-Type", ctype)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	var out model.ImageTriageResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Label != "pothole" || out.Priority != "high" {
		t.Fatalf("got (%s,%s), want (pothole,high)", out.Label, out.Priority)
	}
}

func TestImageTriage_InvalidImage(t *testing.T) {
	h := newTestAPI(t, nil)

	body, ctype := multipartImage(t, "junk.png", []byte("not an image at all"))
	req := httptest.NewRequest(http.MethodPost, "/predict/image_triage", body)
	req.Header.Set("Content-Type", ctype)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var out map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["detail"] != "Invalid image" {
		t.Fatalf("detail = %q", out["detail"])
	}
}

func TestImageTriage_MissingFile(t *testing.T) {
	h := newTestAPI(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/predict/image_triage", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestHealth_ReportsPresence(t *testing.T) {
	reg := predictor.NewRegistry(slog.Default(), time.Second)
	reg.Register(model.DomainOutage, handleFunc(func(_ context.Context, _ []float64) (predictor.Prediction, error) {
		return predictor.Prediction{Values: []float64{1}}, nil
	}), "linear_regression")
	h := newTestAPI(t, reg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var out struct {
		Status       string          `json:"status"`
		ModelsLoaded map[string]bool `json:"models_loaded"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "ok" {
		t.Fatalf("status = %q", out.Status)
	}
	if !out.ModelsLoaded["outage"] || out.ModelsLoaded["route"] {
		t.Fatalf("models_loaded = %v", out.ModelsLoaded)
	}
	if len(out.ModelsLoaded) != 4 {
		t.Fatalf("presence map should cover all four domains, got %v", out.ModelsLoaded)
	}
}

func TestModels_DescriptorsAndNulls(t *testing.T) {
	reg := predictor.NewRegistry(slog.Default(), time.Second)
	reg.Register(model.DomainRoute, handleFunc(func(_ context.Context, _ []float64) (predictor.Prediction, error) {
		return predictor.Prediction{Label: "main_street"}, nil
	}), "linear_classifier")
	h := newTestAPI(t, reg)

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out struct {
		Models map[string]any `json:"models"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Models["route"] != "linear_classifier" {
		t.Fatalf("route descriptor = %v", out.Models["route"])
	}
	if out.Models["image"] != nil {
		t.Fatalf("image should be null, got %v", out.Models["image"])
	}
}
