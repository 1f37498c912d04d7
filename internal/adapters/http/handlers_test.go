package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/dropmap/internal/adapters/http"
	"github.com/samirrijal/dropmap/internal/core/domain"
	"github.com/samirrijal/dropmap/internal/core/usecases"
	"github.com/samirrijal/dropmap/internal/pkg/geospatial"
)

const sampleCSV = "name,lat,lon,country,rate\n" +
	"Nairobi A,-1.29,36.82,KE,9\n" +
	"Nairobi B,-1.291,36.821,KE,10\n" +
	"Bilbao,43.26,-2.93,ES,55\n"

// ---- Mocks ----

type mockSource struct {
	fetchFn func(ctx context.Context) (string, error)
}

func (m *mockSource) Fetch(ctx context.Context) (string, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx)
	}
	return sampleCSV, nil
}

type mockPinger struct {
	pingFn func(ctx context.Context) error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true, ErrorHandler: handler.ErrorHandler})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(t *testing.T, opts ...func(*handler.Dependencies)) *handler.Dependencies {
	t.Helper()
	src := &mockSource{}
	d := &handler.Dependencies{
		Snapshot: usecases.NewSnapshotService(src, geospatial.Mercator{}),
		Source:   src,
		Styler:   usecases.DefaultStyler(),
		Distance: 10,
		View:     domain.ViewState{Zoom: 2, Width: 1024, Height: 768},
		TilesURL: "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func loaded(t *testing.T, d *handler.Dependencies) *handler.Dependencies {
	t.Helper()
	if _, err := d.Snapshot.Load(context.Background()); err != nil {
		t.Fatalf("snapshot load: %v", err)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

type featureCollection struct {
	Type     string    `json:"type"`
	BBox     []float64 `json:"bbox"`
	Features []struct {
		ID         string         `json:"id"`
		Properties map[string]any `json:"properties"`
		Geometry   struct {
			Type        string    `json:"type"`
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps(t))
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=10" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
}

func TestReady_NotLoaded(t *testing.T) {
	app := setupApp(makeDeps(t))
	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	_ = json.Unmarshal(readBody(t, resp.Body), &body)
	if body.Checks["records"] != "not loaded" || body.Checks["cache"] != "not configured" {
		t.Errorf("unexpected checks %v", body.Checks)
	}
}

func TestReady_Loaded(t *testing.T) {
	deps := loaded(t, makeDeps(t, func(d *handler.Dependencies) { d.Cache = &mockPinger{} }))
	resp, _ := setupApp(deps).Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReady_CacheDown(t *testing.T) {
	deps := loaded(t, makeDeps(t, func(d *handler.Dependencies) {
		d.Cache = &mockPinger{pingFn: func(ctx context.Context) error { return errors.New("connection refused") }}
	}))
	resp, _ := setupApp(deps).Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(readBody(t, resp.Body)), "connection refused") {
		t.Error("expected cache error in checks")
	}
}

// ---- Layer ----

func TestLayer_NotLoaded(t *testing.T) {
	app := setupApp(makeDeps(t))
	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/layer", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	var apiErr handler.APIError
	_ = json.Unmarshal(readBody(t, resp.Body), &apiErr)
	if apiErr.Code != "unavailable" || apiErr.RequestID == "" {
		t.Errorf("unexpected error body %+v", apiErr)
	}
}

func TestLayer_Defaults(t *testing.T) {
	app := setupApp(loaded(t, makeDeps(t)))
	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/layer", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("unexpected content type %q", ct)
	}
	if resp.Header.Get("ETag") == "" {
		t.Error("expected an ETag")
	}

	var fc featureCollection
	if err := json.Unmarshal(readBody(t, resp.Body), &fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" || len(fc.BBox) != 4 {
		t.Fatalf("unexpected document type=%s bbox=%v", fc.Type, fc.BBox)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("expected the two Nairobi points to cluster at zoom 2, got %d features", len(fc.Features))
	}
	nairobi := fc.Features[0]
	if nairobi.Properties["point_count"] != float64(2) || nairobi.Properties["hover_text"] != "Dropout Rate: 10%" {
		t.Errorf("unexpected properties %v", nairobi.Properties)
	}
	if nairobi.Properties["fill"] != "rgba(255, 107, 107, 0.27)" {
		t.Errorf("expected lowest bucket for 9.5, got %v", nairobi.Properties["fill"])
	}
	if fc.Features[1].Properties["fill"] != "rgba(225, 64, 64, 0.68)" {
		t.Errorf("expected top bucket for 55, got %v", fc.Features[1].Properties["fill"])
	}
}

func TestLayer_ZoomedIn(t *testing.T) {
	app := setupApp(loaded(t, makeDeps(t)))
	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/layer?lat=-1.29&lon=36.82&zoom=18&width=800&height=600", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var fc featureCollection
	_ = json.Unmarshal(readBody(t, resp.Body), &fc)
	if len(fc.Features) != 3 {
		t.Errorf("expected every point on its own at zoom 18, got %d", len(fc.Features))
	}
}

func TestLayer_BadParams(t *testing.T) {
	app := setupApp(loaded(t, makeDeps(t)))
	for _, q := range []string{
		"zoom=abc",
		"zoom=40",
		"lat=89",
		"width=0",
		"distance=-1",
	} {
		resp, _ := app.Test(httptest.NewRequest("GET", "/v1/layer?"+q, nil), -1)
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", q, resp.StatusCode)
		}
	}
}

func TestLayer_NotModified(t *testing.T) {
	app := setupApp(loaded(t, makeDeps(t)))
	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/layer", nil), -1)
	etag := resp.Header.Get("ETag")

	req := httptest.NewRequest("GET", "/v1/layer", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

// ---- Misc ----

func TestNotFound(t *testing.T) {
	resp, _ := setupApp(makeDeps(t)).Test(httptest.NewRequest("GET", "/v1/stops", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	resp, _ := setupApp(makeDeps(t)).Test(httptest.NewRequest("GET", "/ws", nil), -1)
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	resp, _ := setupApp(makeDeps(t)).Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

type mockConnector struct{ up bool }

func (m mockConnector) Connected() bool { return m.up }

func TestReady_NATSDisconnected(t *testing.T) {
	deps := loaded(t, makeDeps(t, func(d *handler.Dependencies) { d.Events = mockConnector{up: false} }))
	resp, _ := setupApp(deps).Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	_ = json.Unmarshal(readBody(t, resp.Body), &body)
	if body.Checks["nats"] != "disconnected" {
		t.Errorf("unexpected checks %v", body.Checks)
	}
}
