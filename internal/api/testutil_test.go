package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/db8labs/db8-agent/internal/api"
	"github.com/db8labs/db8-agent/internal/auth"
	"github.com/db8labs/db8-agent/internal/caption"
	"github.com/db8labs/db8-agent/internal/listing"
	"github.com/db8labs/db8-agent/internal/store"
	"github.com/db8labs/db8-agent/internal/testutil"
)

const (
	testAdminEmail     = "admin@db8.test"
	testDefaultCredits = 2
)

// stubGen is a caption generator whose outcome the test controls.
type stubGen struct {
	mu       sync.Mutex
	err      error
	disabled bool
	calls    int
}

func (g *stubGen) Enabled() bool        { return !g.disabled }
func (g *stubGen) ProviderName() string { return "stub" }

func (g *stubGen) Generate(_ context.Context, _ string) (*caption.GeneratedCaption, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &caption.GeneratedCaption{
		Title:    "Cobertura nos Jardins",
		Caption:  "Viva o melhor dos Jardins.",
		Bullets:  []string{"180 m²", "vista panorâmica"},
		CTA:      "Agende sua visita",
		Hashtags: []string{"#jardins", "#imoveis"},
	}, nil
}

func (g *stubGen) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// testEnv holds the router and stores for API integration tests.
type testEnv struct {
	Router     http.Handler
	Users      *store.UserStore
	Properties *store.PropertyStore
	Gen        *stubGen
}

// newTestEnv creates an in-memory SQLite test database, runs migrations,
// and wires up the full router with real stores and a stub generator.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, func(*api.Deps) {})
}

func newTestEnvWith(t *testing.T, customize func(*api.Deps)) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	us := store.NewUserStore(db)
	ps := store.NewPropertyStore(db)
	gen := &stubGen{}

	deps := api.Deps{
		DB:         db,
		Users:      us,
		Properties: ps,
		Listings:   listing.New(ps, gen, listing.Options{Concurrency: 2}),
		Account:    auth.NewMiddleware(us, testAdminEmail, testDefaultCredits),
	}
	customize(&deps)

	return &testEnv{
		Router:     api.NewRouter(deps),
		Users:      us,
		Properties: ps,
		Gen:        gen,
	}
}

// do sends a request with an optional JSON body and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.Router.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals the response body into v.
func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

// wantStatus fails the test when the response status differs.
func wantStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}

// wantCode fails the test when the error body has a different code.
func wantCode(t *testing.T, rr *httptest.ResponseRecorder, want string) {
	t.Helper()
	var resp api.ErrorResponse
	decode(t, rr, &resp)
	if resp.Code != want {
		t.Errorf("expected code %s, got %s (%s)", want, resp.Code, resp.Error)
	}
}

func jardinsRequest() api.CreatePropertyRequest {
	return api.CreatePropertyRequest{
		Description:      "Apartamento amplo com vista.",
		Images:           []string{"https://img.example/1.jpg", "https://img.example/2.jpg"},
		PropertyType:     "apartamento",
		PropertyStandard: "luxo",
		City:             "São Paulo",
		Neighborhood:     "Jardins",
		InvestmentValue:  "R$ 2.500.000",
		BuiltAreaM2:      180,
		Highlights:       "vista panorâmica, varanda gourmet",
	}
}

// seedProperty creates a listing through the API and returns it.
func seedProperty(t *testing.T, env *testEnv) api.PropertyResponse {
	t.Helper()
	rr := env.do(t, http.MethodPost, "/properties", jardinsRequest())
	wantStatus(t, rr, http.StatusCreated)
	var p api.PropertyResponse
	decode(t, rr, &p)
	return p
}
