package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"veritrack/internal/model"
	"veritrack/internal/oracle"
	"veritrack/internal/pipeline"
	"veritrack/internal/report"
	"veritrack/internal/resolve"
	"veritrack/internal/store"
)

// stubOracle extracts one claim per sentence and verifies everything
type stubOracle struct{}

func (stubOracle) Extract(ctx context.Context, text string, source model.Source) []model.ExtractedClaim {
	var out []model.ExtractedClaim
	for _, s := range strings.Split(text, ".") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, model.ExtractedClaim{ClaimText: s, Score: 70})
	}
	return out
}

func (stubOracle) Verify(ctx context.Context, claim model.Claim) (*model.VerificationResult, error) {
	return &model.VerificationResult{IsVerified: true, Summary: "This is accurate."}, nil
}

type stubClassifier struct{}

func (stubClassifier) Classify(ctx context.Context, existing, incoming []oracle.ClaimRef) ([]model.Interaction, error) {
	return nil, nil
}

type stubSynth struct{}

func (stubSynth) Synthesize(ctx context.Context, items []model.ReportItem) string {
	return "narrative"
}

func newTestApp() *App {
	p := pipeline.New(pipeline.Options{
		Store:    store.New(),
		Oracle:   stubOracle{},
		Resolver: resolve.New(stubClassifier{}, nil),
		Reporter: report.NewBuilder(stubSynth{}, nil),
	})
	return NewApp(p, nil)
}

func postJSON(t *testing.T, app *App, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, app *App, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestApp(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestCreateSource_Inline(t *testing.T) {
	app := newTestApp()

	rec := postJSON(t, app, "/v1/sources",
		`{"name": "Q3 report", "category": "financial-report", "content": "Revenue grew. Margins fell."}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ingestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Extracted != 2 || resp.Claims != 2 || resp.Merged {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Source.Category != model.CategoryFinancialReport {
		t.Errorf("category = %s", resp.Source.Category)
	}
}

func TestCreateSource_Validation(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		name string
		body string
	}{
		{"neither content nor url", `{"name": "x", "category": "user-input"}`},
		{"both content and url", `{"name": "x", "content": "a.", "url": "https://example.com"}`},
		{"missing name for inline", `{"category": "user-input", "content": "a."}`},
		{"malformed json", `{not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, app, "/v1/sources", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestListClaimsAndSources(t *testing.T) {
	app := newTestApp()
	postJSON(t, app, "/v1/sources", `{"name": "s", "category": "user-input", "content": "One claim."}`)

	rec := get(t, app, "/v1/claims")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var claims struct {
		Claims []model.Claim `json:"claims"`
		Count  int           `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &claims); err != nil {
		t.Fatal(err)
	}
	if claims.Count != 1 || claims.Claims[0].Text != "One claim" {
		t.Errorf("claims = %+v", claims)
	}

	rec = get(t, app, "/v1/sources")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestVerifyClaim(t *testing.T) {
	app := newTestApp()
	postJSON(t, app, "/v1/sources", `{"name": "s", "category": "user-input", "content": "One claim."}`)
	id := app.pipeline.Claims()[0].ID

	rec := postJSON(t, app, "/v1/claims/"+id+"/verify", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var claim model.Claim
	if err := json.Unmarshal(rec.Body.Bytes(), &claim); err != nil {
		t.Fatal(err)
	}
	if claim.Status != model.StatusVerified || claim.Verification == nil {
		t.Errorf("claim = %+v", claim)
	}
}

func TestVerifyClaim_NotFound(t *testing.T) {
	rec := postJSON(t, newTestApp(), "/v1/claims/nope/verify", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestVerifyAll(t *testing.T) {
	app := newTestApp()
	postJSON(t, app, "/v1/sources", `{"name": "s", "category": "user-input", "content": "A. B. C."}`)

	rec := postJSON(t, app, "/v1/verify-all", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp verifyAllResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Verified != 3 || resp.Failed != 0 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGetReport(t *testing.T) {
	app := newTestApp()
	postJSON(t, app, "/v1/sources", `{"name": "s", "category": "user-input", "content": "One claim."}`)

	rec := get(t, app, "/v1/report")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var rep model.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatal(err)
	}
	if rep.ClaimCount != 1 || rep.Narrative != "narrative" {
		t.Errorf("report = %+v", rep)
	}
}

func TestRequestIDHeader(t *testing.T) {
	rec := get(t, newTestApp(), "/healthz")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id header")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec = httptest.NewRecorder()
	newTestApp().Router.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "fixed-id" {
		t.Errorf("request id = %q, want fixed-id", rec.Header().Get("X-Request-ID"))
	}
}
