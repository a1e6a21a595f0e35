package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"ward.fit/collate/internal/auth"
	"ward.fit/collate/internal/engine"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	return NewServer(engine.DefaultConfig(), nil, zerolog.Nop(), opts)
}

func TestHealthzWithoutDatabase(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, Options{})
	e := s.buildEcho()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"audit":"disabled"`) {
		t.Fatalf("expected audit disabled in %s", rec.Body.String())
	}
}

func TestDedupEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, Options{})
	e := s.buildEcho()

	payload := `{
		"payload_version":"v1",
		"notes":[
			{"id":"n1","text":"POD 2: afebrile, wound clean."},
			{"id":"n2","text":"POD 2: afebrile, wound clean."}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/dedup", strings.NewReader(payload))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Status string        `json:"status"`
		Data   engine.Result `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Status != "success" {
		t.Fatalf("status = %q, want success", envelope.Status)
	}
	if envelope.Data.OutputCount != 1 {
		t.Fatalf("output count = %d, want 1", envelope.Data.OutputCount)
	}
	if envelope.Data.ReductionPercent != 50 {
		t.Fatalf("reduction = %v, want 50", envelope.Data.ReductionPercent)
	}
}

func TestDedupEndpointRejectsInvalidPayload(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, Options{})
	e := s.buildEcho()

	req := httptest.NewRequest(http.MethodPost, "/v1/dedup", strings.NewReader(`{"payload_version":"v1"}`))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"status":"fail"`) {
		t.Fatalf("expected jsend fail envelope: %s", rec.Body.String())
	}
}

func TestDedupEndpointRejectsInvalidOptions(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, Options{})
	e := s.buildEcho()

	payload := `{
		"payload_version":"v1",
		"notes":[{"text":"afebrile."}],
		"options":{"weights":{"jaccard":0.9,"levenshtein":0.9,"semantic":0.9}}
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/dedup", strings.NewReader(payload))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for bad weights: %s", rec.Code, rec.Body.String())
	}
}

func TestBasicAuthGuardsDedup(t *testing.T) {
	t.Parallel()

	hash, err := auth.HashCredential("letmein")
	if err != nil {
		t.Fatalf("HashCredential: %v", err)
	}
	s := newTestServer(t, Options{APIUser: "ward", APIPasswordHash: hash})
	e := s.buildEcho()

	payload := `{"payload_version":"v1","notes":[{"text":"afebrile."}]}`

	req := httptest.NewRequest(http.MethodPost, "/v1/dedup", strings.NewReader(payload))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without credentials", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/dedup", strings.NewReader(payload))
	req.Header.Set(echoHeaderContentType, "application/json")
	req.SetBasicAuth("ward", "letmein")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with credentials: %s", rec.Code, rec.Body.String())
	}

	// Health stays open.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200 without credentials", rec.Code)
	}
}

const echoHeaderContentType = "Content-Type"
