package httptransport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agrama/agrama/internal/engine"
	"github.com/agrama/agrama/internal/semantic"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := engine.New(engine.Config{
		SemanticParams: semantic.Params{Dim: 4, M: 4, EfConstruction: 16, Seed: 1},
	})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return NewServer(eng, nil, Config{CORS: true})
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestToolsEndpointListsFivePrimitives(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/tools", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var body struct {
		Tools []engine.Metadata `json:"tools"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Tools) != 5 {
		t.Fatalf("len(tools) = %d, want 5", len(body.Tools))
	}
}

func TestCallStoreThenRetrieve(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, "/v1/call", rpcRequest{Tool: "store", Arguments: map[string]any{"key": "a", "value": "hello"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("store status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, s, "/v1/call", rpcRequest{Tool: "retrieve", Arguments: map[string]any{"key": "a"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve status = %d body=%s", rec.Code, rec.Body.String())
	}

	var resp rpcResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Result["value"] != "hello" {
		t.Errorf("value = %v, want hello", resp.Result["value"])
	}
}

func TestCallUnknownToolReturnsBadRequest(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(t, s, "/v1/call", rpcRequest{Tool: "nope", Arguments: map[string]any{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCallValidationFailureReturnsUnprocessable(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(t, s, "/v1/call", rpcRequest{Tool: "store", Arguments: map[string]any{}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}
