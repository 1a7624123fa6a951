package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/agrama/agrama/internal/engine"
	"github.com/agrama/agrama/internal/semantic"
)

func newTestServer(t *testing.T) (*Server, *bytes.Buffer) {
	t.Helper()
	eng, err := engine.New(engine.Config{
		SemanticParams: semantic.Params{Dim: 4, M: 4, EfConstruction: 16, Seed: 1},
	})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	out := &bytes.Buffer{}
	s := NewServer(eng, nil)
	s.stdout = out
	return s, out
}

func TestInitializeHandshake(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected error response: %+v", resp)
	}
	result, ok := resp.Result.(InitializeResult)
	if !ok {
		t.Fatalf("result type = %T", resp.Result)
	}
	if result.ProtocolVersion != ProtocolVersion {
		t.Fatalf("ProtocolVersion = %q", result.ProtocolVersion)
	}
}

func TestInitializedNotificationReturnsNoResponse(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), `{"jsonrpc":"2.0","method":"initialized"}`)
	if resp != nil {
		t.Fatalf("expected nil response for notification, got %+v", resp)
	}
}

func TestMalformedJSONReturnsParseError(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), `not json`)
	if resp == nil || resp.Error == nil || resp.Error.Code != ParseError {
		t.Fatalf("expected ParseError, got %+v", resp)
	}
}

func TestMissingJSONRPCVersionIsInvalidRequest(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), `{"method":"ping","id":1}`)
	if resp == nil || resp.Error == nil || resp.Error.Code != InvalidRequest {
		t.Fatalf("expected InvalidRequest, got %+v", resp)
	}
}

func TestUnknownMethodIsMethodNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), `{"jsonrpc":"2.0","id":1,"method":"bogus"}`)
	if resp == nil || resp.Error == nil || resp.Error.Code != MethodNotFound {
		t.Fatalf("expected MethodNotFound, got %+v", resp)
	}
}

func TestToolsListReturnsFivePrimitives(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	result, ok := resp.Result.(ToolsListResult)
	if !ok {
		t.Fatalf("result type = %T", resp.Result)
	}
	if len(result.Tools) != 5 {
		t.Fatalf("len(tools) = %d, want 5", len(result.Tools))
	}
}

func TestToolsCallStoreThenRetrieve(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	storeReq := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"store","arguments":{"key":"a","value":"hello"}}}`
	resp := s.handleRequest(ctx, storeReq)
	result, ok := resp.Result.(CallToolResult)
	if !ok || result.IsError {
		t.Fatalf("store call failed: %+v", resp.Result)
	}

	retrieveReq := `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"retrieve","arguments":{"key":"a"}}}`
	resp = s.handleRequest(ctx, retrieveReq)
	result, ok = resp.Result.(CallToolResult)
	if !ok || result.IsError {
		t.Fatalf("retrieve call failed: %+v", resp.Result)
	}
	if !strings.Contains(result.Content[0].Text, "retrieved a") {
		t.Fatalf("unexpected content: %q", result.Content[0].Text)
	}
}

func TestToolsCallUnknownToolIsInvalidParams(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope","arguments":{}}}`)
	if resp.Error == nil || resp.Error.Code != InvalidParams {
		t.Fatalf("expected InvalidParams, got %+v", resp)
	}
}

func TestToolsCallValidationErrorReturnsIsError(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"store","arguments":{}}}`)
	result, ok := resp.Result.(CallToolResult)
	if !ok || !result.IsError {
		t.Fatalf("expected isError result, got %+v", resp.Result)
	}
}

func TestSendResponseWritesNewlineDelimitedJSON(t *testing.T) {
	s, out := newTestServer(t)
	s.sendResponse(&Response{JSONRPC: "2.0", ID: 1, Result: map[string]any{"ok": true}})

	line := strings.TrimSpace(out.String())
	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if decoded["jsonrpc"] != "2.0" {
		t.Fatalf("decoded = %v", decoded)
	}
}
