package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws-samples/ar-rewriting-orchestrator/internal/apierr"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/config"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) (*OpenRouterAdapter, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	adapter := NewOpenRouterAdapter(config.OpenRouterConfig{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		DefaultModel: "default-model",
	}, server.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return adapter, server
}

func TestOpenRouterAdapter_Generate_Success(t *testing.T) {
	var gotReq openRouterRequest
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		resp, _ := json.Marshal(openRouterResponse{Choices: []struct {
			Message message `json:"message"`
		}{{Message: message{Role: "assistant", Content: "the answer"}}}})
		w.WriteHeader(http.StatusOK)
		w.Write(resp)
	})

	answer, err := adapter.Generate(context.Background(), "anthropic/claude-3.5-sonnet", "what is 2+2?")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if answer != "the answer" {
		t.Fatalf("expected 'the answer', got %q", answer)
	}
	if gotReq.Model != "anthropic/claude-3.5-sonnet" {
		t.Fatalf("expected requested model to pass through, got %q", gotReq.Model)
	}
}

func TestOpenRouterAdapter_Generate_EmptyModelIDUsesDefault(t *testing.T) {
	var gotReq openRouterRequest
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotReq)
		resp, _ := json.Marshal(openRouterResponse{Choices: []struct {
			Message message `json:"message"`
		}{{Message: message{Content: "ok"}}}})
		w.WriteHeader(http.StatusOK)
		w.Write(resp)
	})

	if _, err := adapter.Generate(context.Background(), "", "prompt"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if gotReq.Model != "default-model" {
		t.Fatalf("expected default-model fallback, got %q", gotReq.Model)
	}
}

func TestOpenRouterAdapter_Generate_ServerErrorRetriesOnceThenFails(t *testing.T) {
	var calls int
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})

	_, err := adapter.Generate(context.Background(), "model-x", "prompt")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !apierr.Is(err, apierr.KindModelUnavailable) {
		t.Fatalf("expected KindModelUnavailable, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly one retry (2 calls), got %d", calls)
	}
}

func TestOpenRouterAdapter_Generate_EmptyChoicesIsModelUnavailable(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		resp, _ := json.Marshal(openRouterResponse{})
		w.WriteHeader(http.StatusOK)
		w.Write(resp)
	})

	_, err := adapter.Generate(context.Background(), "model-x", "prompt")
	if !apierr.Is(err, apierr.KindModelUnavailable) {
		t.Fatalf("expected KindModelUnavailable, got %v", err)
	}
}
