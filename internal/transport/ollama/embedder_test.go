package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

func newTestEmbedder(endpoint string) *Embedder {
	return NewEmbedder(&Config{
		Endpoint: endpoint,
		Model:    "nomic-embed-text",
		Timeout:  2 * time.Second,
		Logger:   zap.NewNop(),
	})
}

// respondWith returns a server answering every request with the given status and raw body.
func respondWith(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestEmbedder_Embed_SendsModelAndSingleInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["model"] != "nomic-embed-text" {
			t.Errorf("model = %v", req["model"])
		}
		input, ok := req["input"].([]any)
		if !ok || len(input) != 1 || input[0] != "space battles" {
			t.Errorf("input = %#v, want one-element list", req["input"])
		}
		if _, ok := req["prompt"]; ok {
			t.Error("legacy prompt key must not be sent")
		}

		_, _ = w.Write([]byte(`{"model":"nomic-embed-text","embeddings":[[0.1,0.2,0.3]],"prompt_eval_count":4}`))
	}))
	defer server.Close()

	result, err := newTestEmbedder(server.URL+"/api/embed").Embed(context.Background(), "space battles")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	want := []float32{0.1, 0.2, 0.3}
	if len(result.Embedding) != len(want) {
		t.Fatalf("expected %d dimensions, got %d", len(want), len(result.Embedding))
	}
	for i, v := range result.Embedding {
		if v != want[i] {
			t.Errorf("vec[%d] = %f, expected %f", i, v, want[i])
		}
	}
	if result.PromptTokens != 4 {
		t.Errorf("PromptTokens = %d, expected 4", result.PromptTokens)
	}
}

func TestEmbedder_Embed_LegacyFlatShape(t *testing.T) {
	server := respondWith(t, http.StatusOK, `{"embedding":[0.5,0.5]}`)

	result, err := newTestEmbedder(server.URL+"/api/embed").Embed(context.Background(), "q")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(result.Embedding) != 2 || result.Embedding[0] != 0.5 || result.Embedding[1] != 0.5 {
		t.Errorf("unexpected vector: %v", result.Embedding)
	}
}

func TestEmbedder_Embed_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   domain.FailureKind
	}{
		{"empty nested list", http.StatusOK, `{"embeddings":[]}`, domain.FailureEmptyResult},
		{"empty inner vector", http.StatusOK, `{"embeddings":[[]]}`, domain.FailureEmptyResult},
		{"empty flat list", http.StatusOK, `{"embedding":[]}`, domain.FailureEmptyResult},
		{"malformed json", http.StatusOK, `{"embeddings": [[0.1,`, domain.FailureMalformedJSON},
		{"html body", http.StatusOK, `<html>oops</html>`, domain.FailureMalformedJSON},
		{"missing keys", http.StatusOK, `{"model":"nomic-embed-text"}`, domain.FailureInvalidKey},
		{"null embeddings", http.StatusOK, `{"embeddings":null}`, domain.FailureInvalidKey},
		{"wrong type", http.StatusOK, `{"embeddings":"nope"}`, domain.FailureInvalidKey},
		{"flat wrong type", http.StatusOK, `{"embedding":{"a":1}}`, domain.FailureInvalidKey},
		{"two vectors", http.StatusOK, `{"embeddings":[[0.1],[0.2]]}`, domain.FailureInvalidKey},
		{"not an object", http.StatusOK, `[0.1,0.2]`, domain.FailureInvalidKey},
		{"model missing", http.StatusNotFound, `{"error":"model \"x\" not found"}`, domain.FailureHTTPStatus},
		{"server error", http.StatusInternalServerError, `boom`, domain.FailureHTTPStatus},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := respondWith(t, tc.status, tc.body)

			_, err := newTestEmbedder(server.URL+"/api/embed").Embed(context.Background(), "q")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrEmbeddingProviderError) {
				t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
			}
			kind, ok := domain.EmbeddingFailureKind(err)
			if !ok || kind != tc.want {
				t.Errorf("failure kind = %q, want %q (err: %v)", kind, tc.want, err)
			}
		})
	}
}

func TestEmbedder_Embed_EmptyResultDistinctFromMalformed(t *testing.T) {
	empty := respondWith(t, http.StatusOK, `{"embeddings":[]}`)
	malformed := respondWith(t, http.StatusOK, `not json`)

	_, errEmpty := newTestEmbedder(empty.URL).Embed(context.Background(), "q")
	_, errMalformed := newTestEmbedder(malformed.URL).Embed(context.Background(), "q")

	kEmpty, _ := domain.EmbeddingFailureKind(errEmpty)
	kMalformed, _ := domain.EmbeddingFailureKind(errMalformed)
	if kEmpty == kMalformed {
		t.Fatalf("empty and malformed responses must be distinct, both %q", kEmpty)
	}
}

func TestEmbedder_Embed_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	_, err = newTestEmbedder("http://"+addr+"/api/embed").Embed(context.Background(), "q")
	kind, ok := domain.EmbeddingFailureKind(err)
	if !ok || kind != domain.FailureConnectionRefused {
		t.Errorf("failure kind = %q, want %q (err: %v)", kind, domain.FailureConnectionRefused, err)
	}
}

func TestEmbedder_Embed_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	emb := NewEmbedder(&Config{
		Endpoint: server.URL + "/api/embed",
		Model:    "nomic-embed-text",
		Timeout:  50 * time.Millisecond,
	})

	_, err := emb.Embed(context.Background(), "q")
	kind, ok := domain.EmbeddingFailureKind(err)
	if !ok || kind != domain.FailureTimeout {
		t.Errorf("failure kind = %q, want %q (err: %v)", kind, domain.FailureTimeout, err)
	}
}

func TestEmbedder_HealthCheck(t *testing.T) {
	var probed string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = r.Method + " " + r.URL.Path
		_, _ = w.Write([]byte("Ollama is running"))
	}))
	defer server.Close()

	if err := newTestEmbedder(server.URL+"/api/embed").HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probed != "GET /" {
		t.Errorf("probe hit %q, want GET /", probed)
	}
}

func TestEmbedder_HealthCheck_BadStatus(t *testing.T) {
	server := respondWith(t, http.StatusServiceUnavailable, "")

	if err := newTestEmbedder(server.URL+"/api/embed").HealthCheck(context.Background()); err == nil {
		t.Fatal("expected error for 503 probe")
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:11434/api/embed", "http://localhost:11434/"},
		{"http://localhost:11434/api/embeddings", "http://localhost:11434/"},
		{"http://ollama:11434/", "http://ollama:11434/"},
	}
	for _, tc := range tests {
		if got := BaseURL(tc.in); got != tc.want {
			t.Errorf("BaseURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
