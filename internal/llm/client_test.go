package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"finance-rag/internal/config"
)

func newTestClient(t *testing.T, body string, status int) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.LLMConfig{
		BaseURL:     srv.URL,
		Model:       "test-model",
		Temperature: 0.7,
		MaxTokens:   128,
	}
	return NewClient(cfg, "Bearer secret-token")
}

func TestGenerate_ListShape(t *testing.T) {
	client := newTestClient(t, `[{"generated_text": "  Revenue grew by ten percent.  "}]`, http.StatusOK)

	resp, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, KindSuccess, resp.Kind)
	require.Equal(t, "Revenue grew by ten percent.", resp.Text)
}

func TestGenerate_ObjectShape(t *testing.T) {
	client := newTestClient(t, `{"generated_text": "Net income fell."}`, http.StatusOK)

	resp, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, KindSuccess, resp.Kind)
	require.Equal(t, "Net income fell.", resp.Text)
}

func TestGenerate_ErrorShape(t *testing.T) {
	client := newTestClient(t, `{"error": "Model is currently loading"}`, http.StatusOK)

	resp, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, KindAPIError, resp.Kind)
	require.Equal(t, "Model is currently loading", resp.ErrMessage)
}

func TestGenerate_UnrecognizedShape(t *testing.T) {
	client := newTestClient(t, `{"something": "else"}`, http.StatusOK)

	resp, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, KindUnrecognized, resp.Kind)
	require.Contains(t, resp.Raw, "something")
}

func TestGenerate_UnrecognizedListShape(t *testing.T) {
	client := newTestClient(t, `[{"token": 42}]`, http.StatusOK)

	resp, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, KindUnrecognized, resp.Kind)
}

func TestGenerate_UndecodableBody(t *testing.T) {
	client := newTestClient(t, `<html>bad gateway</html>`, http.StatusBadGateway)

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
}

func TestGenerate_TransportFailure(t *testing.T) {
	cfg := &config.LLMConfig{BaseURL: "http://127.0.0.1:1", Model: "m"}
	client := NewClient(cfg, "")

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
}

func TestGenerate_RequestShape(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"generated_text": "ok"}`))
	}))
	defer srv.Close()

	cfg := &config.LLMConfig{BaseURL: srv.URL, Model: "org/model", Temperature: 0.5, MaxTokens: 10}
	client := NewClient(cfg, "tok")

	_, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "/models/org/model", gotPath)
	require.Equal(t, "Bearer tok", gotAuth)
}
