package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/threadwise/internal/apperr"
	"github.com/edgard/threadwise/internal/config"
	"github.com/edgard/threadwise/internal/logger"
)

func ollamaConfig(url string) config.GenerationConfig {
	return config.GenerationConfig{
		Backend:       config.BackendOllama,
		Model:         "llama3.2:3b",
		BaseURL:       url,
		Temperature:   0.2,
		TopP:          0.9,
		TopK:          40,
		RepeatPenalty: 1.1,
		MaxTokens:     500,
		Timeout:       5 * time.Second,
	}
}

func TestOllamaGenerate(t *testing.T) {
	t.Parallel()

	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "**Key Discussion Points**: ...", "done": true})
	}))
	t.Cleanup(srv.Close)

	client, err := New(context.Background(), ollamaConfig(srv.URL+"/"), logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "ollama", client.Name())

	text, err := client.Generate(context.Background(), "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "**Key Discussion Points**: ...", text)

	assert.Equal(t, ollamaRequest{
		Model:  "llama3.2:3b",
		Prompt: "summarize this",
		Stream: false,
		Options: ollamaOptions{
			Temperature:   0.2,
			TopP:          0.9,
			TopK:          40,
			RepeatPenalty: 1.1,
			NumPredict:    500,
		},
	}, got)
}

func TestOllamaErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
			},
			want: apperr.ErrBackendError,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>proxy error</html>"))
			},
			want: apperr.ErrBackendError,
		},
		{
			name: "empty response",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"response":"  ","done":true}`))
			},
			want: apperr.ErrBackendError,
		},
		{
			name: "slow backend",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(2 * time.Second):
				case <-r.Context().Done():
				}
			},
			want: apperr.ErrBackendUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)

			cfg := ollamaConfig(srv.URL)
			cfg.Timeout = 200 * time.Millisecond
			client, err := NewOllama(cfg, logger.Discard())
			require.NoError(t, err)

			_, err = client.Generate(context.Background(), "hi")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOllamaUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewOllama(ollamaConfig(url), logger.Discard())
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, apperr.ErrBackendUnavailable)
}

func TestOllamaCallerCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	client, err := NewOllama(ollamaConfig(srv.URL), logger.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Generate(ctx, "hi")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, apperr.IsBackendFailure(err), "caller cancellation is not a backend failure")
}

func TestNewConfigurationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.GenerationConfig
	}{
		{"gemini without key", config.GenerationConfig{Backend: config.BackendGemini, Model: "gemini-2.0-flash-001"}},
		{"openai without key", config.GenerationConfig{Backend: config.BackendOpenAI, Model: "gpt-4o-mini"}},
		{"anthropic without model", config.GenerationConfig{Backend: config.BackendAnthropic, APIKey: "k"}},
		{"ollama without url", config.GenerationConfig{Backend: config.BackendOllama, Model: "llama3.2:3b"}},
		{"unknown backend", config.GenerationConfig{Backend: "bard"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(context.Background(), tt.cfg, nil)
			assert.ErrorIs(t, err, apperr.ErrConfiguration)
		})
	}
}

func TestNewLangChainOpenAI(t *testing.T) {
	t.Parallel()

	client, err := New(context.Background(), config.GenerationConfig{
		Backend: config.BackendOpenAI,
		Model:   "gpt-4o-mini",
		APIKey:  "sk-test",
		BaseURL: "http://127.0.0.1:1/v1",
		Timeout: time.Second,
	}, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "openai", client.Name())
}

func TestClassify(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.ErrorIs(t, classify(ctx, "x", errors.New("boom")), apperr.ErrBackendError)
	assert.ErrorIs(t, classify(ctx, "x", context.DeadlineExceeded), apperr.ErrBackendUnavailable)

	already := classify(ctx, "x", apperr.ErrBackendUnavailable)
	assert.ErrorIs(t, already, apperr.ErrBackendUnavailable)
	assert.NotErrorIs(t, already, apperr.ErrBackendError)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err := classify(canceled, "x", errors.New("boom"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, apperr.IsBackendFailure(err))
}
