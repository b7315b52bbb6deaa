package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/edgard/threadwise/internal/apperr"
	"github.com/edgard/threadwise/internal/config"
)

type ollamaOptions struct {
	Temperature   float32 `json:"temperature"`
	TopP          float32 `json:"top_p,omitempty"`
	TopK          int     `json:"top_k,omitempty"`
	RepeatPenalty float32 `json:"repeat_penalty,omitempty"`
	NumPredict    int     `json:"num_predict,omitempty"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

type ollamaClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	options    ollamaOptions
	log        *slog.Logger
}

// NewOllama creates a client for a local Ollama daemon (POST /api/generate,
// non-streaming).
func NewOllama(cfg config.GenerationConfig, log *slog.Logger) (Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: ollama base_url is required", apperr.ErrConfiguration)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: ollama model is required", apperr.ErrConfiguration)
	}

	logger := log.With("component", "ollama_client")
	logger.Info("Ollama client initialized", "base_url", cfg.BaseURL, "model", cfg.Model)
	return &ollamaClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		options: ollamaOptions{
			Temperature:   cfg.Temperature,
			TopP:          cfg.TopP,
			TopK:          cfg.TopK,
			RepeatPenalty: cfg.RepeatPenalty,
			NumPredict:    cfg.MaxTokens,
		},
		log: logger,
	}, nil
}

func (c *ollamaClient) Name() string { return config.BackendOllama }

func (c *ollamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	c.log.DebugContext(ctx, "Generating content", "model", c.model, "prompt_length", len(prompt))

	var out ollamaResponse
	err := c.doRequest(ctx, "/api/generate", ollamaRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: c.options,
	}, &out)
	if err != nil {
		c.log.ErrorContext(ctx, "Ollama API call failed", "error", err)
		return "", classify(ctx, c.Name(), err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: ollama: %s", apperr.ErrBackendError, out.Error)
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", fmt.Errorf("%w: ollama returned an empty response", apperr.ErrBackendError)
	}
	return out.Response, nil
}

// doRequest posts body as JSON and decodes a 200 answer into response.
func (c *ollamaClient) doRequest(ctx context.Context, path string, body, response any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: ollama API status %d: %s", apperr.ErrBackendError, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return fmt.Errorf("%w: failed to decode ollama response: %v", apperr.ErrBackendError, err)
	}
	return nil
}
