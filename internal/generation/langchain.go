package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/edgard/threadwise/internal/apperr"
	"github.com/edgard/threadwise/internal/config"
)

// langChainClient serves the hosted backends reached through langchaingo.
type langChainClient struct {
	llm     llms.Model
	backend string
	model   string
	timeout time.Duration
	callOps []llms.CallOption
	log     *slog.Logger
}

// NewLangChain creates an OpenAI-compatible or Anthropic client.
func NewLangChain(cfg config.GenerationConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key is required", apperr.ErrConfiguration, cfg.Backend)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: %s model is required", apperr.ErrConfiguration, cfg.Backend)
	}

	var (
		model llms.Model
		err   error
	)
	switch cfg.Backend {
	case config.BackendOpenAI:
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	case config.BackendAnthropic:
		opts := []anthropic.Option{
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		model, err = anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("%w: backend %q is not served by langchaingo", apperr.ErrConfiguration, cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: create %s model: %v", apperr.ErrConfiguration, cfg.Backend, err)
	}

	callOps := []llms.CallOption{llms.WithTemperature(float64(cfg.Temperature))}
	if cfg.MaxTokens > 0 {
		callOps = append(callOps, llms.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.TopP > 0 {
		callOps = append(callOps, llms.WithTopP(float64(cfg.TopP)))
	}

	logger := log.With("component", cfg.Backend+"_client")
	logger.Info("Generation client initialized", "backend", cfg.Backend, "model", cfg.Model)
	return &langChainClient{
		llm:     model,
		backend: cfg.Backend,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		callOps: callOps,
		log:     logger,
	}, nil
}

func (c *langChainClient) Name() string { return c.backend }

func (c *langChainClient) Generate(ctx context.Context, prompt string) (string, error) {
	c.log.DebugContext(ctx, "Generating content", "model", c.model, "prompt_length", len(prompt))

	callCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	text, err := llms.GenerateFromSinglePrompt(callCtx, c.llm, prompt, c.callOps...)
	if err != nil {
		c.log.ErrorContext(ctx, "Generation call failed", "backend", c.backend, "error", err)
		return "", classify(ctx, c.backend, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s returned empty text", apperr.ErrBackendError, c.backend)
	}
	return text, nil
}
