package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/threadwise/internal/apperr"
	"github.com/edgard/threadwise/internal/config"
)

type geminiClient struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	timeout       time.Duration
}

// NewGemini creates a client for Google's Gemini API.
func NewGemini(ctx context.Context, cfg config.GenerationConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is required", apperr.ErrConfiguration)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: gemini model is required", apperr.ErrConfiguration)
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	baseCfg := &genai.GenerateContentConfig{
		Temperature: &temperature,

		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
		},
	}
	if cfg.TopP > 0 {
		topP := cfg.TopP
		baseCfg.TopP = &topP
	}
	if cfg.TopK > 0 {
		topK := float32(cfg.TopK)
		baseCfg.TopK = &topK
	}
	if cfg.MaxTokens > 0 {
		baseCfg.MaxOutputTokens = int32(cfg.MaxTokens)
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.Model)
	return &geminiClient{
		genaiClient:   gi,
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.Model,
		timeout:       cfg.Timeout,
	}, nil
}

func (c *geminiClient) Name() string { return config.BackendGemini }

func (c *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	c.log.DebugContext(ctx, "Generating content", "model", c.modelName, "prompt_length", len(prompt))

	callCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.genaiClient.Models.GenerateContent(callCtx, c.modelName, contents, c.contentConfig)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini API call failed", "error", err)
		return "", classify(ctx, c.Name(), apiError(err))
	}

	return c.extractText(ctx, resp)
}

// apiError tags any status-bearing API response as a backend error.
func apiError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: gemini API error %d: %v", apperr.ErrBackendError, apiErr.Code, err)
	}
	return err
}

func (c *geminiClient) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: gemini returned no response", apperr.ErrBackendError)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reasonMsg)
		return "", fmt.Errorf("%w: gemini blocked by safety filter: %s", apperr.ErrBackendError, reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("%w: gemini returned no content, finish reason: %s", apperr.ErrBackendError, finishReason)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned empty text", apperr.ErrBackendError)
	}
	return text, nil
}
