// Package gemini provides a textgen.Generator backed by the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/globemate/globemate/internal/provider/resilience"
	"github.com/globemate/globemate/internal/textgen"
)

const (
	// ProviderName identifies this provider in the registry and in logs.
	ProviderName = "gemini"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemini-1.5-flash"

	// DefaultTemperature keeps labelled output stable across identical prompts.
	DefaultTemperature = 0.2
)

// ContentGenerator is the subset of *genai.Models used by the client.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ClientConfig holds configuration for the Gemini client.
type ClientConfig struct {
	// APIKey is the Gemini API key. Required unless Models is set.
	APIKey string

	// Model is the model identifier (optional, defaults to DefaultModel).
	Model string

	// Temperature is the sampling temperature (optional, defaults to DefaultTemperature).
	Temperature float32

	// Timeout bounds a single attempt (optional, defaults to 10s).
	Timeout time.Duration

	// MaxRetries is the retry budget for transient failures (optional, defaults to 3).
	MaxRetries uint64

	// Models overrides the SDK model service, mainly for tests.
	Models ContentGenerator

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client generates text with a fixed model through a resilient executor.
type Client struct {
	models      ContentGenerator
	model       string
	temperature float32
	executor    *resilience.Executor[string]
	logger      zerolog.Logger
}

var _ textgen.Generator = (*Client)(nil)

// NewClient creates a Gemini client. The SDK client is created once and reused.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	models := cfg.Models
	if models == nil {
		if cfg.APIKey == "" {
			return nil, errors.New("gemini: API key is required")
		}
		sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		models = sdk.Models
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	execCfg := resilience.DefaultClientConfig(ProviderName)
	if cfg.Timeout > 0 {
		execCfg.Timeout = cfg.Timeout
	}
	if cfg.MaxRetries > 0 {
		execCfg.MaxRetries = cfg.MaxRetries
	}
	execCfg.Registry = cfg.Registry
	execCfg.Retryable = isRetryable

	return &Client{
		models:      models,
		model:       model,
		temperature: temperature,
		executor:    resilience.NewExecutor[string](execCfg),
		logger:      cfg.Logger,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Generate sends prompt to the model and returns the concatenated text of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](c.temperature),
	}

	text, err := c.executor.Execute(ctx, func(ctx context.Context) (string, error) {
		resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
		if err != nil {
			return "", err
		}
		return extractText(resp)
	})
	if err != nil {
		c.logger.Warn().Err(err).
			Str("model", c.model).
			Dur("duration", time.Since(start)).
			Msg("text generation failed")
		return "", err
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("prompt_length", len(prompt)).
		Int("response_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("text generated")

	return text, nil
}

// extractText joins the text parts of the first candidate that has content.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", textgen.ErrEmptyResponse
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			return text, nil
		}
	}
	return "", textgen.ErrEmptyResponse
}

// isRetryable treats quota, server and deadline failures as transient. API errors are
// classified by their HTTP code; errors without one are transport failures.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, textgen.ErrEmptyResponse) {
		return true
	}
	if code, ok := apiErrorCode(err); ok {
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	return true
}

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
