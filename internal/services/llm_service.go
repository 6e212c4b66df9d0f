package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/justsurfingit/Auto-Apply-Agent/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// TextGenerator is the only thing the cover letter code needs from a model.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type LLMService struct {
	Client  llms.Model
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// NewLLMService builds the provider client selected in config.
func NewLLMService(ctx context.Context, cfg *config.Config) (*LLMService, error) {
	var (
		client llms.Model
		err    error
	)

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		}
		if cfg.LLMBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.LLMBaseURL))
		}
		client, err = openai.New(opts...)
	default:
		client, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.GeminiAPIKey),
			googleai.WithDefaultModel(cfg.LLMModel),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.LLMProvider, err)
	}

	log.Printf("LLM provider %s ready (model %s)", cfg.LLMProvider, cfg.LLMModel)
	return NewLLMServiceWithClient(client, cfg.LLMTimeout, cfg.LLMRetries), nil
}

func NewLLMServiceWithClient(client llms.Model, timeout time.Duration, retries int) *LLMService {
	if retries < 1 {
		retries = 1
	}
	return &LLMService{Client: client, Timeout: timeout, Retries: retries, Backoff: time.Second}
}

// GenerateText sends one prompt and returns the model's text. Each attempt is
// bounded by Timeout; a timed out attempt counts as a failure.
func (s *LLMService) GenerateText(ctx context.Context, prompt string) (string, error) {
	var text string
	err := retry(ctx, s.Retries, s.Backoff, func() error {
		attemptCtx := ctx
		if s.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, s.Timeout)
			defer cancel()
		}

		resp, err := llms.GenerateFromSinglePrompt(attemptCtx, s.Client, prompt)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("text generation timed out after %v: %w", s.Timeout, err)
			}
			return err
		}
		text = resp
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
