package advisor

import (
	"context"
	"errors"
	"strings"

	"github.com/hashicorp/go-hclog"

	"ffmpeg-architect/internal/domain"
)

// ErrEmptyPrompt is returned when Ask is called without a request.
var ErrEmptyPrompt = errors.New("prompt is required")

// Service routes prompts to the backend the configuration selects.
type Service struct {
	gemini *GeminiClient
	ollama *OllamaClient
	logger hclog.Logger
}

// NewService wires both backends.
func NewService(gemini *GeminiClient, ollama *OllamaClient, logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{gemini: gemini, ollama: ollama, logger: logger}
}

// Ask returns advice for request. Backend failures never surface as errors;
// they produce Fallback advice instead.
func (s *Service) Ask(ctx context.Context, request string, cfg domain.Configuration) (domain.AIAdvice, error) {
	if strings.TrimSpace(request) == "" {
		return domain.AIAdvice{}, ErrEmptyPrompt
	}
	prompt := BuildPrompt(request, cfg)

	var (
		text string
		err  error
	)
	switch cfg.AISource {
	case domain.AISourceOllama:
		text, err = s.ollama.Generate(ctx, cfg.OllamaServer, cfg.OllamaModel, prompt)
	default:
		text, err = s.gemini.Generate(ctx, prompt)
	}
	if err != nil {
		s.logger.Warn("advisor request failed", "source", cfg.AISource, "error", err)
		return Fallback(reasonFor(err), cfg.Language), nil
	}

	advice, err := DecodeAdvice(text)
	if err != nil {
		s.logger.Warn("advisor response not decodable", "source", cfg.AISource, "error", err)
		return Fallback(ReasonBadResponse, cfg.Language), nil
	}
	return advice, nil
}

// ListModels returns models on server, or an empty list when unreachable.
func (s *Service) ListModels(ctx context.Context, server string) []domain.OllamaModel {
	models, err := s.ollama.ListModels(ctx, server)
	if err != nil {
		s.logger.Debug("ollama model listing failed", "server", server, "error", err)
		return []domain.OllamaModel{}
	}
	return models
}

func reasonFor(err error) Reason {
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return ReasonMissingKey
	case errors.Is(err, ErrNoModel):
		return ReasonNoModel
	default:
		return ReasonUnreachable
	}
}
