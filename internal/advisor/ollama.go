package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"

	"ffmpeg-architect/internal/domain"
)

// ErrNoModel is returned when generation is requested without a model.
var ErrNoModel = errors.New("ollama model required")

// OllamaClient talks to any Ollama server given per call.
type OllamaClient struct {
	httpClient *http.Client
}

// NewOllamaClient constructs a client with the given request timeout.
func NewOllamaClient(timeoutSeconds int, opts ...Option) *OllamaClient {
	return &OllamaClient{httpClient: newHTTPClient(timeoutSeconds, opts)}
}

type ollamaTagsResponse struct {
	Models []domain.OllamaModel `json:"models"`
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// ListModels returns the models installed on server.
func (c *OllamaClient) ListModels(ctx context.Context, server string) ([]domain.OllamaModel, error) {
	endpoint, err := ollamaEndpoint(server, "api/tags")
	if err != nil {
		return nil, err
	}
	body, err := getJSON(ctx, c.httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("ollama list models: %w", err)
	}
	var parsed ollamaTagsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("ollama list models: decode response: %w", err)
	}
	models := lo.Filter(parsed.Models, func(m domain.OllamaModel, _ int) bool {
		return strings.TrimSpace(m.Name) != ""
	})
	return models, nil
}

// Generate runs a non-streaming JSON completion on server.
func (c *OllamaClient) Generate(ctx context.Context, server, model, prompt string) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", ErrNoModel
	}
	endpoint, err := ollamaEndpoint(server, "api/generate")
	if err != nil {
		return "", err
	}
	body, err := postJSON(ctx, c.httpClient, endpoint, ollamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	var parsed ollamaGenerateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("ollama generate: decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama generate: %s", parsed.Error)
	}
	return parsed.Response, nil
}

// ParseServers splits the comma-separated ollamaServers setting.
func ParseServers(value string) []string {
	servers := lo.Map(strings.Split(value, ","), func(s string, _ int) string {
		return strings.TrimRight(strings.TrimSpace(s), "/")
	})
	return lo.Uniq(lo.Compact(servers))
}

func ollamaEndpoint(server, path string) (string, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		server = domain.DefaultOllamaServer
	}
	endpoint, err := url.JoinPath(server, path)
	if err != nil {
		return "", fmt.Errorf("ollama: build url: %w", err)
	}
	return endpoint, nil
}
