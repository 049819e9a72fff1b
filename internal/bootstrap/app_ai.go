package bootstrap

import (
	"context"

	"ffmpeg-architect/internal/domain"
)

// AskAI requests advice for prompt from the configured backend and keeps it
// pending for ApplyAIAdvice. Backend failures yield fallback advice.
func (a *App) AskAI(prompt string) (domain.AIAdvice, error) {
	advice, err := a.Advisor.Ask(context.Background(), prompt, a.Session.State())
	if err != nil {
		return domain.AIAdvice{}, err
	}
	a.Session.SetAdvice(advice)
	return advice, nil
}

// ApplyAIAdvice applies the pending advice; see session.ApplyAdvice.
func (a *App) ApplyAIAdvice(fullOverride bool) (StateView, error) {
	before := a.Session.State()
	if _, err := a.Session.ApplyAdvice(fullOverride); err != nil {
		return a.GetState(), err
	}
	return a.committed(before), nil
}

// GetOllamaModels lists models on the configured Ollama server.
func (a *App) GetOllamaModels() []domain.OllamaModel {
	return a.Advisor.ListModels(context.Background(), a.Session.State().OllamaServer)
}
