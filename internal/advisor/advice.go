package advisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"ffmpeg-architect/internal/domain"
)

// FallbackCommand is the safe command returned when no advice is available.
const FallbackCommand = "ffmpeg -i input.mp4 output.mp4"

// FallbackCategory tags degraded advice.
const FallbackCategory = "Error"

// Reason names why advice could not be produced.
type Reason string

const (
	ReasonMissingKey  Reason = "missing_key"
	ReasonUnreachable Reason = "unreachable"
	ReasonBadResponse Reason = "bad_response"
	ReasonNoModel     Reason = "no_model"
)

var fallbackLocales = []language.Tag{language.English, language.TraditionalChinese}

var fallbackMatcher = language.NewMatcher(fallbackLocales)

var fallbackText = map[language.Tag]map[Reason]string{
	language.English: {
		ReasonMissingKey:  "Gemini API key is missing. Set gemini_api_key in config.toml or GEMINI_API_KEY.",
		ReasonUnreachable: "Could not reach the AI service. Please try again later.",
		ReasonBadResponse: "The AI service returned a response that could not be parsed.",
		ReasonNoModel:     "No Ollama model selected. Choose a model and try again.",
	},
	language.TraditionalChinese: {
		ReasonMissingKey:  "缺少 Gemini API 金鑰，請在 config.toml 設定 gemini_api_key 或 GEMINI_API_KEY。",
		ReasonUnreachable: "無法連線至 AI 服務。請稍後再試。",
		ReasonBadResponse: "無法解析 AI 服務的回應。",
		ReasonNoModel:     "尚未選擇 Ollama 模型，請選擇模型後再試。",
	},
}

// Fallback returns renderable advice describing why the backend failed.
func Fallback(reason Reason, locale string) domain.AIAdvice {
	texts := fallbackText[language.English]
	if desired, err := language.Parse(strings.TrimSpace(locale)); err == nil {
		if _, index, confidence := fallbackMatcher.Match(desired); confidence != language.No {
			texts = fallbackText[fallbackLocales[index]]
		}
	}
	explanation, ok := texts[reason]
	if !ok {
		explanation = texts[ReasonUnreachable]
	}
	return domain.AIAdvice{
		Command:       FallbackCommand,
		Explanation:   explanation,
		KeyCategories: []string{FallbackCategory},
	}
}

// IsFallback reports whether advice is a degraded placeholder.
func IsFallback(advice domain.AIAdvice) bool {
	return len(advice.KeyCategories) == 1 && advice.KeyCategories[0] == FallbackCategory && advice.Command == FallbackCommand
}

// DecodeAdvice parses model output, tolerating Markdown code fences.
func DecodeAdvice(text string) (domain.AIAdvice, error) {
	var advice domain.AIAdvice
	cleaned := stripCodeFence(text)
	if cleaned == "" {
		return advice, errors.New("decode advice: empty content")
	}
	if err := json.Unmarshal([]byte(cleaned), &advice); err != nil {
		return advice, fmt.Errorf("decode advice: %w", err)
	}
	advice.Command = strings.TrimSpace(advice.Command)
	if advice.Command == "" {
		return advice, errors.New("decode advice: command missing")
	}
	if advice.KeyCategories == nil {
		advice.KeyCategories = []string{}
	}
	if string(advice.SuggestedState) == "null" {
		advice.SuggestedState = nil
	}
	return advice, nil
}

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		trimmed = trimmed[newline+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
