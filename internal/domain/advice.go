package domain

import "encoding/json"

// AIAdvice is what the advisory collaborator proposes for a prompt.
type AIAdvice struct {
	Command        string          `json:"command"`
	Explanation    string          `json:"explanation"`
	KeyCategories  []string        `json:"keyCategories"`
	SuggestedState json.RawMessage `json:"suggestedState,omitempty"`
}

// OllamaModel is one entry of an Ollama server's model list.
type OllamaModel struct {
	Name       string `json:"name"`
	Size       int64  `json:"size,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
}
