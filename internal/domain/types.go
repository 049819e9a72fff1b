package domain

import "time"

// RunStatus tracks the lifecycle of one execute action.
type RunStatus string

const (
	RunStatusIdle      RunStatus = "idle"
	RunStatusRunning   RunStatus = "running"
	RunStatusSuccess   RunStatus = "success"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run stores the current run identity, lifecycle status, and live progress.
type Run struct {
	ID         string           `json:"id"`
	Status     RunStatus        `json:"status"`
	Cancelling bool             `json:"cancelling,omitempty"`
	Progress   ProgressSnapshot `json:"progress"`
	Error      string           `json:"error,omitempty"`
}

// RecordStatus is the persisted outcome of one external-tool invocation.
type RecordStatus string

const (
	RecordStatusSuccess RecordStatus = "success"
	RecordStatusFailed  RecordStatus = "failed"
)

// RunRecord is one row of run history. Records are never mutated.
type RunRecord struct {
	ID        int64        `json:"id"`
	RunID     string       `json:"runId,omitempty"`
	Command   string       `json:"command"`
	Status    RecordStatus `json:"status"`
	Stderr    string       `json:"stderr"`
	Timestamp time.Time    `json:"timestamp"`
}

// Preset is a named, saved configuration document.
type Preset struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	ConfigJSON string    `json:"config_json"`
	CreatedAt  time.Time `json:"created_at"`
}

// SettingRow is one runtime key-value setting.
type SettingRow struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Runtime setting keys stored in the record store.
const (
	SettingFFmpegPath    = "ffmpegPath"
	SettingFFprobePath   = "ffprobePath"
	SettingOllamaServers = "ollamaServers"
	SettingAISource      = "aiSource"
	SettingOllamaServer  = "ollamaServer"
	SettingOllamaModel   = "ollamaModel"
)

// Settings contains bootstrap configuration read from the settings file.
type Settings struct {
	DataDir               string `json:"dataDir" toml:"data_dir"`
	LogLevel              string `json:"logLevel" toml:"log_level"`
	Language              string `json:"language" toml:"language"`
	GeminiAPIKey          string `json:"geminiApiKey" toml:"gemini_api_key"`
	GeminiModel           string `json:"geminiModel" toml:"gemini_model"`
	GeminiBaseURL         string `json:"geminiBaseUrl" toml:"gemini_base_url"`
	RequestTimeoutSeconds int    `json:"requestTimeoutSeconds" toml:"request_timeout_seconds"`
}
