package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"github.com/samber/lo"
)

// Mode gates which fields the UI exposes; it never changes command output.
type Mode string

const (
	ModeSimple       Mode = "simple"
	ModeProfessional Mode = "professional"
)

// LogLevel is the value passed to ffmpeg's -v flag.
type LogLevel string

const (
	LogLevelQuiet   LogLevel = "quiet"
	LogLevelPanic   LogLevel = "panic"
	LogLevelFatal   LogLevel = "fatal"
	LogLevelError   LogLevel = "error"
	LogLevelWarning LogLevel = "warning"
	LogLevelInfo    LogLevel = "info"
	LogLevelVerbose LogLevel = "verbose"
	LogLevelDebug   LogLevel = "debug"
	LogLevelTrace   LogLevel = "trace"
)

// Overwrite selects between -y, -n, or letting ffmpeg ask.
type Overwrite string

const (
	OverwriteAsk Overwrite = ""
	OverwriteYes Overwrite = "y"
	OverwriteNo  Overwrite = "n"
)

// AISource names the advisory backend used for prompts.
type AISource string

const (
	AISourceGemini AISource = "gemini"
	AISourceOllama AISource = "ollama"
)

const (
	DefaultOutputFile   = "output.mp4"
	DefaultOllamaServer = "http://127.0.0.1:11434"
	DefaultLanguage     = "en"
)

// Configuration is one immutable snapshot of the desired ffmpeg invocation.
type Configuration struct {
	Mode       Mode     `json:"mode" yaml:"mode"`
	InputFiles []string `json:"inputFiles" yaml:"inputFiles"`
	OutputFile string   `json:"outputFile" yaml:"outputFile"`

	LogLevel  LogLevel  `json:"logLevel" yaml:"logLevel"`
	Overwrite Overwrite `json:"overwrite" yaml:"overwrite"`
	Stats     bool      `json:"stats" yaml:"stats"`

	StartTime string `json:"startTime" yaml:"startTime"`
	StopTime  string `json:"stopTime" yaml:"stopTime"`
	Duration  string `json:"duration" yaml:"duration"`
	Format    string `json:"format" yaml:"format"`

	DisableVideo bool   `json:"disableVideo" yaml:"disableVideo"`
	VideoCodec   string `json:"videoCodec" yaml:"videoCodec"`
	VideoBitrate string `json:"videoBitrate" yaml:"videoBitrate"`
	FrameRate    string `json:"frameRate" yaml:"frameRate"`
	AspectRatio  string `json:"aspectRatio" yaml:"aspectRatio"`
	VideoFilters string `json:"videoFilters" yaml:"videoFilters"`

	DisableAudio bool   `json:"disableAudio" yaml:"disableAudio"`
	AudioCodec   string `json:"audioCodec" yaml:"audioCodec"`
	AudioBitrate string `json:"audioBitrate" yaml:"audioBitrate"`
	SampleRate   string `json:"sampleRate" yaml:"sampleRate"`
	Channels     string `json:"channels" yaml:"channels"`
	AudioFilters string `json:"audioFilters" yaml:"audioFilters"`

	DisableSubtitle bool   `json:"disableSubtitle" yaml:"disableSubtitle"`
	SubtitleCodec   string `json:"subtitleCodec" yaml:"subtitleCodec"`

	Metadata   Metadata `json:"metadata" yaml:"metadata"`
	CustomArgs string   `json:"customArgs" yaml:"customArgs"`

	// Parallel means "continue on error" for batches; runs stay sequential.
	Parallel bool `json:"parallel" yaml:"parallel"`

	AIOverride   bool     `json:"aiOverride" yaml:"aiOverride"`
	AICommand    string   `json:"aiCommand" yaml:"aiCommand"`
	AISource     AISource `json:"aiSource" yaml:"aiSource"`
	OllamaServer string   `json:"ollamaServer" yaml:"ollamaServer"`
	OllamaModel  string   `json:"ollamaModel" yaml:"ollamaModel"`

	Language string `json:"language" yaml:"language"`
}

// DefaultConfiguration returns the initial state with every field populated.
func DefaultConfiguration() Configuration {
	return Configuration{
		Mode:         ModeSimple,
		InputFiles:   []string{},
		OutputFile:   DefaultOutputFile,
		LogLevel:     LogLevelInfo,
		Overwrite:    OverwriteAsk,
		Metadata:     Metadata{},
		AISource:     AISourceGemini,
		OllamaServer: DefaultOllamaServer,
		Language:     DefaultLanguage,
	}
}

// ContinueOnError reports whether a failed batch item should not stop the batch.
func (c Configuration) ContinueOnError() bool {
	return c.Parallel
}

// Clone returns a deep copy so snapshots never share backing arrays.
func (c Configuration) Clone() Configuration {
	out := c
	out.InputFiles = slices.Clone(c.InputFiles)
	out.Metadata = slices.Clone(c.Metadata)
	return out
}

// Normalize treats empty values of defaulted fields as unset.
func (c Configuration) Normalize() Configuration {
	out := c.Clone()
	if out.InputFiles == nil {
		out.InputFiles = []string{}
	}
	if out.Metadata == nil {
		out.Metadata = Metadata{}
	}
	if out.Mode == "" {
		out.Mode = ModeSimple
	}
	if out.LogLevel == "" {
		out.LogLevel = LogLevelInfo
	}
	if out.AISource == "" {
		out.AISource = AISourceGemini
	}
	if out.Language == "" {
		out.Language = DefaultLanguage
	}
	return out
}

// Equal compares two configurations after normalization.
func (c Configuration) Equal(other Configuration) bool {
	return reflect.DeepEqual(c.Normalize(), other.Normalize())
}

// MarshalDocument encodes the configuration as a JSON key-value document.
func (c Configuration) MarshalDocument() ([]byte, error) {
	return json.Marshal(c.Normalize())
}

// ParseDocument decodes a JSON document over the defaults; absent keys keep
// their default value.
func ParseDocument(data []byte) (Configuration, error) {
	cfg := DefaultConfiguration()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, fmt.Errorf("decode configuration: %w", err)
	}
	return cfg.Normalize(), nil
}

// MergePatch applies a partial JSON document on top of c and returns the
// resulting snapshot. c is left untouched.
func (c Configuration) MergePatch(patch []byte) (Configuration, error) {
	out := c.Clone()
	if len(patch) == 0 {
		return out.Normalize(), nil
	}
	if err := json.Unmarshal(patch, &out); err != nil {
		return Configuration{}, fmt.Errorf("apply configuration patch: %w", err)
	}
	return out.Normalize(), nil
}

// NonEmptyInputs returns input entries that name a file, in order.
func (c Configuration) NonEmptyInputs() []string {
	return lo.Compact(c.InputFiles)
}
