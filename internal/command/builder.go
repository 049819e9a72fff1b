package command

import (
	"regexp"
	"strings"

	"ffmpeg-architect/internal/domain"
)

// Program is the executable name shown in previews and stripped from
// override commands.
const Program = "ffmpeg"

// PlaceholderInput keeps the preview syntactically complete before the user
// picks a file.
const PlaceholderInput = "input.mp4"

var leadingProgram = regexp.MustCompile(`^\s*ffmpeg\s+`)

// BuildArgs maps a configuration to ffmpeg's argument vector. Order matters
// to ffmpeg and is fixed here; the output path is always the last token.
func BuildArgs(cfg domain.Configuration) []string {
	if cfg.AIOverride && cfg.AICommand != "" {
		return overrideArgs(cfg.AICommand)
	}

	var args []string

	if cfg.LogLevel != "" && cfg.LogLevel != domain.LogLevelInfo {
		args = append(args, "-v", string(cfg.LogLevel))
	}
	switch cfg.Overwrite {
	case domain.OverwriteYes:
		args = append(args, "-y")
	case domain.OverwriteNo:
		args = append(args, "-n")
	}
	if cfg.Stats {
		args = append(args, "-stats")
	}

	// input-side seek
	if cfg.StartTime != "" {
		args = append(args, "-ss", cfg.StartTime)
	}

	if len(cfg.InputFiles) == 0 {
		args = append(args, "-i", PlaceholderInput)
	}
	for _, file := range cfg.InputFiles {
		if file == "" {
			file = PlaceholderInput
		}
		args = append(args, "-i", file)
	}

	args = appendIf(args, "-t", cfg.Duration)
	args = appendIf(args, "-to", cfg.StopTime)
	args = appendIf(args, "-f", cfg.Format)

	args = appendVideo(args, cfg)
	args = appendAudio(args, cfg)

	if cfg.DisableSubtitle {
		args = append(args, "-sn")
	} else {
		args = appendIf(args, "-c:s", cfg.SubtitleCodec)
	}

	for _, entry := range cfg.Metadata {
		args = append(args, "-metadata", entry.Key+"="+entry.Value)
	}

	args = append(args, SplitCustomArgs(cfg.CustomArgs)...)

	return append(args, cfg.OutputFile)
}

// appendVideo emits -vn or the video stream options.
func appendVideo(args []string, cfg domain.Configuration) []string {
	if cfg.DisableVideo {
		return append(args, "-vn")
	}
	args = appendIf(args, "-c:v", cfg.VideoCodec)
	args = appendIf(args, "-b:v", cfg.VideoBitrate)
	args = appendIf(args, "-r", cfg.FrameRate)
	args = appendIf(args, "-aspect", cfg.AspectRatio)
	return appendIf(args, "-vf", cfg.VideoFilters)
}

// appendAudio emits -an or the audio stream options.
func appendAudio(args []string, cfg domain.Configuration) []string {
	if cfg.DisableAudio {
		return append(args, "-an")
	}
	args = appendIf(args, "-c:a", cfg.AudioCodec)
	args = appendIf(args, "-b:a", cfg.AudioBitrate)
	args = appendIf(args, "-ar", cfg.SampleRate)
	args = appendIf(args, "-ac", cfg.Channels)
	return appendIf(args, "-af", cfg.AudioFilters)
}

func appendIf(args []string, flag, value string) []string {
	if value == "" {
		return args
	}
	return append(args, flag, value)
}

// overrideArgs strips a leading program name and splits on whitespace.
func overrideArgs(command string) []string {
	rest := leadingProgram.ReplaceAllString(command, "")
	return strings.Fields(rest)
}

// SplitCustomArgs tokenizes the free-form trailing arguments on whitespace.
// Quotes are not interpreted.
func SplitCustomArgs(raw string) []string {
	return strings.Fields(raw)
}

// Display renders the configuration as a copy-pasteable command line.
func Display(cfg domain.Configuration) string {
	return FormatCommand(BuildArgs(cfg))
}

// FormatCommand quotes tokens for display and prefixes the program name.
func FormatCommand(args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, Program)
	for _, arg := range args {
		parts = append(parts, Quote(arg))
	}
	return strings.Join(parts, " ")
}

// Quote wraps tokens that contain whitespace or quotes, or are empty, in
// double quotes with embedded double quotes escaped.
func Quote(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\n\r\"'") {
		return arg
	}
	return `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
}
