package command

import "ffmpeg-architect/internal/domain"

// CopyCodec is the stream-copy codec value; filters cannot apply to it.
const CopyCodec = "copy"

// Warning messages returned by Validate.
const (
	WarnNoInput           = "No input file specified."
	WarnVideoFiltersCopy  = `Video filters (-vf) will be ignored when using "copy" codec.`
	WarnAudioFiltersCopy  = `Audio filters (-af) will be ignored when using "copy" codec.`
	WarnDurationAndStopTo = "Both duration (-t) and stop time (-to) are specified. FFmpeg might prioritize -t."
)

// check inspects one configuration and returns a warning, or "" when fine.
type check func(domain.Configuration) string

// checks run in this order; append new ones at the end so warning order
// stays stable for consumers.
var checks = []check{
	checkInput,
	checkVideoCopyFilters,
	checkAudioCopyFilters,
	checkTrimBounds,
}

// Validate returns advisory warnings for conflicting or ineffective options.
// It never blocks execution.
func Validate(cfg domain.Configuration) []string {
	warnings := []string{}
	for _, c := range checks {
		if msg := c(cfg); msg != "" {
			warnings = append(warnings, msg)
		}
	}
	return warnings
}

func checkInput(cfg domain.Configuration) string {
	if len(cfg.InputFiles) == 0 || cfg.InputFiles[0] == "" {
		return WarnNoInput
	}
	return ""
}

func checkVideoCopyFilters(cfg domain.Configuration) string {
	if cfg.VideoCodec == CopyCodec && cfg.VideoFilters != "" {
		return WarnVideoFiltersCopy
	}
	return ""
}

func checkAudioCopyFilters(cfg domain.Configuration) string {
	if cfg.AudioCodec == CopyCodec && cfg.AudioFilters != "" {
		return WarnAudioFiltersCopy
	}
	return ""
}

func checkTrimBounds(cfg domain.Configuration) string {
	if cfg.Duration != "" && cfg.StopTime != "" {
		return WarnDurationAndStopTo
	}
	return ""
}
