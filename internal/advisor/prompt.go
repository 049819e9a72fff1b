package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"ffmpeg-architect/internal/domain"
)

const promptTemplate = `You are the "FFmpeg Command Architect", an expert in media processing.
The user wants to perform a task. Provide the best FFmpeg command and explain it.

CURRENT STATE:
%s

RULES:
1. Always return a valid JSON object.
2. The JSON must have these fields:
   - command: the full FFmpeg command string.
   - explanation: a concise explanation of what the flags do.
   - keyCategories: array of categories such as "Video", "Filter", "Speed".
   - suggestedState: (optional) a partial state object using the CURRENT STATE field names, merged into the current state.
3. Prefer modern codecs (H.264/H.265) unless otherwise specified.
4. Language: write the explanation in %s.

EXAMPLE OUTPUT:
{
  "command": "ffmpeg -i input.mp4 -vf scale=1280:720 -c:v libx264 -crf 23 output.mp4",
  "explanation": "Scales to 720p with the scale filter and encodes with libx264 at CRF 23.",
  "keyCategories": ["Scaling", "Encoding"],
  "suggestedState": {"videoFilters": "scale=1280:720", "videoCodec": "libx264"}
}

User Request: %s`

// BuildPrompt renders the instruction text sent to either backend.
func BuildPrompt(request string, cfg domain.Configuration) string {
	state, err := json.MarshalIndent(cfg.Normalize(), "", "  ")
	if err != nil {
		state = []byte("{}")
	}
	return fmt.Sprintf(promptTemplate, state, explanationLanguage(cfg.Language), strings.TrimSpace(request))
}

func explanationLanguage(locale string) string {
	if strings.HasPrefix(strings.ToLower(locale), "zh") {
		return "Traditional Chinese (zh-TW)"
	}
	return "English"
}
