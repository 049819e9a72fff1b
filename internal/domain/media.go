package domain

import "strconv"

// ProbeStream is one stream reported by ffprobe.
type ProbeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	SampleRate string `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

// ProbeFormat is the container section reported by ffprobe.
type ProbeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// ProbeResult holds the documented subset of ffprobe output. Extra fields
// in the tool's JSON are ignored.
type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

// DurationSeconds returns the container duration, or 0 when unknown.
func (p *ProbeResult) DurationSeconds() float64 {
	if p == nil || p.Format.Duration == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(p.Format.Duration, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}

// FirstStream returns the first stream of codecType.
func (p *ProbeResult) FirstStream(codecType string) (ProbeStream, bool) {
	if p == nil {
		return ProbeStream{}, false
	}
	for _, stream := range p.Streams {
		if stream.CodecType == codecType {
			return stream, true
		}
	}
	return ProbeStream{}, false
}

// Capabilities maps hardware encoder families to availability.
type Capabilities map[string]bool
