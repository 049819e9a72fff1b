package domain

// ProgressSnapshot is the live view of a running ffmpeg invocation. Fields are
// merged chunk by chunk, so any of them may lag the others.
type ProgressSnapshot struct {
	Frame   int64   `json:"frame,omitempty"`
	FPS     float64 `json:"fps,omitempty"`
	Time    string  `json:"time,omitempty"`
	Bitrate string  `json:"bitrate,omitempty"`
	Speed   string  `json:"speed,omitempty"`
	Percent int     `json:"percent"`
}
