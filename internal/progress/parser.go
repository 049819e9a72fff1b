package progress

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"ffmpeg-architect/internal/domain"
)

var (
	timeRe    = regexp.MustCompile(`time=(\d{2}:\d{2}:\d{2}\.\d{2})`)
	frameRe   = regexp.MustCompile(`frame=\s*(\d+)`)
	fpsRe     = regexp.MustCompile(`fps=\s*([\d.]+)`)
	bitrateRe = regexp.MustCompile(`bitrate=\s*([\d.kmbits/]+)`)
	speedRe   = regexp.MustCompile(`speed=\s*([\d.x]+)`)
)

// Parse extracts progress from one chunk of ffmpeg stderr. It reports false
// when the chunk has no time= stamp; callers must keep their prior state
// in that case. totalSeconds <= 0 leaves Percent at zero.
func Parse(chunk string, totalSeconds float64) (domain.ProgressSnapshot, bool) {
	m := timeRe.FindStringSubmatch(chunk)
	if m == nil {
		return domain.ProgressSnapshot{}, false
	}

	snap := domain.ProgressSnapshot{Time: m[1]}
	if totalSeconds > 0 {
		snap.Percent = Percent(TimestampSeconds(m[1]), totalSeconds)
	}

	if m := frameRe.FindStringSubmatch(chunk); m != nil {
		if frame, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			snap.Frame = frame
		}
	}
	if m := fpsRe.FindStringSubmatch(chunk); m != nil {
		if fps, err := strconv.ParseFloat(m[1], 64); err == nil {
			snap.FPS = fps
		}
	}
	if m := bitrateRe.FindStringSubmatch(chunk); m != nil {
		snap.Bitrate = m[1]
	}
	if m := speedRe.FindStringSubmatch(chunk); m != nil {
		snap.Speed = m[1]
	}
	return snap, true
}

// Percent returns current/total as a rounded percentage clamped to [0, 100].
func Percent(current, total float64) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(current / total * 100))
	return max(0, min(100, p))
}

// TimestampSeconds converts HH:MM:SS.ff to seconds; malformed input is 0.
func TimestampSeconds(ts string) float64 {
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0
	}
	var total float64
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0
		}
		total = total*60 + v
	}
	return total
}

// Merge folds a partial snapshot into prev, last value wins for every
// field the update carries.
func Merge(prev, update domain.ProgressSnapshot) domain.ProgressSnapshot {
	out := prev
	if update.Time != "" {
		out.Time = update.Time
	}
	if update.Frame != 0 {
		out.Frame = update.Frame
	}
	if update.FPS != 0 {
		out.FPS = update.FPS
	}
	if update.Bitrate != "" {
		out.Bitrate = update.Bitrate
	}
	if update.Speed != "" {
		out.Speed = update.Speed
	}
	if update.Percent != 0 {
		out.Percent = update.Percent
	}
	return out
}
