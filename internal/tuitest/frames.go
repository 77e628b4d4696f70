package tuitest

import (
	"regexp"
	"strings"
)

// Frame is one normalized render of the TUI. Plain has ANSI sequences
// stripped and trailing whitespace trimmed, which is what assertions
// should match against.
type Frame struct {
	Index int
	ANSI  string
	Plain string
}

var (
	clearScreenSeq = regexp.MustCompile(`\x1b\[[0-9;]*J`)
	csiSeq         = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)
	oscSeq         = regexp.MustCompile(`\x1b\][^\x07]*(\x07|\x1b\\)`)
)

// parseFrames splits the raw PTY stream on clear-screen sequences; each
// segment between clears is one frame.
func parseFrames(raw []byte) []Frame {
	stream := strings.ReplaceAll(string(raw), "\r", "")
	var frames []Frame
	for _, segment := range clearScreenSeq.Split(stream, -1) {
		segment = strings.TrimPrefix(strings.Trim(segment, "\x00"), "\x1b[H")
		if segment == "" {
			continue
		}
		plain := stripANSI(segment)
		if strings.TrimSpace(plain) == "" {
			continue
		}
		frames = append(frames, Frame{Index: len(frames), ANSI: segment, Plain: tidyLines(plain)})
	}
	if len(frames) == 0 && len(stream) > 0 {
		frames = append(frames, Frame{ANSI: stream, Plain: tidyLines(stripANSI(stream))})
	}
	return frames
}

// FinalFrame returns the last captured frame, or false when the recording
// holds none.
func (r *Recording) FinalFrame() (Frame, bool) {
	if r == nil || len(r.Frames) == 0 {
		return Frame{}, false
	}
	return r.Frames[len(r.Frames)-1], true
}

func stripANSI(s string) string {
	s = oscSeq.ReplaceAllString(s, "")
	s = csiSeq.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\x0f", "")
	return strings.ReplaceAll(s, "\x0e", "")
}

func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
