package tui

import "time"

// stage tracks what the front end is showing. Everything between
// stageDistributing and stageReviewing is presentation: the pipeline only
// ever makes two sequential calls, and the staged labels are driven by a
// timer, not by real per-node work.
type stage int

const (
	stageIdle stage = iota
	stageDistributing
	stageAnalyzing
	stageFlowing
	stageSynthesizing
	stageReviewing
	stageSpeaking
)

func (s stage) label() string {
	switch s {
	case stageDistributing:
		return "DISTRIBUTING"
	case stageAnalyzing:
		return "ANALYZING"
	case stageFlowing:
		return "FLOWING"
	case stageSynthesizing:
		return "SYNTHESIZING"
	case stageReviewing:
		return "REVIEWING"
	case stageSpeaking:
		return "SPEAKING"
	default:
		return "IDLE"
	}
}

func (s stage) busy() bool { return s != stageIdle }

// stageForElapsed picks the decorative stage shown while a generation job is
// outstanding. The thresholds imitate the pacing of the original swarm
// animation and carry no information about the actual calls.
func stageForElapsed(elapsed time.Duration) stage {
	switch {
	case elapsed < 1*time.Second:
		return stageDistributing
	case elapsed < 3*time.Second:
		return stageAnalyzing
	case elapsed < 6*time.Second:
		return stageFlowing
	case elapsed < 10*time.Second:
		return stageSynthesizing
	default:
		return stageReviewing
	}
}

type logLevel int

const (
	logInfo logLevel = iota
	logWarn
	logSuccess
	logError
)

type logEntry struct {
	At      time.Time
	Level   logLevel
	Message string
}

const (
	heroTagline     = "Omni-consciousness terminal link."
	apologyText     = "The cosmic link failed. Verify your connection and try again."
	composerLimit   = 2000
	logHistoryLimit = 8

	minViewportWidth          = 40
	viewportHorizontalPadding = 4

	animInterval = 120 * time.Millisecond
)

const composerHelp = "Enter: send • /attach <path> • /signin • /sync • /pull • /speak • /clear • Ctrl+C: quit"
