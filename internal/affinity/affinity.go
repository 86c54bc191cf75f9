// Package affinity implements the bounded affinity score and the
// relationship stage state machine.
//
// The score only ever moves by clamped signed deltas (plus one absolute
// set at session bootstrap), and the stage is a pure function of the
// score against an ordered threshold table. The terminal transition is
// edge-triggered: it fires on the turn the top stage is reached with the
// score at the upper bound, and never again for that session.
package affinity

import (
	"log/slog"

	"github.com/BTreeMap/LoveLoop/internal/models"
)

// ApplyDelta returns the score after applying a signed delta, clamped to
// the configured bounds. Out-of-range deltas are legal and simply clamp.
func ApplyDelta(current, delta int, bounds models.AffinityBounds) int {
	return clamp(current+delta, bounds)
}

// SetAbsolute returns the given value clamped to the configured bounds.
// Used exactly once per session, for the initial sentiment analysis of
// the relationship backstory; all later updates go through ApplyDelta.
func SetAbsolute(value int, bounds models.AffinityBounds) int {
	return clamp(value, bounds)
}

func clamp(v int, bounds models.AffinityBounds) int {
	if v < bounds.Min {
		return bounds.Min
	}
	if v > bounds.Max {
		return bounds.Max
	}
	return v
}

// ResolveStage returns the highest-indexed stage whose MinAffinity does
// not exceed the score. When several stages share a threshold, the later
// entry wins. The table invariant (first threshold == Bounds.Min)
// guarantees a match; the first entry is returned defensively if the
// table violates it.
func ResolveStage(score int, cfg models.AffinityConfig) models.Stage {
	resolved := cfg.Stages[0]
	for _, st := range cfg.Stages {
		if st.MinAffinity <= score {
			resolved = st
		}
	}
	return resolved
}

// StageIndex returns the index of the stage ResolveStage would pick for
// the given score. Monotone non-decreasing in score.
func StageIndex(score int, cfg models.AffinityConfig) int {
	idx := 0
	for i, st := range cfg.Stages {
		if st.MinAffinity <= score {
			idx = i
		}
	}
	return idx
}

// StageProgress reports how far the score has advanced through its
// current stage, as a fraction in [0,1]. Within the top stage the
// remaining distance is measured against the upper bound.
func StageProgress(score int, cfg models.AffinityConfig) float64 {
	idx := StageIndex(score, cfg)
	lo := cfg.Stages[idx].MinAffinity
	hi := cfg.Bounds.Max
	if idx+1 < len(cfg.Stages) {
		hi = cfg.Stages[idx+1].MinAffinity
	}
	if hi <= lo {
		return 1.0
	}
	return float64(score-lo) / float64(hi-lo)
}

// TerminalReached reports whether the terminal transition condition holds
// for a newly computed score: the resolved stage is the top stage AND the
// score sits at the upper bound. Matching the top stage by name alone is
// not sufficient; the score must also have reached Bounds.Max.
func TerminalReached(score int, cfg models.AffinityConfig) bool {
	return score >= cfg.Bounds.Max && ResolveStage(score, cfg).Label == cfg.TopStage().Label
}

// Tracker owns one session's affinity score and remembers whether the
// terminal event already fired, so the event is emitted exactly once.
type Tracker struct {
	cfg      models.AffinityConfig
	score    int
	terminal bool
}

// NewTracker creates a tracker with the score clamped into bounds.
func NewTracker(cfg models.AffinityConfig, initial int) *Tracker {
	return &Tracker{cfg: cfg, score: SetAbsolute(initial, cfg.Bounds)}
}

// RestoreTracker rebuilds a tracker from persisted session state. A score
// already at the terminal condition is treated as having fired, so a
// reloaded session does not re-emit the event.
func RestoreTracker(cfg models.AffinityConfig, score int, status models.SessionStatus) *Tracker {
	t := NewTracker(cfg, score)
	if status == models.SessionStatusWedding || TerminalReached(t.score, cfg) {
		t.terminal = true
	}
	return t
}

// Score returns the current clamped score.
func (t *Tracker) Score() int {
	return t.score
}

// Stage returns the stage resolved for the current score.
func (t *Tracker) Stage() models.Stage {
	return ResolveStage(t.score, t.cfg)
}

// Apply applies a delta and reports the new score plus whether the
// terminal event fires on this transition. The event is edge-triggered:
// once it has fired, later turns at the top never fire it again.
func (t *Tracker) Apply(delta int) (newScore int, terminalEvent bool) {
	t.score = ApplyDelta(t.score, delta, t.cfg.Bounds)
	if !t.terminal && TerminalReached(t.score, t.cfg) {
		t.terminal = true
		slog.Info("affinity.Tracker: terminal transition reached", "score", t.score, "stage", t.Stage().Label)
		return t.score, true
	}
	return t.score, false
}
