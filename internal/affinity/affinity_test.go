package affinity

import (
	"testing"

	"github.com/BTreeMap/LoveLoop/internal/models"
)

func TestApplyDeltaClamps(t *testing.T) {
	cfg := models.DefaultAffinityConfig()
	cases := []struct {
		name    string
		current int
		delta   int
		want    int
	}{
		{"normal add", 0, 5, 5},
		{"normal subtract", 100, -30, 70},
		{"clamp at max", 995, 50, 1000},
		{"clamp at min", -990, -50, -1000},
		{"huge positive delta", 0, 1 << 30, 1000},
		{"huge negative delta", 0, -(1 << 30), -1000},
		{"zero delta at max", 1000, 0, 1000},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ApplyDelta(c.current, c.delta, cfg.Bounds)
			if got != c.want {
				t.Errorf("ApplyDelta(%d, %d) = %d, want %d", c.current, c.delta, got, c.want)
			}
		})
	}
}

func TestApplyDeltaStaysInBounds(t *testing.T) {
	bounds := models.AffinityBounds{Min: -1000, Max: 1000}
	for current := -1200; current <= 1200; current += 137 {
		for delta := -3000; delta <= 3000; delta += 571 {
			got := ApplyDelta(clamp(current, bounds), delta, bounds)
			if got < bounds.Min || got > bounds.Max {
				t.Fatalf("ApplyDelta(%d, %d) = %d escaped bounds", current, delta, got)
			}
		}
	}
}

func TestSetAbsolute(t *testing.T) {
	bounds := models.AffinityBounds{Min: -1000, Max: 1000}
	if got := SetAbsolute(5000, bounds); got != 1000 {
		t.Errorf("SetAbsolute(5000) = %d, want 1000", got)
	}
	if got := SetAbsolute(-5000, bounds); got != -1000 {
		t.Errorf("SetAbsolute(-5000) = %d, want -1000", got)
	}
	if got := SetAbsolute(42, bounds); got != 42 {
		t.Errorf("SetAbsolute(42) = %d, want 42", got)
	}
}

func TestResolveStage(t *testing.T) {
	cfg := models.DefaultAffinityConfig()
	cases := []struct {
		score int
		want  string
	}{
		{-1000, "血海深仇"},
		{-751, "血海深仇"},
		{-750, "仇人"},
		{-1, "冷漠"},
		{0, "路人"},
		{99, "路人"},
		{100, "熟人"},
		{999, "恋人"},
		{1000, "未婚伴侣"},
	}
	for _, c := range cases {
		got := ResolveStage(c.score, cfg)
		if got.Label != c.want {
			t.Errorf("ResolveStage(%d) = %q, want %q", c.score, got.Label, c.want)
		}
	}
}

func TestResolveStageLaterEntryWinsTies(t *testing.T) {
	cfg := models.AffinityConfig{
		Bounds: models.AffinityBounds{Min: 0, Max: 100},
		Stages: []models.Stage{
			{Label: "first", MinAffinity: 0},
			{Label: "also-zero", MinAffinity: 0},
			{Label: "top", MinAffinity: 100},
		},
		Neutral: 0,
	}
	if got := ResolveStage(0, cfg); got.Label != "also-zero" {
		t.Errorf("ResolveStage(0) = %q, want %q", got.Label, "also-zero")
	}
}

func TestStageIndexMonotone(t *testing.T) {
	cfg := models.DefaultAffinityConfig()
	prev := StageIndex(cfg.Bounds.Min, cfg)
	for score := cfg.Bounds.Min; score <= cfg.Bounds.Max; score += 7 {
		idx := StageIndex(score, cfg)
		if idx < prev {
			t.Fatalf("StageIndex regressed from %d to %d at score %d", prev, idx, score)
		}
		prev = idx
	}
}

func TestStageProgress(t *testing.T) {
	cfg := models.DefaultAffinityConfig()
	if got := StageProgress(0, cfg); got != 0 {
		t.Errorf("StageProgress(0) = %v, want 0", got)
	}
	// 路人 spans 0..100, halfway at 50.
	if got := StageProgress(50, cfg); got != 0.5 {
		t.Errorf("StageProgress(50) = %v, want 0.5", got)
	}
	// Top stage has zero width (threshold == Bounds.Max).
	if got := StageProgress(1000, cfg); got != 1.0 {
		t.Errorf("StageProgress(1000) = %v, want 1.0", got)
	}
}

func TestTerminalReached(t *testing.T) {
	cfg := models.DefaultAffinityConfig()
	if TerminalReached(999, cfg) {
		t.Error("score below max must not be terminal")
	}
	if !TerminalReached(1000, cfg) {
		t.Error("score at max in top stage must be terminal")
	}
}

func TestTrackerTerminalFiresOnce(t *testing.T) {
	cfg := models.CompactAffinityConfig()
	tr := NewTracker(cfg, 95)

	score, fired := tr.Apply(3)
	if fired {
		t.Fatalf("terminal fired at score %d, below max", score)
	}
	score, fired = tr.Apply(10)
	if score != 100 || !fired {
		t.Fatalf("Apply(10) = (%d, %v), want (100, true)", score, fired)
	}
	// Staying at the top must not fire again.
	for i := 0; i < 5; i++ {
		if _, fired := tr.Apply(1); fired {
			t.Fatal("terminal fired a second time")
		}
	}
}

func TestTrackerTerminalNotRetriggeredAfterDip(t *testing.T) {
	cfg := models.CompactAffinityConfig()
	tr := NewTracker(cfg, 99)
	if _, fired := tr.Apply(1); !fired {
		t.Fatal("expected terminal on reaching max")
	}
	tr.Apply(-20)
	if _, fired := tr.Apply(20); fired {
		t.Error("terminal must not re-fire after dipping and returning")
	}
}

func TestRestoreTrackerSuppressesReplay(t *testing.T) {
	cfg := models.CompactAffinityConfig()

	// A persisted session already sitting at the max must not re-emit.
	tr := RestoreTracker(cfg, 100, models.SessionStatusActive)
	if _, fired := tr.Apply(0); fired {
		t.Error("restored tracker at max re-fired the terminal event")
	}

	// A wedding session below max (should not happen, but be safe).
	tr = RestoreTracker(cfg, 50, models.SessionStatusWedding)
	if _, fired := tr.Apply(50); fired {
		t.Error("wedding session re-fired the terminal event")
	}
}

func TestNewTrackerClampsInitial(t *testing.T) {
	cfg := models.DefaultAffinityConfig()
	tr := NewTracker(cfg, 99999)
	if tr.Score() != cfg.Bounds.Max {
		t.Errorf("initial score = %d, want %d", tr.Score(), cfg.Bounds.Max)
	}
	if tr.Stage().Label != "未婚伴侣" {
		t.Errorf("initial stage = %q, want 未婚伴侣", tr.Stage().Label)
	}
}
