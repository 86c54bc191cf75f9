// Package models defines the core data structures for LoveLoop.
//
// This file holds the affinity bound and stage table configuration. The
// bounds and stage thresholds are data, not constants: callers construct
// whichever preset (or custom table) fits their scenario.
package models

// AffinityBounds is the inclusive range an affinity score is clamped to.
type AffinityBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Stage is one named relationship tier. A score resolves to the
// highest-indexed stage whose MinAffinity does not exceed it.
type Stage struct {
	Label       string `json:"label"`
	MinAffinity int    `json:"min_affinity"`
}

// AffinityConfig couples bounds, the ordered stage table, and the neutral
// score used when sentiment analysis yields no usable number.
type AffinityConfig struct {
	Bounds  AffinityBounds `json:"bounds"`
	Stages  []Stage        `json:"stages"`
	Neutral int            `json:"neutral"`
}

// Validate checks the structural invariants of an affinity configuration:
// non-empty stage table, first stage anchored at Bounds.Min, thresholds
// non-decreasing, neutral score within bounds.
func (c *AffinityConfig) Validate() error {
	if c.Bounds.Min >= c.Bounds.Max {
		return ErrInvalidAffinityConfig
	}
	if len(c.Stages) == 0 {
		return ErrInvalidAffinityConfig
	}
	if c.Stages[0].MinAffinity != c.Bounds.Min {
		return ErrInvalidAffinityConfig
	}
	for i := 1; i < len(c.Stages); i++ {
		if c.Stages[i].MinAffinity < c.Stages[i-1].MinAffinity {
			return ErrInvalidAffinityConfig
		}
		if c.Stages[i].MinAffinity > c.Bounds.Max {
			return ErrInvalidAffinityConfig
		}
	}
	if c.Neutral < c.Bounds.Min || c.Neutral > c.Bounds.Max {
		return ErrInvalidAffinityConfig
	}
	return nil
}

// TopStage returns the last (highest-threshold) stage of the table.
func (c *AffinityConfig) TopStage() Stage {
	return c.Stages[len(c.Stages)-1]
}

// DefaultAffinityConfig returns the full romance scenario table:
// ten stages over a symmetric -1000..1000 range, from mortal enemies
// to betrothed partners.
func DefaultAffinityConfig() AffinityConfig {
	return AffinityConfig{
		Bounds:  AffinityBounds{Min: -1000, Max: 1000},
		Neutral: 0,
		Stages: []Stage{
			{Label: "血海深仇", MinAffinity: -1000},
			{Label: "仇人", MinAffinity: -750},
			{Label: "厌恶", MinAffinity: -500},
			{Label: "冷漠", MinAffinity: -250},
			{Label: "路人", MinAffinity: 0},
			{Label: "熟人", MinAffinity: 100},
			{Label: "朋友", MinAffinity: 300},
			{Label: "挚友", MinAffinity: 500},
			{Label: "恋人", MinAffinity: 750},
			{Label: "未婚伴侣", MinAffinity: 1000},
		},
	}
}

// CompactAffinityConfig returns the simplified 0..100 scenario table with
// six stages, used for short playthroughs.
func CompactAffinityConfig() AffinityConfig {
	return AffinityConfig{
		Bounds:  AffinityBounds{Min: 0, Max: 100},
		Neutral: 0,
		Stages: []Stage{
			{Label: "陌生", MinAffinity: 0},
			{Label: "认识", MinAffinity: 20},
			{Label: "朋友", MinAffinity: 40},
			{Label: "好友", MinAffinity: 60},
			{Label: "心动", MinAffinity: 80},
			{Label: "热恋", MinAffinity: 100},
		},
	}
}
