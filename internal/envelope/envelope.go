// Package envelope extracts a structured reply out of the unreliable
// free-text completions returned by the generative model.
//
// The model is asked for a bare JSON object, but real completions wrap it
// in prose, markdown fences, or both, or omit it entirely. The decoder
// searches with two strategies in order (fenced ```json block, then the
// greedy brace-delimited substring), applies per-field defaults, and
// never returns an error: malformed input degrades to a deterministic
// fallback reply with a diagnostic panel text.
package envelope

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/BTreeMap/LoveLoop/internal/models"
)

// AffinityPlaceholder is the literal token the model is instructed to
// embed in panel text where the recomputed affinity value belongs. The
// decoder owns the convention; the session orchestrator performs the
// substitution once the clamped score is known.
const AffinityPlaceholder = "<更新后的好感度>"

// Fallback and default strings, matching the wording the prompts promise.
const (
	// DefaultDialogue replaces a missing or empty dialogue field.
	DefaultDialogue = "..."
	// FallbackDialogue is the in-character filler used when a candidate was
	// found but failed to parse, or when nothing displayable was returned.
	FallbackDialogue = "（抱歉，我好像有点走神了，你能再说一遍吗？）"
	// DefaultPanelText replaces a missing panel field on an otherwise
	// successful decode.
	DefaultPanelText = "状态面板生成失败。"
	// FallbackPanelText is the diagnostic panel text for a failed decode.
	FallbackPanelText = "状态解析失败"
	// DefaultOpeningPanelText replaces a missing initial panel field.
	DefaultOpeningPanelText = "未能生成初始状态。"
)

// fencedJSON matches a markdown code fence tagged as JSON. Strategy (a):
// tried first because models that fence their output also tend to chat
// around it, which breaks the greedy scan.
var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// bracedJSON matches the largest brace-delimited substring. Strategy (b):
// greedy on purpose so that nested objects stay inside one candidate.
var bracedJSON = regexp.MustCompile(`(?s){.*}`)

// extractCandidate returns the best JSON candidate substring and whether
// one was found.
func extractCandidate(raw string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	if m := bracedJSON.FindString(raw); m != "" {
		return m, true
	}
	return "", false
}

// turnEnvelope is the JSON shape expected for steady-state turns. Fields
// are deliberately loose: the delta arrives as whatever the model felt
// like emitting and is coerced afterwards.
type turnEnvelope struct {
	Dialogue           string          `json:"dialogue"`
	FavorabilityChange json.RawMessage `json:"favorabilityChange"`
	StatusPanel        string          `json:"statusPanel"`
}

// openingEnvelope is the JSON shape expected for the opening turn.
type openingEnvelope struct {
	OpeningLine        string `json:"openingLine"`
	InitialStatusPanel string `json:"initialStatusPanel"`
}

// DecodeTurn interprets a raw completion as a steady-state turn reply.
// It never returns an error: every failure path yields a usable
// TurnReply with Degraded set.
func DecodeTurn(raw string) models.TurnReply {
	candidate, found := extractCandidate(raw)
	if !found {
		slog.Warn("envelope.DecodeTurn: no JSON found in model output", "rawLength", len(raw))
		return fallbackTurn(raw)
	}

	var env turnEnvelope
	if err := json.Unmarshal([]byte(candidate), &env); err != nil {
		slog.Warn("envelope.DecodeTurn: candidate failed to parse", "error", err, "candidateLength", len(candidate))
		return parseFailureTurn()
	}

	reply := models.TurnReply{
		Dialogue:      env.Dialogue,
		AffinityDelta: coerceInt(env.FavorabilityChange),
		PanelText:     env.StatusPanel,
	}
	if reply.Dialogue == "" {
		reply.Dialogue = DefaultDialogue
	}
	if reply.PanelText == "" {
		reply.PanelText = DefaultPanelText
	}
	return reply
}

// DecodeOpening interprets a raw completion as the opening reply. The
// fallback greeting addresses the player by name, matching what the
// opening prompt promises.
func DecodeOpening(raw, playerName string) models.TurnReply {
	fallback := models.TurnReply{
		Dialogue:  "你好，" + playerName + "。很高兴认识你。",
		PanelText: DefaultOpeningPanelText,
		Degraded:  true,
	}

	candidate, found := extractCandidate(raw)
	if !found {
		slog.Warn("envelope.DecodeOpening: no JSON found in model output", "rawLength", len(raw))
		return fallback
	}

	var env openingEnvelope
	if err := json.Unmarshal([]byte(candidate), &env); err != nil {
		slog.Warn("envelope.DecodeOpening: candidate failed to parse", "error", err, "candidateLength", len(candidate))
		return fallback
	}

	reply := models.TurnReply{
		Dialogue:  env.OpeningLine,
		PanelText: env.InitialStatusPanel,
	}
	if reply.Dialogue == "" {
		reply.Dialogue = "你好，" + playerName + "。"
	}
	if reply.PanelText == "" {
		reply.PanelText = DefaultOpeningPanelText
	}
	return reply
}

// fallbackTurn builds the degraded reply for a completion containing no
// JSON at all. The raw blob is kept as dialogue when it looks like
// displayable text; otherwise the in-character filler is used.
func fallbackTurn(raw string) models.TurnReply {
	dialogue := strings.TrimSpace(raw)
	if dialogue == "" {
		dialogue = FallbackDialogue
	}
	return models.TurnReply{
		Dialogue:      dialogue,
		AffinityDelta: 0,
		PanelText:     FallbackPanelText,
		Degraded:      true,
	}
}

// parseFailureTurn builds the degraded reply for a candidate that was
// found but would not parse. The candidate is broken JSON, not prose, so
// showing it to the player helps nobody; the dialogue is always the
// in-character filler.
func parseFailureTurn() models.TurnReply {
	return models.TurnReply{
		Dialogue:      FallbackDialogue,
		AffinityDelta: 0,
		PanelText:     FallbackPanelText,
		Degraded:      true,
	}
}

// coerceInt turns whatever the model put in a numeric field into an int.
// Accepts JSON numbers (truncating fractions) and numeric strings;
// anything else defaults to 0.
func coerceInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	slog.Debug("envelope.coerceInt: non-numeric affinity delta, defaulting to 0", "raw", string(raw))
	return 0
}

// Substitute replaces every affinity placeholder token in the panel text
// with the newly computed score. Called by the orchestrator after
// clamping, before the panel is parsed.
func Substitute(panelText string, score int) string {
	return strings.ReplaceAll(panelText, AffinityPlaceholder, strconv.Itoa(score))
}
