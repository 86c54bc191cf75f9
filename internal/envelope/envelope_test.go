package envelope

import (
	"strings"
	"testing"
)

func TestDecodeTurnFencedBlock(t *testing.T) {
	raw := "Sure! Here is the reply:\n```json\n{\"dialogue\": \"hi\", \"favorabilityChange\": 3, \"statusPanel\": \"panel text\"}\n```\nHope that helps."
	reply := DecodeTurn(raw)
	if reply.Dialogue != "hi" {
		t.Errorf("Dialogue = %q, want %q", reply.Dialogue, "hi")
	}
	if reply.AffinityDelta != 3 {
		t.Errorf("AffinityDelta = %d, want 3", reply.AffinityDelta)
	}
	if reply.PanelText != "panel text" {
		t.Errorf("PanelText = %q, want %q", reply.PanelText, "panel text")
	}
	if reply.Degraded {
		t.Error("Degraded set on a clean decode")
	}
}

func TestDecodeTurnBareObject(t *testing.T) {
	raw := `The model says {"dialogue": "好的", "favorabilityChange": -2, "statusPanel": "p"} and nothing else.`
	reply := DecodeTurn(raw)
	if reply.Dialogue != "好的" || reply.AffinityDelta != -2 {
		t.Errorf("got (%q, %d), want (好的, -2)", reply.Dialogue, reply.AffinityDelta)
	}
}

func TestDecodeTurnFencePreferredOverBraces(t *testing.T) {
	// Prose braces around the fence must not win over the fenced block.
	raw := "{ let me think }\n```json\n{\"dialogue\": \"fenced\", \"favorabilityChange\": 1, \"statusPanel\": \"p\"}\n```"
	reply := DecodeTurn(raw)
	if reply.Dialogue != "fenced" {
		t.Errorf("Dialogue = %q, want %q", reply.Dialogue, "fenced")
	}
}

func TestDecodeTurnNoJSON(t *testing.T) {
	reply := DecodeTurn("I refuse to answer in JSON today.")
	if !reply.Degraded {
		t.Fatal("expected Degraded on unparseable output")
	}
	if reply.AffinityDelta != 0 {
		t.Errorf("AffinityDelta = %d, want 0", reply.AffinityDelta)
	}
	if reply.Dialogue != "I refuse to answer in JSON today." {
		t.Errorf("fallback should keep displayable raw text, got %q", reply.Dialogue)
	}
	if reply.PanelText != FallbackPanelText {
		t.Errorf("PanelText = %q, want %q", reply.PanelText, FallbackPanelText)
	}
}

func TestDecodeTurnEmptyOutput(t *testing.T) {
	reply := DecodeTurn("   \n  ")
	if !reply.Degraded {
		t.Fatal("expected Degraded on empty output")
	}
	if reply.Dialogue != FallbackDialogue {
		t.Errorf("Dialogue = %q, want the in-character filler", reply.Dialogue)
	}
}

func TestDecodeTurnMalformedJSON(t *testing.T) {
	reply := DecodeTurn("```json\n{\"dialogue\": \"hi\", nope}\n```")
	if !reply.Degraded {
		t.Error("expected Degraded on malformed JSON")
	}
	if reply.AffinityDelta != 0 {
		t.Errorf("AffinityDelta = %d, want 0", reply.AffinityDelta)
	}
	// Unlike the no-JSON case, broken JSON must never be echoed at the
	// player as dialogue.
	if reply.Dialogue != FallbackDialogue {
		t.Errorf("Dialogue = %q, want the in-character filler", reply.Dialogue)
	}
	if reply.PanelText != FallbackPanelText {
		t.Errorf("PanelText = %q, want %q", reply.PanelText, FallbackPanelText)
	}
}

func TestDecodeTurnFieldDefaults(t *testing.T) {
	reply := DecodeTurn(`{"favorabilityChange": 2}`)
	if reply.Dialogue != DefaultDialogue {
		t.Errorf("Dialogue = %q, want %q", reply.Dialogue, DefaultDialogue)
	}
	if reply.PanelText != DefaultPanelText {
		t.Errorf("PanelText = %q, want %q", reply.PanelText, DefaultPanelText)
	}
	if reply.AffinityDelta != 2 {
		t.Errorf("AffinityDelta = %d, want 2", reply.AffinityDelta)
	}
	if reply.Degraded {
		t.Error("missing fields alone must not mark the reply degraded")
	}
}

func TestDecodeTurnDeltaCoercion(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"integer", `{"dialogue":"x","favorabilityChange": 4, "statusPanel":"p"}`, 4},
		{"negative", `{"dialogue":"x","favorabilityChange": -5, "statusPanel":"p"}`, -5},
		{"float truncates", `{"dialogue":"x","favorabilityChange": 2.9, "statusPanel":"p"}`, 2},
		{"numeric string", `{"dialogue":"x","favorabilityChange": "3", "statusPanel":"p"}`, 3},
		{"padded string", `{"dialogue":"x","favorabilityChange": " -2 ", "statusPanel":"p"}`, -2},
		{"garbage string", `{"dialogue":"x","favorabilityChange": "lots", "statusPanel":"p"}`, 0},
		{"null", `{"dialogue":"x","favorabilityChange": null, "statusPanel":"p"}`, 0},
		{"missing", `{"dialogue":"x","statusPanel":"p"}`, 0},
		{"object", `{"dialogue":"x","favorabilityChange": {"v":1}, "statusPanel":"p"}`, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			reply := DecodeTurn(c.raw)
			if reply.AffinityDelta != c.want {
				t.Errorf("AffinityDelta = %d, want %d", reply.AffinityDelta, c.want)
			}
			if reply.Degraded {
				t.Error("coercion must not mark the reply degraded")
			}
		})
	}
}

func TestDecodeOpening(t *testing.T) {
	raw := "```json\n{\"openingLine\": \"你来了。\", \"initialStatusPanel\": \"panel\"}\n```"
	reply := DecodeOpening(raw, "小明")
	if reply.Dialogue != "你来了。" || reply.PanelText != "panel" || reply.Degraded {
		t.Errorf("unexpected reply: %+v", reply)
	}
}

func TestDecodeOpeningFallbackGreetsPlayer(t *testing.T) {
	reply := DecodeOpening("no json here", "小明")
	if !reply.Degraded {
		t.Fatal("expected Degraded")
	}
	if !strings.Contains(reply.Dialogue, "小明") {
		t.Errorf("fallback greeting %q does not address the player", reply.Dialogue)
	}
	if reply.PanelText != DefaultOpeningPanelText {
		t.Errorf("PanelText = %q, want %q", reply.PanelText, DefaultOpeningPanelText)
	}
}

func TestSubstitute(t *testing.T) {
	in := "好感度: " + AffinityPlaceholder + "/1000 (" + AffinityPlaceholder + ")"
	got := Substitute(in, 42)
	want := "好感度: 42/1000 (42)"
	if got != want {
		t.Errorf("Substitute = %q, want %q", got, want)
	}
	// Text without the token passes through untouched.
	if got := Substitute("plain", 7); got != "plain" {
		t.Errorf("Substitute(plain) = %q", got)
	}
}
