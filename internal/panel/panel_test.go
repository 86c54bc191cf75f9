package panel

import (
	"testing"
)

const samplePanel = "┌─ S T A T U S ────────────┐\n" +
	"│ 💗 好感度: 42/100\n" +
	"│ 🙀 情绪: 平静\n" +
	"└──────────────────────────┘"

func TestParseSingleBlock(t *testing.T) {
	p := Parse(samplePanel)
	if len(p.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(p.Sections))
	}
	sec := p.Sections[0]
	if sec.Title != "S T A T U S" {
		t.Errorf("Title = %q, want %q", sec.Title, "S T A T U S")
	}
	if len(sec.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(sec.Items))
	}
	if sec.Items[0].Label != "💗 好感度" || sec.Items[0].Value != "42/100" {
		t.Errorf("item 0 = %+v", sec.Items[0])
	}
	if sec.Items[1].Label != "🙀 情绪" || sec.Items[1].Value != "平静" {
		t.Errorf("item 1 = %+v", sec.Items[1])
	}
}

func TestParseMultipleBlocksInOrder(t *testing.T) {
	text := "┌─ SCENE ──┐\n│ 地点: 学校\n└──────────┘\n" +
		"some prose between blocks\n" +
		"┌─ NOTES ──┐\n│ 她在等你。\n└──────────┘"
	p := Parse(text)
	if len(p.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(p.Sections))
	}
	if p.Sections[0].Title != "SCENE" || p.Sections[1].Title != "NOTES" {
		t.Errorf("section order wrong: %q, %q", p.Sections[0].Title, p.Sections[1].Title)
	}
}

func TestParseDuplicateTitlesKept(t *testing.T) {
	text := "┌─ A ──┐\n│ x: 1\n└──────┘\n┌─ A ──┐\n│ y: 2\n└──────┘"
	p := Parse(text)
	if len(p.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(p.Sections))
	}
}

func TestParseFullwidthColon(t *testing.T) {
	text := "┌─ S ──┐\n│ 心情：开心\n└──────┘"
	p := Parse(text)
	if len(p.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(p.Sections))
	}
	item := p.Sections[0].Items[0]
	if item.Label != "心情" || item.Value != "开心" {
		t.Errorf("item = %+v", item)
	}
}

func TestParseUnlabeledLine(t *testing.T) {
	text := "┌─ NOTES ──┐\n│ 她没有说话。\n└──────────┘"
	p := Parse(text)
	item := p.Sections[0].Items[0]
	if item.Label != "" || item.Value != "她没有说话。" {
		t.Errorf("item = %+v", item)
	}
}

func TestParseSplitsOnFirstSeparatorOnly(t *testing.T) {
	text := "┌─ S ──┐\n│ 时间: 10:30\n└──────┘"
	p := Parse(text)
	item := p.Sections[0].Items[0]
	if item.Label != "时间" || item.Value != "10:30" {
		t.Errorf("item = %+v", item)
	}
}

func TestParseGarbageYieldsEmptyPanel(t *testing.T) {
	for _, text := range []string{
		"",
		"no boxes here at all",
		"┌─ unterminated block\n│ x: 1",
		"│ stray body line without borders",
	} {
		p := Parse(text)
		if len(p.Sections) != 0 {
			t.Errorf("Parse(%q) yielded %d sections, want 0", text, len(p.Sections))
		}
	}
}

func TestParseDiscardsEmptyBlocks(t *testing.T) {
	text := "┌─ EMPTY ──┐\n│\n│   \n└──────────┘\n┌─ KEPT ──┐\n│ a: b\n└─────────┘"
	p := Parse(text)
	if len(p.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(p.Sections))
	}
	if p.Sections[0].Title != "KEPT" {
		t.Errorf("Title = %q, want KEPT", p.Sections[0].Title)
	}
}

func TestParseLinesWithoutBorderGlyph(t *testing.T) {
	// Models sometimes drop the left border on continuation lines.
	text := "┌─ S ──┐\n│ a: 1\nb: 2\n└──────┘"
	p := Parse(text)
	if len(p.Sections[0].Items) != 2 {
		t.Fatalf("got %d items, want 2", len(p.Sections[0].Items))
	}
	if p.Sections[0].Items[1].Label != "b" || p.Sections[0].Items[1].Value != "2" {
		t.Errorf("item 1 = %+v", p.Sections[0].Items[1])
	}
}
