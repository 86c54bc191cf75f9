// Package panel parses the stylized box-drawing status text the model
// emits into ordered sections of labeled fields.
//
// The wire format is a human-oriented ASCII-art layout:
//
//	┌─ T I T L E ──────────┐
//	│ 💗 好感度: 42/100
//	│ 🙀 情绪: 平静
//	└──────────────────────┘
//
// The scan is non-recursive and has a zero throw surface: text that
// matches no block yields an empty panel, which is a valid state the
// caller renders as "still loading" rather than a parse error.
package panel

import (
	"regexp"
	"strings"

	"github.com/BTreeMap/LoveLoop/internal/models"
)

// block matches one titled box: a top border with the title between the
// corner and dash glyphs, a body, and a bottom border. Dash run lengths
// vary between completions, so both runs are unanchored.
var block = regexp.MustCompile(`(?s)┌─(.+?)─+┐\n(.*?)└─+┘`)

// bodyLinePrefix strips a single leading border glyph and at most one
// following space from a body line.
var bodyLinePrefix = regexp.MustCompile(`^│ ?`)

// Parse converts panel text into an ordered StatusPanel. Sections appear
// in document order, duplicate titles are kept, and a block whose body
// strips down to nothing is discarded entirely. Border glyphs nested
// inside values are literal text; the scan never recurses.
func Parse(text string) models.StatusPanel {
	var p models.StatusPanel
	for _, m := range block.FindAllStringSubmatch(text, -1) {
		title := strings.TrimSpace(m[1])
		items := parseBody(m[2])
		if len(items) == 0 {
			continue
		}
		p.Sections = append(p.Sections, models.PanelSection{Title: title, Items: items})
	}
	return p
}

// parseBody splits a block body into items, dropping lines that are empty
// after border stripping.
func parseBody(body string) []models.PanelItem {
	var items []models.PanelItem
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		line = bodyLinePrefix.ReplaceAllString(line, "")
		if strings.TrimSpace(line) == "" {
			continue
		}
		items = append(items, splitItem(line))
	}
	return items
}

// splitItem splits a line on the first colon-equivalent separator. The
// text before it (trimmed) is the label and the text after it (trimmed)
// is the value; with no separator the whole line is an unlabeled value.
// Both the ASCII colon and the fullwidth colon the model mixes in count.
func splitItem(line string) models.PanelItem {
	idx := strings.IndexAny(line, ":：")
	if idx < 0 {
		return models.PanelItem{Value: strings.TrimSpace(line)}
	}
	sep := 1
	if line[idx] != ':' {
		sep = len("：")
	}
	return models.PanelItem{
		Label: strings.TrimSpace(line[:idx]),
		Value: strings.TrimSpace(line[idx+sep:]),
	}
}
