// Package report renders the markdown subset returned by the AI provider into display blocks.
//
// Recognized syntax, per trimmed line:
//
//	### text   level-3 heading
//	## text    level-2 heading
//	- text     bullet item (also "* text")
//	(blank)    ends the current bullet list
//	other      paragraph
//
// Consecutive bullet items form one list. Nothing else is interpreted: numbered
// lists, tables and inline emphasis are kept as literal paragraph text.
package report

import (
	"regexp"
	"strings"

	"github.com/ternarybob/marketpulse/internal/models"
)

var bulletPrefix = regexp.MustCompile(`^[-*]\s*`)

// FormatReport converts report text into blocks. It never fails; empty input yields no blocks.
func FormatReport(text string) []models.Block {
	blocks := []models.Block{}
	var items []string

	flush := func() {
		if len(items) > 0 {
			blocks = append(blocks, models.BulletList(items))
			items = nil
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, models.HeadingMarker3):
			flush()
			blocks = append(blocks, models.Heading(3, strings.TrimSpace(line[len(models.HeadingMarker3):])))
		case strings.HasPrefix(line, models.HeadingMarker2):
			flush()
			blocks = append(blocks, models.Heading(2, strings.TrimSpace(line[len(models.HeadingMarker2):])))
		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
			items = append(items, bulletPrefix.ReplaceAllString(line, ""))
		case line == "":
			flush()
		default:
			flush()
			blocks = append(blocks, models.Paragraph(line))
		}
	}
	flush()

	return blocks
}

// MissingSections returns the titles of schema sections that have no heading of the
// expected level in blocks, in schema order
func MissingSections(blocks []models.Block, schema models.ReportSchema) []string {
	present := make(map[int]map[string]bool)
	for _, b := range blocks {
		if b.Kind != models.BlockKindHeading {
			continue
		}
		if present[b.Level] == nil {
			present[b.Level] = make(map[string]bool)
		}
		present[b.Level][normalizeHeading(b.Text)] = true
	}

	var missing []string
	for _, section := range schema.Sections {
		if !present[section.Level][normalizeHeading(section.Title)] {
			missing = append(missing, section.Title)
		}
	}
	return missing
}

// PlainText renders blocks back to the markdown subset, one blank line between blocks
func PlainText(blocks []models.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.Kind {
		case models.BlockKindHeading:
			marker := models.HeadingMarker2
			if b.Level == 3 {
				marker = models.HeadingMarker3
			}
			parts = append(parts, marker+b.Text)
		case models.BlockKindBulletList:
			lines := make([]string, len(b.Items))
			for i, item := range b.Items {
				lines[i] = models.BulletMarker + item
			}
			parts = append(parts, strings.Join(lines, "\n"))
		default:
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func normalizeHeading(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
