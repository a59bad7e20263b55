package epgscrape

import (
	"regexp"
	"strings"
)

// normAlnumPattern strips everything but letters/digits for the
// whitespace/punctuation-insensitive title comparison used to locate a
// slot's matching heading on its description page.
var normAlnumPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)

func normAlnum(s string) string {
	return strings.ToLower(normAlnumPattern.ReplaceAllString(s, ""))
}

// RefineFromDescription matches slot's title against the first 12 lines of
// descRows (the description page's body rows) and, on a match, fills in
// Subtitle/Description from what follows. siblingRows are the same-numbered
// rows from the page's other sub-pages (if any); a line repeated
// ≥90% identically across them is treated as static header/footer
// boilerplate and excluded from the description text.
func RefineFromDescription(slot *Slot, descRows []string, siblingRowSets [][]string) {
	const headLines = 12
	limit := headLines
	if limit > len(descRows) {
		limit = len(descRows)
	}

	target := normAlnum(slot.Title)
	if target == "" {
		return
	}

	matchIdx := -1
	for i := 0; i < limit; i++ {
		if normAlnum(descRows[i]) == target {
			matchIdx = i
			break
		}
	}
	if matchIdx < 0 {
		return
	}

	static := staticLineSet(descRows, siblingRowSets)

	var body []string
	for i := matchIdx + 1; i < len(descRows); i++ {
		if static[i] {
			continue
		}
		line := strings.TrimSpace(descRows[i])
		if line != "" {
			body = append(body, line)
		}
	}

	subtitle, desc := splitSubtitleAndBody(body)
	if subtitle != "" {
		slot.Subtitle = subtitle
	}
	slot.Description = cleanDescription(desc)
}

// staticLineSet flags row indices whose text is identical across at least
// 90% of the provided row sets -- static page furniture (channel logo
// banner, navigation footer) rather than programme-specific content.
func staticLineSet(rows []string, siblings [][]string) map[int]bool {
	out := map[int]bool{}
	if len(siblings) == 0 {
		return out
	}
	for i, row := range rows {
		matches := 0
		for _, sib := range siblings {
			if i < len(sib) && sib[i] == row {
				matches++
			}
		}
		if float64(matches)/float64(len(siblings)) >= 0.9 {
			out[i] = true
		}
	}
	return out
}

// splitSubtitleAndBody treats a short first body line (no terminal period,
// under 40 runes) as a subtitle, the rest as the free-text description.
func splitSubtitleAndBody(lines []string) (subtitle string, body []string) {
	if len(lines) == 0 {
		return "", nil
	}
	first := lines[0]
	if len([]rune(first)) < 40 && !strings.HasSuffix(first, ".") {
		return first, lines[1:]
	}
	return "", lines
}

var (
	vpsLabelLine   = regexp.MustCompile(`(?i)^\s*VPS\s+\d{4}\s*$`)
	subpageMarker  = regexp.MustCompile(`^\s*\d+/\d+\s*$`)
	hyphenBreak    = regexp.MustCompile(`(\p{L})-\s*$`)
	castDotRun     = regexp.MustCompile(`\.{2,}`)
)

// cleanDescription drops VPS labels and sub-page markers, reformats a
// dot-leader cast table ("Actor.......Role") into a comma-separated list,
// collapses blank lines into paragraph breaks, and undoes in-word
// end-of-line hyphenation.
func cleanDescription(lines []string) string {
	var kept []string
	for _, l := range lines {
		if vpsLabelLine.MatchString(l) || subpageMarker.MatchString(l) {
			continue
		}
		kept = append(kept, l)
	}

	// Undo hyphenation across adjacent lines before joining.
	joined := make([]string, 0, len(kept))
	for i := 0; i < len(kept); i++ {
		line := kept[i]
		if m := hyphenBreak.FindStringSubmatchIndex(line); m != nil && i+1 < len(kept) {
			next := kept[i+1]
			if next != "" && isLower(rune(next[0])) {
				line = line[:m[2]] + next
				i++
			}
		}
		joined = append(joined, line)
	}

	// Cast-table lines (dot-run-separated "Name....Role") become
	// "Name, Role"; other lines pass through as paragraph text.
	var out []string
	for _, l := range joined {
		if castDotRun.MatchString(l) {
			parts := castDotRun.Split(l, -1)
			var cleaned []string
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					cleaned = append(cleaned, p)
				}
			}
			out = append(out, strings.Join(cleaned, ", "))
			continue
		}
		out = append(out, l)
	}

	return strings.Join(out, "\n")
}

func isLower(r rune) bool {
	return r >= 'a' && r <= 'z'
}
