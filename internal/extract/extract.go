// Package extract isolates the deliverable source block from a free-form
// backend reply.
//
// Replies usually wrap the generated file in a fenced code block alongside
// explanatory prose; the extractor scans fence-open/fence-close token pairs
// (fences never nest) and picks the longest block, ties broken by first
// occurrence, so the primary implementation wins over short snippets the
// model may echo from the prompt. This is an explicit heuristic: a reply
// whose prose contains a longer irrelevant example can mis-select. That is
// a documented limitation, not a bug to patch silently.
package extract

import "strings"

const fence = "```"

// Extraction is the result of scanning one backend reply.
type Extraction struct {
	// Source is the extracted deliverable text.
	Source string

	// LowConfidence is set when no fenced block existed and Source is the
	// raw reply verbatim.
	LowConfidence bool
}

// Extract scans raw for fenced code regions regardless of language tag and
// returns the chosen deliverable. With no fenced block present the raw
// reply is returned unchanged, flagged low-confidence.
func Extract(raw string) Extraction {
	blocks := scanBlocks(raw)
	if len(blocks) == 0 {
		return Extraction{Source: raw, LowConfidence: true}
	}

	best := blocks[0]
	for _, b := range blocks[1:] {
		// Strictly longer wins; ties keep the earlier block.
		if len(b) > len(best) {
			best = b
		}
	}

	return Extraction{Source: best}
}

// scanBlocks walks the reply line by line collecting the inner text of
// every closed fence pair, in order of occurrence. An opening fence with no
// close contributes nothing.
func scanBlocks(raw string) []string {
	var (
		blocks  []string
		current []string
		open    bool
	)

	for _, line := range strings.Split(raw, "\n") {
		if isFenceLine(line) {
			if open {
				blocks = append(blocks, strings.Join(current, "\n"))
				current = nil
			}
			open = !open
			continue
		}
		if open {
			current = append(current, line)
		}
	}

	return blocks
}

// isFenceLine reports whether a line is a fence token, allowing leading
// whitespace and a trailing language tag on opening fences.
func isFenceLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), fence)
}
