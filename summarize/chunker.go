package summarize

import "regexp"

// NoContent is the single chunk returned for empty input.
const NoContent = "No Content"

type splitLevel int

const (
	levelParagraph splitLevel = iota
	levelLine
	levelSentence
	levelWord
)

// Boundaries sit at the end of each match; separators stay with the preceding unit.
var boundaryPatterns = [...]*regexp.Regexp{
	levelParagraph: regexp.MustCompile(`\n[ \t\r]*\n\s*`),
	levelLine:      regexp.MustCompile(`\n`),
	levelSentence:  regexp.MustCompile(`[.!?]+["'”’)\]]*\s+`),
	levelWord:      regexp.MustCompile(`\s+`),
}

// GroupIntoChunks splits text into ordered chunks whose estimated token count stays within targetTokens.
//
// Units are packed greedily at the coarsest level that fits: paragraphs, then lines, then sentences, then
// words. A single word that alone exceeds the target becomes its own chunk. Chunks are contiguous slices of
// text, so concatenating them in order yields text exactly. Empty text yields []string{NoContent}.
func GroupIntoChunks(text string, targetTokens int, modelType string) []string {
	if text == "" {
		return []string{NoContent}
	}
	if targetTokens <= 0 {
		return []string{text}
	}

	p := packer{text: text, target: targetTokens, modelType: modelType}
	p.pack(0, len(text), levelParagraph)
	p.flush()
	return p.chunks
}

type packer struct {
	text      string
	target    int
	modelType string

	chunks []string

	// Open chunk is text[start:end]; empty when start == end.
	start, end int
}

func (p *packer) fits(start, end int) bool {
	return EstimateTokens(p.text[start:end], p.modelType) <= p.target
}

func (p *packer) flush() {
	if p.end > p.start {
		p.chunks = append(p.chunks, p.text[p.start:p.end])
	}
	p.start = p.end
}

func (p *packer) pack(start, end int, level splitLevel) {
	for _, u := range splitSpans(p.text, start, end, level) {
		if p.end > p.start {
			if p.fits(p.start, u[1]) {
				p.end = u[1]
				continue
			}
			p.flush()
		}

		switch {
		case p.fits(u[0], u[1]):
			p.end = u[1]
		case level < levelWord:
			p.pack(u[0], u[1], level+1)
		default:
			p.end = u[1]
			p.flush()
		}
	}
}

// splitSpans partitions text[start:end] into contiguous [start, end) spans at the given level.
func splitSpans(text string, start, end int, level splitLevel) [][2]int {
	matches := boundaryPatterns[level].FindAllStringIndex(text[start:end], -1)

	spans := make([][2]int, 0, len(matches)+1)
	prev := start
	for _, m := range matches {
		cut := start + m[1]
		if cut <= prev || cut >= end {
			continue
		}
		spans = append(spans, [2]int{prev, cut})
		prev = cut
	}
	return append(spans, [2]int{prev, end})
}
