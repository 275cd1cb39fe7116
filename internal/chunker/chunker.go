package chunker

import (
	"fmt"
	"strings"

	"github.com/devbrain-io/devbrain/internal/model"
)

// Chunker splits raw source text into bounded, overlapping fragments scoped
// to language constructs. Split is a pure function of its inputs: identical
// (content, path, language, chunkSize, overlap) always yields identical
// fragments, which is what makes re-sync idempotent and testable.
type Chunker struct {
	chunkSize int
	overlap   int
}

func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// section is a contiguous (modulo overlap carry) region of the original
// content, tracked with its byte offset for line-number provenance.
type section struct {
	text string
	off  int
}

func (c *Chunker) Split(content, path, language string) []model.Fragment {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	sections := c.partition(content, 0, markerLevels(language))
	fragments := make([]model.Fragment, 0, len(sections))
	for _, sec := range sections {
		if strings.TrimSpace(sec.text) == "" {
			continue
		}
		ident := extractIdentifier(sec.text, language)
		startLine := 1 + strings.Count(content[:sec.off], "\n")
		frag := model.Fragment{
			Index:   len(fragments),
			Content: buildHeader(path, ident) + "\n" + sec.text,
			Metadata: model.ChunkMetadata{
				FilePath:     path,
				FunctionName: ident,
				Language:     language,
				StartLine:    startLine,
				EndLine:      startLine + strings.Count(sec.text, "\n"),
			},
		}
		fragments = append(fragments, frag)
	}
	return fragments
}

// partition recursively cuts text on the strongest marker level that applies,
// accumulating consecutive pieces up to chunkSize and carrying the last
// overlap characters across flushes. Pieces still over chunkSize descend to
// the next-weaker level; with no level left, fixed windows apply.
func (c *Chunker) partition(text string, off int, levels [][]string) []section {
	if len(text) <= c.chunkSize {
		return []section{{text: text, off: off}}
	}
	if len(levels) == 0 {
		return c.windows(text, off)
	}
	pieces := splitLevel(text, off, levels[0])
	if len(pieces) <= 1 {
		return c.partition(text, off, levels[1:])
	}

	var out []section
	var buf []section
	bufLen := 0
	carry := ""

	flush := func() {
		if len(buf) == 0 {
			return
		}
		var sb strings.Builder
		sb.WriteString(carry)
		for _, p := range buf {
			sb.WriteString(p.text)
		}
		body := sb.String()
		out = append(out, section{text: body, off: buf[0].off - len(carry)})
		raw := body[len(carry):]
		k := c.overlap
		if k > len(raw) {
			k = len(raw)
		}
		carry = raw[len(raw)-k:]
		buf = nil
		bufLen = 0
	}

	for _, p := range pieces {
		if len(p.text) > c.chunkSize {
			flush()
			// no overlap into a piece that gets its own recursive split
			carry = ""
			out = append(out, c.partition(p.text, p.off, levels[1:])...)
			continue
		}
		if bufLen > 0 && bufLen+len(p.text) > c.chunkSize {
			flush()
		}
		buf = append(buf, p)
		bufLen += len(p.text)
	}
	flush()
	return out
}

// windows is the no-marker fallback: fixed chunkSize slices advancing by
// chunkSize-overlap, so each window body stays within chunkSize exactly.
func (c *Chunker) windows(text string, off int) []section {
	step := c.chunkSize - c.overlap
	if step <= 0 {
		step = c.chunkSize
	}
	var out []section
	for start := 0; start < len(text); start += step {
		end := start + c.chunkSize
		if end > len(text) {
			end = len(text)
		}
		out = append(out, section{text: text[start:end], off: off + start})
		if end == len(text) {
			break
		}
	}
	return out
}

// splitLevel cuts text at every occurrence of any marker in the level.
// Keyword markers ("\nfunc ") cut after the newline so the declaration opens
// the next piece; whitespace markers ("\n\n") cut after the marker itself.
// Concatenating the pieces reproduces the input exactly.
func splitLevel(text string, off int, markers []string) []section {
	var pieces []section
	start := 0
	i := 1
	for i < len(text) {
		matched := ""
		for _, m := range markers {
			if strings.HasPrefix(text[i:], m) {
				matched = m
				break
			}
		}
		if matched == "" {
			i++
			continue
		}
		cut := i + 1
		if strings.TrimSpace(matched) == "" {
			cut = i + len(matched)
		}
		if cut > start {
			pieces = append(pieces, section{text: text[start:cut], off: off + start})
			start = cut
		}
		i = cut + 1
	}
	if start < len(text) {
		pieces = append(pieces, section{text: text[start:], off: off + start})
	}
	return pieces
}

func buildHeader(path, ident string) string {
	if ident != "" {
		return fmt.Sprintf("[file=%s] [symbol=%s]", path, ident)
	}
	return fmt.Sprintf("[file=%s]", path)
}
