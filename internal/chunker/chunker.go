// Package chunker splits normalized FAQ and document text into
// retrieval-sized pieces before they are embedded and indexed. Legal and
// regulatory documents are split at article ("Pasal N") boundaries first so
// that each article stays a coherent retrieval unit.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/vectordb"
)

// Default splitter parameters, matching the upstream content's typical
// paragraph length.
const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 150
)

// SourceDocument is one logical FAQ or document record before splitting.
type SourceDocument struct {
	Content  string
	Metadata vectordb.Metadata
}

var (
	// Manual section markers: a run of 3+ '#' characters, optionally
	// preceded by a newline and followed by whitespace.
	markerRe = regexp.MustCompile(`\n?#{3,}[ \t]*`)

	// An article header at the start of the text or of a line.
	articleRe = regexp.MustCompile(`(?m)^[ \t]*Pasal[ \t]+\d+\s`)

	// Title keywords marking Indonesian legal/regulatory documents.
	regulationTitleWords = []string{
		"peraturan", "undang-undang", "keputusan", "perpres", "permendagri",
	}
)

// regulationProbeLen bounds how much content the article-pattern probe scans.
const regulationProbeLen = 5000

// Normalize collapses all runs of whitespace (including newlines) into
// single spaces and trims the ends. It is idempotent.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// PreSplitSections splits content at manual '###' section markers. Empty
// sections are dropped. Content without markers comes back as one section.
func PreSplitSections(content string) []string {
	parts := markerRe.Split(content, -1)
	sections := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			sections = append(sections, p)
		}
	}
	return sections
}

// IsRegulation reports whether a document looks like a legal/regulatory
// text: either the title names a regulation type or the content opens with
// numbered articles.
func IsRegulation(title, content string) bool {
	lower := strings.ToLower(title)
	for _, w := range regulationTitleWords {
		if strings.Contains(lower, w) {
			return true
		}
	}

	probe := content
	if len(probe) > regulationProbeLen {
		probe = probe[:regulationProbeLen]
	}
	return articleRe.MatchString(probe)
}

// SplitByArticle splits raw (not yet normalized) content at "Pasal N"
// boundaries. Each returned piece is an article header concatenated with
// its body; text before the first article becomes its own piece. Returns
// nil when no article boundary is found.
func SplitByArticle(content string) []string {
	locs := articleRe.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}

	var parts []string
	if head := strings.TrimSpace(content[:locs[0][0]]); head != "" {
		parts = append(parts, head)
	}
	for i, loc := range locs {
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if article := strings.TrimSpace(content[loc[0]:end]); article != "" {
			parts = append(parts, article)
		}
	}
	return parts
}

// separators in order of boundary preference: paragraph break, sentence
// break, line break, word break, then a hard character cut.
var separators = []string{"\n\n", ". ", "\n", " "}

// RecursiveSplit splits text into pieces no longer than size, preferring
// the largest natural boundary available and carrying overlap characters
// between adjacent pieces. Text within size is returned as a single piece.
func RecursiveSplit(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}
	return splitWithSeparators(text, size, overlap, separators)
}

func splitWithSeparators(text string, size, overlap int, seps []string) []string {
	if len(text) <= size {
		return []string{text}
	}

	// Find the first separator actually present; fall back to a hard cut.
	sep := ""
	var rest []string
	for i, s := range seps {
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}
	if sep == "" {
		return hardCut(text, size, overlap)
	}

	pieces := strings.SplitAfter(text, sep)

	var chunks []string
	var current strings.Builder
	for _, piece := range pieces {
		if piece == "" {
			continue
		}

		// A single piece over the budget is split again at finer boundaries.
		if len(piece) > size {
			if current.Len() > 0 {
				chunks = append(chunks, strings.TrimSpace(current.String()))
				current.Reset()
			}
			chunks = append(chunks, splitWithSeparators(piece, size, overlap, rest)...)
			continue
		}

		if current.Len()+len(piece) > size && current.Len() > 0 {
			chunk := strings.TrimSpace(current.String())
			chunks = append(chunks, chunk)
			current.Reset()
			// Seed the next chunk with the tail of the previous one,
			// but only when seed plus piece still fit the budget.
			if overlap > 0 && len(chunk) > overlap && overlap+1+len(piece) <= size {
				current.WriteString(chunk[len(chunk)-overlap:])
				current.WriteString(" ")
			}
		}
		current.WriteString(piece)
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

func hardCut(text string, size, overlap int) []string {
	step := size - overlap
	if step <= 0 {
		step = size
	}
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}

// Chunk converts source records into vector store documents. Regulation
// content is split by article first; everything else goes through the
// recursive splitter. Every resulting chunk inherits a copy of its source
// metadata, plus the 1-based section index when '###' sectioning was used.
func Chunk(docs []SourceDocument, size, overlap int) []vectordb.Document {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}

	var out []vectordb.Document
	for _, doc := range docs {
		out = append(out, chunkOne(doc, size, overlap)...)
	}
	return out
}

func chunkOne(doc SourceDocument, size, overlap int) []vectordb.Document {
	sectioned := strings.Contains(doc.Content, "###")
	var sections []string
	if sectioned {
		sections = PreSplitSections(doc.Content)
	} else {
		sections = []string{doc.Content}
	}

	field, key := doc.Metadata.KeyField()
	if key == "" {
		key = "unkeyed"
	}

	var out []vectordb.Document
	seq := 0
	for i, section := range sections {
		meta := doc.Metadata
		if sectioned {
			meta.SectionIndex = i + 1
		}

		for _, piece := range splitSection(meta.Title, section, size, overlap) {
			out = append(out, vectordb.Document{
				ID:       fmt.Sprintf("%s:%s:%d", strings.TrimSuffix(field, "_id"), key, seq),
				Content:  piece,
				Metadata: meta,
			})
			seq++
		}
	}
	return out
}

// splitSection produces the normalized pieces for one section. For
// regulation text, normalization runs after article extraction because the
// article boundaries are newline-based.
func splitSection(title, section string, size, overlap int) []string {
	if IsRegulation(title, section) {
		if articles := SplitByArticle(section); len(articles) > 0 {
			var pieces []string
			for _, article := range articles {
				a := Normalize(article)
				if a == "" {
					continue
				}
				if len(a) > size {
					pieces = append(pieces, RecursiveSplit(a, size, overlap)...)
				} else {
					pieces = append(pieces, a)
				}
			}
			return pieces
		}
	}

	n := Normalize(section)
	if n == "" {
		return nil
	}
	return RecursiveSplit(n, size, overlap)
}
