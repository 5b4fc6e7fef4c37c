package document

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/sheorananshul/contract-analyzer/internal/models"
)

// ChunkerConfig controls chunk sizing. Sizes are measured in approximate
// tokens (whitespace-separated words).
type ChunkerConfig struct {
	MinTokens     int // lower bound for a full chunk; short section tails may fall below
	MaxTokens     int // hard upper bound per chunk
	OverlapTokens int // token overlap between consecutive chunks
}

// DefaultChunkerConfig returns the default chunking policy.
// Overlap defaults to 20% of the maximum chunk length.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MinTokens:     40,
		MaxTokens:     400,
		OverlapTokens: 80,
	}
}

// Validate checks the configuration for impossible threshold combinations.
func (c ChunkerConfig) Validate() error {
	if c.MaxTokens <= 0 {
		return models.NewConfigurationError("chunker.max_tokens", "must be positive, got %d", c.MaxTokens)
	}
	if c.MinTokens < 0 || c.MinTokens > c.MaxTokens {
		return models.NewConfigurationError("chunker.min_tokens", "must be in [0, max_tokens=%d], got %d", c.MaxTokens, c.MinTokens)
	}
	if c.OverlapTokens < 0 || c.OverlapTokens >= c.MaxTokens {
		return models.NewConfigurationError("chunker.overlap_tokens", "must be in [0, max_tokens=%d), got %d", c.MaxTokens, c.OverlapTokens)
	}
	return nil
}

// Chunker splits a document into overlapping labeled chunks.
// Every non-whitespace offset of the document ends up covered by at least
// one chunk; whitespace between paragraphs is the only unindexable text.
type Chunker struct {
	config ChunkerConfig
}

// NewChunker creates a chunker, validating the configuration.
func NewChunker(config ChunkerConfig) (*Chunker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{config: config}, nil
}

// span is a half-open offset range into document text.
type span struct {
	start int
	end   int
}

// paragraphSeparatorRe matches blank-line paragraph separators.
var paragraphSeparatorRe = regexp.MustCompile(`\n[ \t\r]*\n`)

// Chunk splits the document into an ordered chunk sequence.
// Sections shorter than MinTokens still yield exactly one chunk; they are
// never padded with unrelated neighboring text.
func (c *Chunker) Chunk(doc *Document) ([]Chunk, error) {
	if doc == nil || doc.Text == "" {
		return nil, NewChunkingError("document text is empty")
	}

	var spans []span
	var labels []string

	for _, block := range c.blocks(doc) {
		blockSpans := c.chunkBlock(doc.Text, block.span)
		for _, s := range blockSpans {
			label := block.label
			if label == "" {
				label = FindSectionLabel(doc.Text[s.start:s.end])
			}
			spans = append(spans, s)
			labels = append(labels, label)
		}
	}

	if len(spans) == 0 {
		return nil, NewChunkingError("document contains no indexable text")
	}

	chunks := make([]Chunk, len(spans))
	for i, s := range spans {
		chunks[i] = Chunk{
			ID:         fmt.Sprintf("%s-%04d", doc.ID, i),
			DocumentID: doc.ID,
			Index:      i,
			Start:      s.start,
			End:        s.end,
			Section:    labels[i],
			Text:       doc.Text[s.start:s.end],
		}
	}

	// Link overlap neighbors: consecutive chunks sharing offsets.
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start < chunks[i-1].End {
			chunks[i].PrevID = chunks[i-1].ID
			chunks[i-1].NextID = chunks[i].ID
		}
	}

	return chunks, nil
}

// block is a labeled section-level region of the document.
type block struct {
	span  span
	label string
}

// blocks derives section blocks from the ingestion boundaries.
// Text before the first boundary forms an unlabeled preamble block so that
// the coverage invariant holds for the whole document.
func (c *Chunker) blocks(doc *Document) []block {
	if len(doc.Boundaries) == 0 {
		return []block{{span: span{0, len(doc.Text)}}}
	}

	var blocks []block
	if doc.Boundaries[0].Offset > 0 {
		blocks = append(blocks, block{span: span{0, doc.Boundaries[0].Offset}})
	}
	for i, b := range doc.Boundaries {
		end := len(doc.Text)
		if i+1 < len(doc.Boundaries) {
			end = doc.Boundaries[i+1].Offset
		}
		blocks = append(blocks, block{span: span{b.Offset, end}, label: b.Label})
	}
	return blocks
}

// chunkBlock accumulates the block's paragraphs into chunk spans, starting
// each new chunk with the trailing paragraphs of the previous one so that
// consecutive chunks overlap by roughly OverlapTokens.
func (c *Chunker) chunkBlock(text string, b span) []span {
	paras := scanParagraphs(text, b)
	if len(paras) == 0 {
		return nil
	}

	var out []span
	var buf []span
	bufTokens := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		out = append(out, span{buf[0].start, buf[len(buf)-1].end})
		buf = nil
		bufTokens = 0
	}

	for _, p := range paras {
		pt := TokenCount(text[p.start:p.end])

		// A single paragraph longer than MaxTokens is hard-split into
		// overlapping word windows.
		if pt > c.config.MaxTokens {
			flush()
			out = append(out, c.splitLongParagraph(text, p)...)
			continue
		}

		if len(buf) > 0 && bufTokens+pt > c.config.MaxTokens {
			tail := c.overlapTail(text, buf)
			flush()
			buf = tail
			for _, t := range buf {
				bufTokens += TokenCount(text[t.start:t.end])
			}
		}

		buf = append(buf, p)
		bufTokens += pt
	}

	flush()
	return out
}

// overlapTail returns the trailing paragraphs of the buffer amounting to
// at least OverlapTokens, always leaving at least one paragraph behind so
// the next chunk makes progress.
func (c *Chunker) overlapTail(text string, buf []span) []span {
	if c.config.OverlapTokens == 0 || len(buf) < 2 {
		return nil
	}
	tokens := 0
	i := len(buf)
	for i > 1 && tokens < c.config.OverlapTokens {
		i--
		tokens += TokenCount(text[buf[i].start:buf[i].end])
	}
	tail := make([]span, len(buf)-i)
	copy(tail, buf[i:])
	return tail
}

// splitLongParagraph cuts an oversized paragraph into word windows of
// MaxTokens with the configured overlap between consecutive windows.
func (c *Chunker) splitLongParagraph(text string, p span) []span {
	words := scanWords(text, p)
	if len(words) == 0 {
		return nil
	}

	step := c.config.MaxTokens - c.config.OverlapTokens
	if step < 1 {
		step = 1
	}

	var out []span
	for i := 0; ; i += step {
		end := i + c.config.MaxTokens
		if end > len(words) {
			end = len(words)
		}
		out = append(out, span{words[i].start, words[end-1].end})
		if end == len(words) {
			break
		}
	}
	return out
}

// scanParagraphs returns the trimmed paragraph spans inside a block,
// splitting on blank lines. Offsets are absolute document offsets.
func scanParagraphs(text string, b span) []span {
	body := text[b.start:b.end]
	seps := paragraphSeparatorRe.FindAllStringIndex(body, -1)

	var out []span
	prev := 0
	emit := func(lo, hi int) {
		s, ok := trimSpan(body, lo, hi)
		if ok {
			out = append(out, span{b.start + s.start, b.start + s.end})
		}
	}
	for _, sep := range seps {
		emit(prev, sep[0])
		prev = sep[1]
	}
	emit(prev, len(body))
	return out
}

// scanWords returns the word spans inside a paragraph.
func scanWords(text string, p span) []span {
	var out []span
	start := -1
	for i := p.start; i < p.end; i++ {
		space := unicode.IsSpace(rune(text[i]))
		if !space && start < 0 {
			start = i
		}
		if space && start >= 0 {
			out = append(out, span{start, i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, span{start, p.end})
	}
	return out
}

// trimSpan shrinks [lo, hi) to its non-whitespace extent.
func trimSpan(s string, lo, hi int) (span, bool) {
	for lo < hi && unicode.IsSpace(rune(s[lo])) {
		lo++
	}
	for hi > lo && unicode.IsSpace(rune(s[hi-1])) {
		hi--
	}
	if lo >= hi {
		return span{}, false
	}
	return span{lo, hi}, true
}
