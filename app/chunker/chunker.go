package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	defaultMinChunkSize     = 120
	defaultTargetChunkSize  = 350
	defaultMaxChunkSize     = 700
	defaultOverlapBlocks    = 1
	defaultPseudoParagraph  = 300
	shortLineThreshold      = 80
	headingLengthThreshold  = 60
	breadcrumbMinSeparators = 3
)

var defaultHeadingPrefixes = []string{
	"chapter", "section", "part", "appendix", "introduction",
	"overview", "summary", "conclusion", "contents", "faq",
}

// Words that almost always refer back to the previous paragraph. A chunk
// starting with one of these loses its referent, so the post-pass re-attaches
// the previous block.
var defaultConnectives = []string{
	"it", "its", "this", "that", "these", "those", "they", "them", "their",
	"he", "she", "also", "therefore", "however", "moreover", "furthermore",
	"additionally", "instead", "otherwise", "thus", "hence", "such",
}

var defaultBoilerplatePhrases = []string{
	"cookie", "privacy", "subscribe", "sign in", "log in", "login",
	"accept all", "terms of",
}

var (
	sentenceEndRe = regexp.MustCompile(`([.!?])\s+`)
	zeroWidthRe   = regexp.MustCompile("[\u200b\u200c\u200d\ufeff]")
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
)

// Options tunes the segmentation heuristics. The thresholds and word lists
// are locale-sensitive guesses, not invariants; override them per corpus.
type Options struct {
	MinChunkSize        int
	TargetChunkSize     int
	MaxChunkSize        int
	OverlapBlocks       int
	PseudoParagraphSize int
	HeadingPrefixes     []string
	Connectives         []string
	BoilerplatePhrases  []string
}

func DefaultOptions() Options {
	return Options{
		MinChunkSize:        defaultMinChunkSize,
		TargetChunkSize:     defaultTargetChunkSize,
		MaxChunkSize:        defaultMaxChunkSize,
		OverlapBlocks:       defaultOverlapBlocks,
		PseudoParagraphSize: defaultPseudoParagraph,
		HeadingPrefixes:     defaultHeadingPrefixes,
		Connectives:         defaultConnectives,
		BoilerplatePhrases:  defaultBoilerplatePhrases,
	}
}

type Chunk struct {
	ID         string
	DocumentID string
	Ordinal    int
	Text       string
}

type Chunker struct {
	opts        Options
	connectives map[string]bool
}

func New(opts Options) *Chunker {
	def := DefaultOptions()
	if opts.MinChunkSize <= 0 {
		opts.MinChunkSize = def.MinChunkSize
	}
	if opts.TargetChunkSize <= 0 {
		opts.TargetChunkSize = def.TargetChunkSize
	}
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = def.MaxChunkSize
	}
	if opts.OverlapBlocks < 0 {
		opts.OverlapBlocks = def.OverlapBlocks
	}
	if opts.PseudoParagraphSize <= 0 {
		opts.PseudoParagraphSize = def.PseudoParagraphSize
	}
	if opts.HeadingPrefixes == nil {
		opts.HeadingPrefixes = def.HeadingPrefixes
	}
	if opts.Connectives == nil {
		opts.Connectives = def.Connectives
	}
	if opts.BoilerplatePhrases == nil {
		opts.BoilerplatePhrases = def.BoilerplatePhrases
	}
	connectives := make(map[string]bool, len(opts.Connectives))
	for _, w := range opts.Connectives {
		connectives[strings.ToLower(w)] = true
	}
	return &Chunker{opts: opts, connectives: connectives}
}

// Chunk splits a document into ordered, overlapping chunks. It is pure and
// deterministic: the same (docID, text) pair always yields the same sequence.
func (c *Chunker) Chunk(docID, text string) []Chunk {
	normalized := normalize(text)
	if normalized == "" {
		return nil
	}

	blocks := c.extractBlocks(normalized)
	blocks = c.mergeTinyBlocks(blocks)
	if len(blocks) == 0 {
		return nil
	}

	grouped := c.packChunks(blocks)
	grouped = c.restoreContext(grouped)

	chunks := make([]Chunk, 0, len(grouped))
	for _, group := range grouped {
		body := strings.TrimSpace(strings.Join(group, "\n\n"))
		if body == "" {
			continue
		}
		ordinal := len(chunks)
		chunks = append(chunks, Chunk{
			ID:         fmt.Sprintf("%s#chunk%d", docID, ordinal),
			DocumentID: docID,
			Ordinal:    ordinal,
			Text:       body,
		})
	}
	return chunks
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = zeroWidthRe.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// extractBlocks turns normalized text into paragraph blocks. Texts without
// blank-line separation fall back to regrouping single lines into
// pseudo-paragraphs.
func (c *Chunker) extractBlocks(text string) []string {
	if strings.Contains(text, "\n\n") {
		var blocks []string
		for _, para := range strings.Split(text, "\n\n") {
			if block, ok := c.cleanBlock(para); ok {
				blocks = append(blocks, block)
			}
		}
		return blocks
	}
	return c.regroupLines(strings.Split(text, "\n"))
}

// cleanBlock drops boilerplate lines inside a candidate paragraph and joins
// the survivors with single spaces. Single-line heading blocks survive as-is.
func (c *Chunker) cleanBlock(para string) (string, bool) {
	var kept []string
	for _, line := range strings.Split(para, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || c.isBoilerplate(line) {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		return "", false
	}
	if len(kept) == 1 && c.looksLikeHeading(kept[0]) {
		return kept[0], true
	}
	return strings.Join(kept, " "), true
}

func (c *Chunker) regroupLines(lines []string) []string {
	var blocks []string
	var group []string
	groupLen := 0

	flush := func() {
		if len(group) > 0 {
			blocks = append(blocks, strings.Join(group, " "))
			group = nil
			groupLen = 0
		}
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || c.isBoilerplate(line) {
			continue
		}
		if c.looksLikeHeading(line) {
			flush()
			blocks = append(blocks, line)
			continue
		}
		group = append(group, line)
		groupLen += len(line) + 1
		if groupLen >= c.opts.PseudoParagraphSize {
			flush()
		}
	}
	flush()
	return blocks
}

func (c *Chunker) isBoilerplate(line string) bool {
	if len(line) <= 2 {
		return true
	}
	if len(line) < shortLineThreshold {
		lower := strings.ToLower(line)
		for _, phrase := range c.opts.BoilerplatePhrases {
			if strings.Contains(lower, phrase) {
				return true
			}
		}
	}
	if len(line) < shortLineThreshold+40 && strings.Count(line, " / ") >= breadcrumbMinSeparators {
		return true
	}
	return mostlySeparators(line)
}

func mostlySeparators(line string) bool {
	separators := 0
	for _, r := range line {
		if strings.ContainsRune("-=_*~#+|.·•", r) || unicode.IsSpace(r) {
			separators++
		}
	}
	return separators*10 >= len([]rune(line))*8
}

func (c *Chunker) looksLikeHeading(line string) bool {
	if len(line) > headingLengthThreshold {
		return false
	}
	if strings.HasPrefix(line, "#") {
		return true
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	first := strings.ToLower(strings.Trim(fields[0], ":.,"))
	for _, prefix := range c.opts.HeadingPrefixes {
		if first == prefix {
			return true
		}
	}
	capitalized := 0
	for _, f := range fields {
		r := []rune(f)[0]
		if unicode.IsUpper(r) {
			capitalized++
		}
	}
	return capitalized >= 2
}

// mergeTinyBlocks folds blocks below the minimum size into the block that
// follows them, so a stray heading or one-liner never retrieves alone.
func (c *Chunker) mergeTinyBlocks(blocks []string) []string {
	var merged []string
	pending := ""
	for _, block := range blocks {
		if pending != "" {
			block = pending + "\n" + block
			pending = ""
		}
		if len(block) < c.opts.MinChunkSize {
			pending = block
			continue
		}
		merged = append(merged, block)
	}
	if pending != "" {
		if len(merged) > 0 {
			merged[len(merged)-1] = merged[len(merged)-1] + "\n" + pending
		} else {
			merged = append(merged, pending)
		}
	}
	return merged
}

// packChunks accumulates blocks into chunks bounded by MaxChunkSize, flushing
// at TargetChunkSize and seeding each new chunk with the tail blocks of the
// previous one.
func (c *Chunker) packChunks(blocks []string) [][]string {
	var chunks [][]string
	var current []string
	currentLen := 0
	freshBlocks := 0 // blocks in current that are not overlap seed

	flush := func() {
		if freshBlocks == 0 {
			return
		}
		emitted := current
		chunks = append(chunks, emitted)

		overlap := c.opts.OverlapBlocks
		if overlap > len(emitted) {
			overlap = len(emitted)
		}
		current = nil
		currentLen = 0
		freshBlocks = 0
		for _, b := range emitted[len(emitted)-overlap:] {
			current = append(current, b)
			currentLen += len(b) + 2
		}
	}

	add := func(piece string) {
		if currentLen > 0 && currentLen+len(piece) > c.opts.MaxChunkSize {
			flush()
		}
		current = append(current, piece)
		currentLen += len(piece) + 2
		freshBlocks++
		if currentLen >= c.opts.TargetChunkSize && currentLen >= c.opts.MinChunkSize {
			flush()
		}
	}

	for _, block := range blocks {
		if len(block) > c.opts.MaxChunkSize {
			for _, piece := range splitAtSentences(block, c.opts.MaxChunkSize) {
				add(piece)
			}
			continue
		}
		add(block)
	}
	flush()
	return chunks
}

// splitAtSentences breaks an oversized block after sentence-ending punctuation
// and re-packs the sentences up to max. A boundary-free run stays whole rather
// than being cut mid-sentence.
func splitAtSentences(block string, max int) []string {
	marked := sentenceEndRe.ReplaceAllString(block, "$1\x00")
	sentences := strings.Split(marked, "\x00")

	var pieces []string
	var buf strings.Builder
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if buf.Len() > 0 && buf.Len()+len(s)+1 > max {
			pieces = append(pieces, buf.String())
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(s)
	}
	if buf.Len() > 0 {
		pieces = append(pieces, buf.String())
	}
	return pieces
}

// restoreContext prepends the previous chunk's closing block when a chunk
// opens with a referential word, unless the overlap seed already carries it.
func (c *Chunker) restoreContext(chunks [][]string) [][]string {
	for i := 1; i < len(chunks); i++ {
		if len(chunks[i]) == 0 {
			continue
		}
		if !c.startsWithConnective(chunks[i][0]) {
			continue
		}
		prev := chunks[i-1]
		lastBlock := prev[len(prev)-1]
		if chunks[i][0] == lastBlock {
			continue
		}
		chunks[i] = append([]string{lastBlock}, chunks[i]...)
	}
	return chunks
}

func (c *Chunker) startsWithConnective(block string) bool {
	fields := strings.Fields(block)
	if len(fields) == 0 {
		return false
	}
	word := strings.ToLower(strings.Trim(fields[0], ",.;:!?\"'()"))
	return c.connectives[word]
}
