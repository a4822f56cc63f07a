package services

import (
	"strings"
	"unicode/utf8"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

// TextChunker splits guidance documents into pieces small enough to embed.
type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText packs paragraphs into chunks of at most maxChunkSize runes.
// Paragraphs that are too long on their own are split into sentences; only a
// single sentence longer than maxChunkSize can exceed the limit. Each new
// chunk starts with up to overlap runes from the end of the previous one,
// fewer when the full overlap would not leave room for the next piece.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	c := &chunkAccumulator{max: maxChunkSize, overlap: overlap}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= maxChunkSize {
			c.add(para, "\n\n")
			continue
		}

		for _, sentence := range splitIntoSentences(para) {
			c.add(sentence, " ")
		}
	}

	return c.finish()
}

type chunkAccumulator struct {
	max     int
	overlap int
	chunks  []string
	current strings.Builder
	size    int
}

func (c *chunkAccumulator) add(piece, sep string) {
	pieceLen := utf8.RuneCountInString(piece)
	sepLen := utf8.RuneCountInString(sep)
	if c.size > 0 && c.size+sepLen+pieceLen > c.max {
		c.flush(c.max - sepLen - pieceLen)
	}
	if c.size > 0 {
		c.write(sep)
	}
	c.write(piece)
}

// flush closes the current chunk and seeds the next one with an overlap of at
// most room runes.
func (c *chunkAccumulator) flush(room int) {
	prev := c.current.String()
	c.chunks = append(c.chunks, prev)
	c.current.Reset()
	c.size = 0

	c.write(lastNRunes(prev, min(c.overlap, room)))
}

func (c *chunkAccumulator) write(s string) {
	c.current.WriteString(s)
	c.size += utf8.RuneCountInString(s)
}

func (c *chunkAccumulator) finish() []string {
	if strings.TrimSpace(c.current.String()) != "" {
		c.chunks = append(c.chunks, c.current.String())
	}
	return c.chunks
}

func splitIntoSentences(text string) []string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var result []string
	for _, s := range sentences {
		if s = strings.TrimSpace(s); s != "" {
			result = append(result, s+".")
		}
	}
	return result
}

func lastNRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}
