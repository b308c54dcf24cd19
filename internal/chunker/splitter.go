package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Config controls chunking behavior. Sizes are in characters.
type Config struct {
	ChunkSize    int      // Target maximum chunk length.
	ChunkOverlap int      // Characters carried over between consecutive chunks.
	Separators   []string // Split points in priority order.
}

// DefaultSeparators prefers paragraph breaks, then line breaks, then sentence ends.
var DefaultSeparators = []string{"\n\n", "\n", ". "}

// DefaultConfig returns the 1200/200 defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1200,
		ChunkOverlap: 200,
		Separators:   append([]string(nil), DefaultSeparators...),
	}
}

// Validate checks that the sizes are usable.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap must not be negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap > c.ChunkSize {
		return fmt.Errorf("chunk overlap %d larger than chunk size %d", c.ChunkOverlap, c.ChunkSize)
	}
	if c.Separators != nil && len(c.Separators) == 0 {
		return fmt.Errorf("separator list must not be empty")
	}
	for _, s := range c.Separators {
		if s == "" {
			return fmt.Errorf("empty separator in list")
		}
	}
	return nil
}

// Splitter breaks text into bounded, overlapping pieces, cutting at the
// highest-priority separator present and recursing into pieces that are
// still too long. When no separator is left the text is cut per character.
type Splitter struct {
	cfg Config
}

// NewSplitter validates cfg and returns a Splitter.
func NewSplitter(cfg Config) (*Splitter, error) {
	if cfg.Separators == nil {
		cfg.Separators = DefaultSeparators
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Splitter{cfg: cfg}, nil
}

// Split returns the pieces of text in order. Every piece is a contiguous,
// whitespace-trimmed slice of the input.
func (s *Splitter) Split(text string) []string {
	return s.split(text, s.cfg.Separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := ""
	var rest []string
	for i, candidate := range separators {
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var (
		out  []string
		good []string
	)
	for _, piece := range splitKeepingSeparator(text, sep) {
		if length(piece) < s.cfg.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			out = append(out, s.merge(good)...)
			good = nil
		}
		if sep == "" {
			out = append(out, piece)
			continue
		}
		out = append(out, s.split(piece, rest)...)
	}
	if len(good) > 0 {
		out = append(out, s.merge(good)...)
	}
	return out
}

// merge packs adjacent pieces into chunks no longer than ChunkSize and
// seeds each new chunk with trailing pieces of the previous one, up to
// ChunkOverlap characters.
func (s *Splitter) merge(pieces []string) []string {
	var (
		out     []string
		current []string
		total   int
	)
	for _, p := range pieces {
		n := length(p)
		if total+n > s.cfg.ChunkSize && len(current) > 0 {
			if doc := join(current); doc != "" {
				out = append(out, doc)
			}
			for total > s.cfg.ChunkOverlap || (total+n > s.cfg.ChunkSize && total > 0) {
				total -= length(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	if doc := join(current); doc != "" {
		out = append(out, doc)
	}
	return out
}

// splitKeepingSeparator cuts text before each occurrence of sep so the
// separator leads the following piece. An empty sep splits per character.
func splitKeepingSeparator(text, sep string) []string {
	var pieces []string
	if sep == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}
	parts := strings.Split(text, sep)
	if parts[0] != "" {
		pieces = append(pieces, parts[0])
	}
	for _, p := range parts[1:] {
		pieces = append(pieces, sep+p)
	}
	return pieces
}

func join(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
