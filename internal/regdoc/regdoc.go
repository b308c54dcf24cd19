// Package regdoc holds the data model shared by the annotator, assembler,
// splitter and emitter: pages, structural state, blocks and chunks.
package regdoc

// Page is one physical page of raw extracted text. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// State is the running structural position inside a regulation.
// Empty strings mean the locator has not been seen yet.
type State struct {
	Part    string
	Subpart string
	Section string
	Title   string
}

// Marker identifies which structural marker a line carried.
type Marker int

const (
	MarkerNone Marker = iota
	MarkerPart
	MarkerSubpart
	MarkerSection
)

func (m Marker) String() string {
	switch m {
	case MarkerPart:
		return "part"
	case MarkerSubpart:
		return "subpart"
	case MarkerSection:
		return "section"
	default:
		return "none"
	}
}

// AnnotatedLine is a single raw line tagged with the state in effect
// after the line was read.
type AnnotatedLine struct {
	Page   int
	State  State
	Text   string
	Marker Marker
}

// Metadata is the provenance carried by blocks and chunks.
type Metadata struct {
	Part      string `json:"part" yaml:"part"`
	Subpart   string `json:"subpart" yaml:"subpart"`
	Section   string `json:"section" yaml:"section"`
	Title     string `json:"title" yaml:"title"`
	PageStart int    `json:"page_start" yaml:"page_start"`
	PageEnd   int    `json:"page_end" yaml:"page_end"`
	Citation  string `json:"citation" yaml:"citation"`
	ChunkID   string `json:"chunk_id" yaml:"chunk_id"`
}

// Block is the content of one contiguous section before size-based splitting.
// Metadata.ChunkID holds the block base id ("<part>-<suffix>-00").
type Block struct {
	Metadata `yaml:",inline"`
	Text     string `json:"text" yaml:"text"`
}

// Chunk is the terminal indexed unit.
type Chunk struct {
	PageContent string   `json:"page_content" yaml:"page_content"`
	Metadata    Metadata `json:"metadata" yaml:"metadata"`
	Sequence    int      `json:"-" yaml:"-"`
}

// NewMetadata builds block metadata from a state snapshot. Absent locators
// become Unknown.
func NewMetadata(st State, page int) Metadata {
	return Metadata{
		Part:      orUnknown(st.Part),
		Subpart:   orUnknown(st.Subpart),
		Section:   orUnknown(st.Section),
		Title:     orUnknown(st.Title),
		PageStart: page,
		PageEnd:   page,
		Citation:  Citation(st.Section),
		ChunkID:   BaseID(st.Part, st.Section),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

// Document identifies the source a chunk batch was produced from.
type Document struct {
	ID          string `json:"doc_id" yaml:"doc_id"`
	Filename    string `json:"filename" yaml:"filename"`
	Title       string `json:"title" yaml:"title"`
	ContentHash string `json:"content_hash" yaml:"content_hash"`
	PageCount   int    `json:"page_count" yaml:"page_count"`
}
