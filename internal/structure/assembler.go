package structure

import (
	"iter"
	"strings"

	"github.com/dgallion1/regchunk/internal/regdoc"
)

// Assemble groups annotated lines into section blocks.
//
// A block closes only when a section header names a different section than
// the open block; a repeated header for the same section (a running header
// reprint) continues it, and part/subpart markers alone never close it.
// Blocks whose text is entirely blank are dropped. A block holding nothing
// but part/subpart marker lines is not emitted on its own: its lines open
// the next section block instead.
func Assemble(lines iter.Seq[regdoc.AnnotatedLine]) []regdoc.Block {
	var (
		blocks      []regdoc.Block
		buf         []string
		cur         *regdoc.Metadata
		markersOnly bool
	)

	open := func(l regdoc.AnnotatedLine, pageStart int) {
		md := regdoc.NewMetadata(l.State, l.Page)
		md.PageStart = pageStart
		cur = &md
	}

	for l := range lines {
		switch {
		case cur == nil:
			open(l, l.Page)
			markersOnly = true
		case l.Marker == regdoc.MarkerSection && l.State.Section != cur.Section:
			switch {
			case !hasContent(buf):
				open(l, l.Page)
				buf = nil
			case markersOnly:
				open(l, cur.PageStart)
			default:
				blocks = append(blocks, finalize(*cur, buf))
				open(l, l.Page)
				buf = nil
			}
			markersOnly = true
		}
		buf = append(buf, l.Text)
		cur.PageEnd = l.Page
		if !isMarkerOrBlank(l) {
			markersOnly = false
		}
	}
	if cur != nil && hasContent(buf) {
		blocks = append(blocks, finalize(*cur, buf))
	}

	return blocks
}

func finalize(md regdoc.Metadata, buf []string) regdoc.Block {
	return regdoc.Block{Metadata: md, Text: strings.Join(buf, "\n")}
}

func isMarkerOrBlank(l regdoc.AnnotatedLine) bool {
	return l.Marker == regdoc.MarkerPart || l.Marker == regdoc.MarkerSubpart || strings.TrimSpace(l.Text) == ""
}

func hasContent(buf []string) bool {
	for _, s := range buf {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}
