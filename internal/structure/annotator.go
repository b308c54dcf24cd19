// Package structure tracks Part/Subpart/Section context across the pages of
// a regulation and groups the annotated lines into section blocks.
package structure

import (
	"iter"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/regchunk/internal/regdoc"
)

var (
	partRe    = regexp.MustCompile(`(?i)^PART\s+(\d{3})`)
	subpartRe = regexp.MustCompile(`(?i)^SUBPART\s+([A-Z])(?:[\s—\-:]+(.+))?`)
	headerRe  = regexp.MustCompile(`(?i)^[\s\p{Zs}]*§[\s\p{Zs}]*(\d{3}\.\d+)[\s\p{Zs}]{2,}`)

	subpartTitleNoise = regexp.MustCompile(`[.—\-:]+`)
)

// Step applies one line to the running state. Markers are tested in order
// part, subpart, section header; the first match wins and at most one field
// group changes. Lines that only resemble a marker are plain text.
func Step(st regdoc.State, line string) (regdoc.State, regdoc.Marker) {
	if m := partRe.FindStringSubmatch(line); m != nil {
		st.Part = m[1]
		st.Subpart = ""
		return st, regdoc.MarkerPart
	}
	if m := subpartRe.FindStringSubmatch(line); m != nil {
		st.Subpart = m[1]
		st.Title = ""
		if m[2] != "" {
			st.Title = strings.TrimSpace(subpartTitleNoise.ReplaceAllString(m[2], " "))
		}
		return st, regdoc.MarkerSubpart
	}
	if loc := headerRe.FindStringSubmatchIndex(line); loc != nil {
		st.Section = line[loc[2]:loc[3]]
		st.Title = headerTitle(line[loc[3]:])
		return st, regdoc.MarkerSection
	}
	return st, regdoc.MarkerNone
}

func headerTitle(rest string) string {
	rest = strings.TrimLeftFunc(rest, func(r rune) bool {
		return r == '.' || unicode.IsSpace(r)
	})
	return strings.TrimSpace(rest)
}

// Annotator walks pages line by line. BodyStartMarker is the heading that
// ends the table of contents; StartInTOC makes the pass skip pages until a
// page containing the marker is seen.
type Annotator struct {
	BodyStartMarker string
	StartInTOC      bool
}

// Annotate returns the annotated lines of one document pass. Each call to
// the returned sequence starts a fresh pass with empty state.
func (a Annotator) Annotate(pages []regdoc.Page) iter.Seq[regdoc.AnnotatedLine] {
	return func(yield func(regdoc.AnnotatedLine) bool) {
		var st regdoc.State
		inTOC := a.StartInTOC
		for _, p := range pages {
			if inTOC && a.BodyStartMarker != "" && strings.Contains(p.Text, a.BodyStartMarker) {
				inTOC = false
			}
			if inTOC {
				continue
			}
			for _, line := range SplitLines(p.Text) {
				var m regdoc.Marker
				st, m = Step(st, line)
				if !yield(regdoc.AnnotatedLine{Page: p.Number, State: st, Text: line, Marker: m}) {
					return
				}
			}
		}
	}
}

// SplitLines splits page text at line boundaries: \n, \r\n, \r, \v, \f,
// the file, group and record separators (\x1c to \x1e), NEL (U+0085) and
// the Unicode line and paragraph separators. A trailing terminator does not
// produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	start := 0
	for i, r := range text {
		if i < start {
			continue // the \n of a \r\n pair
		}
		switch r {
		case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			lines = append(lines, text[start:i])
			start = i + utf8.RuneLen(r)
		case '\r':
			lines = append(lines, text[start:i])
			start = i + 1
			if start < len(text) && text[start] == '\n' {
				start++
			}
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
