package mdpresent

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Layout names the visual template a slide is rendered with.
type Layout string

const (
	LayoutDefault   Layout = "default"
	LayoutTitle     Layout = "title"
	LayoutTwoCols   Layout = "two-cols"
	LayoutCode      Layout = "code"
	LayoutQuote     Layout = "quote"
	LayoutSection   Layout = "section"
	LayoutEnd       Layout = "end"
	LayoutFullImage Layout = "full-image"
)

var knownLayouts = map[Layout]bool{
	LayoutDefault:   true,
	LayoutTitle:     true,
	LayoutTwoCols:   true,
	LayoutCode:      true,
	LayoutQuote:     true,
	LayoutSection:   true,
	LayoutEnd:       true,
	LayoutFullImage: true,
}

// Valid reports whether l is one of the known layouts.
func (l Layout) Valid() bool {
	return knownLayouts[l]
}

const (
	rightColumnMarker = "::right::"
	leftColumnMarker  = "::left::"

	// a slide is code heavy when its character count / (blocks * 100) stays
	// below this
	codeDensityRatio = 5.0
	sectionMaxLength = 50
)

var (
	layoutDirectiveRe = regexp.MustCompile(`^layout:\s*([\w-]+)\s*$`)
	codeBlockRe       = regexp.MustCompile("(?s)```.*?```")
)

// parseLayoutDirective consumes a leading "layout: <name>" line. The
// directive line is stripped even when the name is unknown, in which case
// ok is false and the caller falls back to detection.
func parseLayoutDirective(content string) (layout Layout, rest string, found bool, ok bool) {
	firstLine, remainder := content, ""
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		firstLine, remainder = content[:i], content[i+1:]
	}
	m := layoutDirectiveRe.FindStringSubmatch(strings.TrimSpace(firstLine))
	if m == nil {
		return "", content, false, false
	}
	layout = Layout(m[1])
	return layout, strings.TrimSpace(remainder), true, layout.Valid()
}

func nonBlankLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// detectLayout guesses a layout from the structure of the raw slide
// markdown. Rules are tested in priority order, the first match wins. The
// line based rules look at the first line as written, an indented "# " is
// not a heading.
func detectLayout(content string) Layout {
	lines := nonBlankLines(content)
	first := ""
	if len(lines) > 0 {
		first = strings.TrimRight(lines[0], " \t")
	}
	isHeading := strings.HasPrefix(first, "# ")
	isShortHeading := len(lines) == 1 && isHeading && utf8.RuneCountInString(first) < sectionMaxLength

	// A lone short heading is a section divider, everything else with at
	// most two lines under a top level heading is a title slide.
	if len(lines) <= 2 && isHeading && !isShortHeading {
		return LayoutTitle
	}
	if strings.HasPrefix(first, ">") {
		return LayoutQuote
	}
	if blocks := len(codeBlockRe.FindAllStringIndex(content, -1)); blocks > 0 {
		if float64(utf8.RuneCountInString(content))/float64(blocks*100) < codeDensityRatio {
			return LayoutCode
		}
	}
	if strings.Contains(content, rightColumnMarker) || strings.Contains(content, leftColumnMarker) {
		return LayoutTwoCols
	}
	if isShortHeading {
		return LayoutSection
	}
	lower := strings.ToLower(content)
	if strings.Contains(lower, "thank you") || strings.Contains(lower, "questions") {
		return LayoutEnd
	}
	return LayoutDefault
}
