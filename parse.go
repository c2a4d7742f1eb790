package mdpresent

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
)

// Frontmatter holds the key/value metadata block at the top of a document.
// Values are kept as plain strings.
type Frontmatter map[string]string

// Slide is one unit of a presentation. Slides are values, a new parse
// replaces all of them.
type Slide struct {
	Index        int           `json:"index"`
	Content      string        `json:"content"`
	HTML         template.HTML `json:"html"`
	SpeakerNotes string        `json:"speakerNotes"`
	NotesHTML    template.HTML `json:"notesHtml,omitempty"`
	Layout       Layout        `json:"layout"`
}

func (s Slide) HasNotes() bool {
	return len(s.SpeakerNotes) > 0
}

// Presentation is the result of parsing a markdown document.
type Presentation struct {
	Frontmatter Frontmatter `json:"frontmatter"`
	Slides      []Slide     `json:"slides"`
	TotalSlides int         `json:"totalSlides"`
	Error       string      `json:"error,omitempty"`
}

// Slide returns the slide at index i or nil.
func (p *Presentation) Slide(i int) *Slide {
	if p == nil || i < 0 || i >= len(p.Slides) {
		return nil
	}
	return &p.Slides[i]
}

var headingRe = regexp.MustCompile(`(?m)^#{1,6} (.+)$`)

// Title is the frontmatter title, or the first heading of the first slide.
func (p *Presentation) Title() string {
	if p == nil {
		return ""
	}
	if t := p.Frontmatter["title"]; t != "" {
		return t
	}
	if first := p.Slide(0); first != nil {
		if m := headingRe.FindStringSubmatch(first.Content); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

var (
	frontMatterRe    = regexp.MustCompile(`(?s)\A---\n(.*?)\n---(?:\n+|\z)`)
	slideSeparatorRe = regexp.MustCompile(`(?m)^---$`)
	speakerNotesRe   = regexp.MustCompile(`(?s)<!--(.*?)-->`)
)

// slideParser turns one separator delimited chunk into a slide.
var slideParser = parseSlide

func emptyPresentation(err string) *Presentation {
	return &Presentation{
		Frontmatter: Frontmatter{},
		Slides:      []Slide{},
		Error:       err,
	}
}

// Parse turns markdown into a presentation. It never fails: anything going
// wrong while parsing ends up in Presentation.Error with no slides.
func Parse(src string) (pres *Presentation) {
	defer func() {
		if r := recover(); r != nil {
			pres = emptyPresentation(fmt.Sprintf("parse markdown: %v", r))
		}
	}()

	src = strings.Replace(src, "\r\n", "\n", -1)
	fm, body := parseFrontMatter(src)

	pres = emptyPresentation("")
	pres.Frontmatter = fm
	for _, chunk := range splitSlides(body) {
		pres.Slides = append(pres.Slides, slideParser(len(pres.Slides), chunk))
	}
	pres.TotalSlides = len(pres.Slides)
	return pres
}

func parseFrontMatter(in string) (fm Frontmatter, content string) {
	fm = Frontmatter{}
	m := frontMatterRe.FindStringSubmatchIndex(in)
	if m == nil {
		return fm, in
	}
	for _, line := range strings.Split(in[m[2]:m[3]], "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		fm[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return fm, in[m[1]:]
}

// splitSlides splits on separator lines and drops chunks that are empty
// after trimming, so leading, trailing or doubled separators never produce
// a slide.
func splitSlides(body string) []string {
	var chunks []string
	for _, chunk := range slideSeparatorRe.Split(body, -1) {
		if chunk = strings.TrimSpace(chunk); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func extractSpeakerNotes(content string) (notes string, rest string) {
	var found []string
	for _, m := range speakerNotesRe.FindAllStringSubmatch(content, -1) {
		found = append(found, strings.TrimSpace(m[1]))
	}
	return strings.Join(found, "\n\n"), speakerNotesRe.ReplaceAllString(content, "")
}

func parseSlide(index int, raw string) Slide {
	notes, content := extractSpeakerNotes(raw)
	content = strings.TrimSpace(content)

	layout, rest, found, ok := parseLayoutDirective(content)
	if found {
		content = rest
	}
	if !ok {
		layout = detectLayout(content)
	}

	return Slide{
		Index:        index,
		Content:      content,
		HTML:         renderSlideHTML(content),
		SpeakerNotes: notes,
		NotesHTML:    renderNotes(notes),
		Layout:       layout,
	}
}
