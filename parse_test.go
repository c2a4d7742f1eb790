package mdpresent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slideContents(p *Presentation) []string {
	var out []string
	for _, s := range p.Slides {
		out = append(out, s.Content)
	}
	return out
}

func TestParseIsDeterministic(t *testing.T) {
	first := Parse(DefaultMarkdown)
	second := Parse(DefaultMarkdown)
	require.Equal(t, first, second)
	assert.Empty(t, first.Error)
	assert.Equal(t, len(first.Slides), first.TotalSlides)
}

func TestParseDropsEmptySeparatorChunks(t *testing.T) {
	pres := Parse("---\n\na: 1\n---\n\n# A\n---\n---\n# B")
	require.Equal(t, Frontmatter{"a": "1"}, pres.Frontmatter)
	require.Equal(t, 2, pres.TotalSlides)
	assert.Equal(t, []string{"# A", "# B"}, slideContents(pres))
	assert.Equal(t, 0, pres.Slides[0].Index)
	assert.Equal(t, 1, pres.Slides[1].Index)

	pres = Parse("# A\n---\n\n---\n# B\n---\n")
	assert.Equal(t, []string{"# A", "# B"}, slideContents(pres))
}

func TestParseFrontMatter(t *testing.T) {
	pres := Parse("---\ntitle: X\n---\n\nHello")
	assert.Equal(t, Frontmatter{"title": "X"}, pres.Frontmatter)
	require.Equal(t, 1, pres.TotalSlides)
	assert.Equal(t, "Hello", pres.Slides[0].Content)
	assert.Equal(t, "X", pres.Title())

	pres = Parse("---\nurl:  http://example.com \nno colon here\n  author :Jane\n---\nBody")
	assert.Equal(t, Frontmatter{"url": "http://example.com", "author": "Jane"}, pres.Frontmatter)
	assert.Equal(t, []string{"Body"}, slideContents(pres))
}

func TestParseWithoutFrontMatter(t *testing.T) {
	pres := Parse("Hello\n---\nWorld")
	assert.NotNil(t, pres.Frontmatter)
	assert.Len(t, pres.Frontmatter, 0)
	assert.Equal(t, []string{"Hello", "World"}, slideContents(pres))
}

func TestParseEmpty(t *testing.T) {
	pres := Parse("")
	assert.NotNil(t, pres.Slides)
	assert.Equal(t, 0, pres.TotalSlides)
	assert.Empty(t, pres.Error)
	assert.Nil(t, pres.Slide(0))
	assert.Equal(t, "", pres.Title())
}

func TestParseRecoversFromPanics(t *testing.T) {
	orig := slideParser
	defer func() { slideParser = orig }()
	slideParser = func(int, string) Slide {
		panic("broken slide")
	}

	pres := Parse("---\ntitle: X\n---\n# A\n---\n# B")
	assert.Equal(t, &Presentation{
		Frontmatter: Frontmatter{},
		Slides:      []Slide{},
		TotalSlides: 0,
		Error:       "parse markdown: broken slide",
	}, pres)
}

func TestParseNormalizesLineEndings(t *testing.T) {
	pres := Parse("---\r\ntitle: X\r\n---\r\n# A\r\n---\r\n# B")
	assert.Equal(t, "X", pres.Frontmatter["title"])
	assert.Equal(t, []string{"# A", "# B"}, slideContents(pres))
}

func TestParseSpeakerNotes(t *testing.T) {
	pres := Parse("Visible\n\n<!-- note one -->\n\nMore text")
	require.Equal(t, 1, pres.TotalSlides)
	s := pres.Slides[0]
	assert.NotContains(t, s.Content, "<!--")
	assert.Equal(t, "note one", s.SpeakerNotes)
	assert.True(t, s.HasNotes())
	assert.Contains(t, string(s.NotesHTML), "<p>note one</p>")

	pres = Parse("A\n<!-- one -->\nB\n<!--\n two \n-->")
	s = pres.Slides[0]
	assert.Equal(t, "one\n\ntwo", s.SpeakerNotes)
	assert.Equal(t, "A\n\nB", s.Content)

	pres = Parse("No notes")
	assert.Equal(t, "", pres.Slides[0].SpeakerNotes)
	assert.Empty(t, pres.Slides[0].NotesHTML)
}

func TestParseLayoutDirective(t *testing.T) {
	pres := Parse("layout: full-image\n![bg](x.png)\n---\n<!-- n -->\nlayout: quote\nText")
	require.Equal(t, 2, pres.TotalSlides)
	assert.Equal(t, LayoutFullImage, pres.Slides[0].Layout)
	assert.Equal(t, "![bg](x.png)", pres.Slides[0].Content)
	assert.Equal(t, LayoutQuote, pres.Slides[1].Layout)
	assert.Equal(t, "Text", pres.Slides[1].Content)
	assert.Equal(t, "n", pres.Slides[1].SpeakerNotes)
}

func TestParseUnknownLayoutDirectiveFallsBackToDetection(t *testing.T) {
	pres := Parse("layout: fancy\n# Hi")
	require.Equal(t, 1, pres.TotalSlides)
	assert.Equal(t, "# Hi", pres.Slides[0].Content)
	assert.Equal(t, LayoutSection, pres.Slides[0].Layout)
}

func TestParseRendersHTML(t *testing.T) {
	pres := Parse("# Title\nSubtitle\n---\nHello **world**")
	assert.Equal(t, "<h1>Title</h1><br>Subtitle", string(pres.Slides[0].HTML))
	assert.Equal(t, "<p>Hello <strong>world</strong></p>", string(pres.Slides[1].HTML))
}

func TestPresentationTitleFallsBackToHeading(t *testing.T) {
	pres := Parse("Intro text\n## Welcome\n---\n# Later")
	assert.Equal(t, "Welcome", pres.Title())
}
