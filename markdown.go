package mdpresent

import (
	"html"
	"html/template"
	"regexp"
	"strings"

	blackfriday "gopkg.in/russross/blackfriday.v2"
)

const notesExtensions = blackfriday.NoIntraEmphasis | blackfriday.Tables | blackfriday.FencedCode |
	blackfriday.Strikethrough | blackfriday.SpaceHeadings | blackfriday.BackslashLineBreak

// stage is a single rewrite step of the slide markdown converter.
type stage struct {
	name  string
	apply func(string) string
}

func replaceStage(name, pattern, repl string) stage {
	re := regexp.MustCompile(pattern)
	return stage{name: name, apply: func(in string) string {
		return re.ReplaceAllString(in, repl)
	}}
}

var (
	listRunRe    = regexp.MustCompile(`(?m)(?:^<li>.*</li>(?:\n|$))+`)
	fencedCodeRe = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)```")
)

// The order matters: later stages see the output of earlier ones. Nested
// constructs (a list inside a quote, markup inside code) come out mangled
// and that is accepted, slides are expected to stay simple.
var markdownStages = []stage{
	replaceStage("h3", `(?m)^### (.*)$`, "<h3>$1</h3>"),
	replaceStage("h2", `(?m)^## (.*)$`, "<h2>$1</h2>"),
	replaceStage("h1", `(?m)^# (.*)$`, "<h1>$1</h1>"),
	replaceStage("bold", `\*\*(.*?)\*\*`, "<strong>$1</strong>"),
	replaceStage("italic", `\*(.*?)\*`, "<em>$1</em>"),
	replaceStage("list-item", `(?m)^[*-] (.*)$`, "<li>$1</li>"),
	{name: "list", apply: wrapListRuns},
	{name: "fenced-code", apply: renderFencedCode},
	replaceStage("inline-code", "`([^`]+)`", "<code>$1</code>"),
	replaceStage("blockquote", `(?m)^> (.*)$`, "<blockquote>$1</blockquote>"),
	{name: "paragraphs", apply: func(in string) string { return strings.Replace(in, "\n\n", "</p><p>", -1) }},
	{name: "line-breaks", apply: func(in string) string { return strings.Replace(in, "\n", "<br>", -1) }},
	{name: "wrap", apply: func(in string) string {
		if strings.HasPrefix(in, "<") {
			return in
		}
		return "<p>" + in + "</p>"
	}},
}

func wrapListRuns(in string) string {
	return listRunRe.ReplaceAllStringFunc(in, func(run string) string {
		trailing := ""
		if strings.HasSuffix(run, "\n") {
			run, trailing = strings.TrimSuffix(run, "\n"), "\n"
		}
		return "<ul>" + run + "</ul>" + trailing
	})
}

func renderFencedCode(in string) string {
	return fencedCodeRe.ReplaceAllStringFunc(in, func(block string) string {
		m := fencedCodeRe.FindStringSubmatch(block)
		lang := m[1]
		if lang == "" {
			lang = "text"
		}
		return `<pre><code class="language-` + lang + `">` + html.EscapeString(m[2]) + `</code></pre>`
	})
}

// markdownToHTML runs the fixed converter pipeline over content.
func markdownToHTML(content string) string {
	out := content
	for _, s := range markdownStages {
		out = s.apply(out)
	}
	return out
}

// renderSlideHTML converts slide markdown, splitting two column slides on
// the ::right:: marker and converting each column on its own.
func renderSlideHTML(content string) template.HTML {
	if !strings.Contains(content, rightColumnMarker) {
		return template.HTML(markdownToHTML(content))
	}
	parts := strings.SplitN(content, rightColumnMarker, 2)
	left := strings.TrimSpace(strings.Replace(parts[0], leftColumnMarker, "", 1))
	right := strings.TrimSpace(parts[1])
	return template.HTML(`<div class="two-cols" style="display:flex;gap:2rem">` +
		`<div class="col col-left" style="flex:1">` + markdownToHTML(left) + `</div>` +
		`<div class="col col-right" style="flex:1">` + markdownToHTML(right) + `</div>` +
		`</div>`)
}

// renderNotes renders speaker notes for the presenter view. Notes are full
// markdown, unlike slides.
func renderNotes(notes string) template.HTML {
	if notes == "" {
		return ""
	}
	return template.HTML(blackfriday.Run([]byte(notes), blackfriday.WithExtensions(notesExtensions)))
}
