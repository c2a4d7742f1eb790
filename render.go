package mdpresent

import (
	"bytes"
	"html/template"
)

var Version = "undefined"

var deckTmpl = `[[ define "deck" ]] [[ template "base" . ]] [[ end ]]`

var baseTmpl = `
[[ define "base" ]]
<!DOCTYPE html>
<html>
	<head>
		<meta charset="utf-8">
		<meta name="generator" content="mdpresent [[ .Version ]]">
		<title>[[ .Title ]]</title>
		<link rel="stylesheet" href="[[ .AssetPrefix ]]deck.css">
	</head>
	<body class="[[ .View ]]">
		<div class="deck" data-total="[[ .Presentation.TotalSlides ]]">
			[[ range .Presentation.Slides ]]
				[[ template "slide" . ]]
			[[ else ]]
				<section class="slide layout-default empty">
				[[ if .Presentation.Error ]]<p class="error">[[ .Presentation.Error ]]</p>[[ end ]]
				</section>
			[[ end ]]
		</div>
		[[ block "js" . ]]
		<script src="[[ .AssetPrefix ]]deck.js"></script>
		[[ end ]]
	</body>
</html>
[[ end ]]
`

var slideTmpl = `
[[ define "slide" ]]
<section id="slide-[[ .Index ]]" data-index="[[ .Index ]]" data-has-notes="[[ .HasNotes ]]" class="slide layout-[[ .Layout ]]">
[[ .HTML ]]
[[ if .HasNotes ]]
<aside class="notes">
[[ .NotesHTML ]]
</aside>
[[ end ]]
</section>
[[ end ]]
`

var liveTmpl = `
[[ define "live" ]] [[ template "base" . ]] [[ end ]]
[[ define "js" ]]
<script>window.MDP_VIEW = "[[ .View ]]";</script>
<script src="[[ .AssetPrefix ]]deck.js"></script>
<script src="[[ .AssetPrefix ]]presenter.js"></script>
[[ end ]]
`

// pageData is what the page templates render.
type pageData struct {
	Version      string
	Title        string
	View         string
	AssetPrefix  string
	Presentation *Presentation
}

func newRenderer(tmpls ...string) *template.Template {
	var err error
	tmpl := template.New("mdpresent")
	tmpl.Delims("[[", "]]")
	for _, tmplStr := range tmpls {
		tmpl, err = tmpl.Parse(tmplStr)
		if err != nil {
			panic(err)
		}
	}
	return tmpl
}

// DefaultRenderer returns the templates for the static deck page.
func DefaultRenderer() *template.Template {
	return newRenderer(deckTmpl, baseTmpl, slideTmpl)
}

func liveRenderer() *template.Template {
	// the live "js" block has to be parsed after base to replace it
	return newRenderer(baseTmpl, slideTmpl, liveTmpl)
}

func newPageData(pres *Presentation, view, assetPrefix string) pageData {
	title := pres.Title()
	if title == "" {
		title = "Presentation"
	}
	return pageData{
		Version:      Version,
		Title:        title,
		View:         view,
		AssetPrefix:  assetPrefix,
		Presentation: pres,
	}
}

// RenderDeck renders a self-contained page with every slide of pres. Assets
// are expected in an "assets" directory next to it, see EmitAssets.
func RenderDeck(pres *Presentation) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := DefaultRenderer().ExecuteTemplate(buf, "deck", newPageData(pres, "audience", "assets/"))
	return buf.Bytes(), err
}

func renderLive(pres *Presentation, view string) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := liveRenderer().ExecuteTemplate(buf, "live", newPageData(pres, view, "/assets/"))
	return buf.Bytes(), err
}
