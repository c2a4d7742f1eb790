package mdpresent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDeck(t *testing.T) {
	pres := Parse(threeSlides)
	out, err := RenderDeck(pres)
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "<title>Test deck</title>")
	assert.Contains(t, page, `id="slide-0"`)
	assert.Contains(t, page, `id="slide-2"`)
	assert.Contains(t, page, "layout-section")
	assert.Contains(t, page, `<aside class="notes">`)
	assert.Contains(t, page, `href="assets/deck.css"`)
	assert.Contains(t, page, "<h1>One</h1>")
	assert.NotContains(t, page, "presenter.js")
}

func TestRenderDeckEmpty(t *testing.T) {
	out, err := RenderDeck(Parse(""))
	require.NoError(t, err)
	assert.Contains(t, string(out), `class="slide layout-default empty"`)
	assert.Contains(t, string(out), "<title>Presentation</title>")
}

func TestRenderLive(t *testing.T) {
	out, err := renderLive(Parse(threeSlides), "presenter")
	require.NoError(t, err)
	page := string(out)
	assert.Contains(t, page, `src="/assets/presenter.js"`)
	assert.Contains(t, page, `class="presenter"`)
}

func TestEmitAssets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EmitAssets(dir))
	for _, name := range []string{"deck.css", "deck.js", "presenter.js"} {
		_, err := os.Stat(filepath.Join(dir, "assets", name))
		assert.NoError(t, err, name)
	}
}
