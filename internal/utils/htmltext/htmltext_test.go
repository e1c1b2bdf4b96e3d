package htmltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderStripsMarkup(t *testing.T) {
	html := "<html><body><p>Hello,</p><h3>acme</h3><p><a href='https://example.com/f/1'>https://example.com/f/1</a></p></body></html>"

	out := Render(html)
	assert.Contains(t, out, "Hello,")
	assert.Contains(t, out, "acme")
	assert.Contains(t, out, "https://example.com/f/1")
	assert.NotContains(t, out, "<p>")
	assert.NotContains(t, out, "<a ")
}

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, "", Render(""))
}
