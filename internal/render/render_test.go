package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLLineBreaks(t *testing.T) {
	out := HTML("first line\nsecond line")
	assert.Contains(t, out, "first line<br />")
	assert.Contains(t, out, "second line")
}

func TestHTMLSanitizes(t *testing.T) {
	out := HTML("hello <script>alert(1)</script> **world**")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "<strong>world</strong>")
}

func TestHTMLEmpty(t *testing.T) {
	assert.Equal(t, "", HTML("  \n "))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "The first cup.", Preview("The first cup.\nThen the second.", 0))
	assert.Equal(t, "Morni…", Preview("Morning coffee", 5))
	assert.Equal(t, "short", Preview("short", 10))
}
