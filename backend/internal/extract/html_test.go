package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, LooksLikeHTML("<!DOCTYPE html><html><body>x</body></html>"))
	assert.True(t, LooksLikeHTML("<html lang=\"en\">"))
	assert.False(t, LooksLikeHTML("Chapter 1: Limits and Continuity"))
	assert.False(t, LooksLikeHTML("a < b and b > c"))
}

func TestPlainText_PassthroughForPlainInput(t *testing.T) {
	assert.Equal(t, "Chapter 1", PlainText("  Chapter 1  "))
}

func TestPlainText_ExtractsReadableContent(t *testing.T) {
	html := `<!DOCTYPE html><html><head><title>Notes</title>
		<script>alert("ignored")</script></head>
		<body>
		<nav><ul><li>Home</li><li>About</li></ul></nav>
		<article>
			<h1>Calculus</h1>
			<p>The study of continuous change.</p>
			<h2>Limits</h2>
			<p>Foundation of derivatives.</p>
			<ul><li>One-sided limits</li></ul>
		</article>
		<footer>Copyright</footer>
		</body></html>`

	text := PlainText(html)

	assert.Contains(t, text, "# Calculus")
	assert.Contains(t, text, "The study of continuous change.")
	assert.Contains(t, text, "# Limits")
	assert.Contains(t, text, "One-sided limits")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "Copyright")
	assert.NotContains(t, text, "About")
}

func TestPlainText_FallbackWhenNoStructure(t *testing.T) {
	text := PlainText("<html><body><div>just a bare div of content</div></body></html>")
	assert.Contains(t, text, "just a bare div of content")
}
