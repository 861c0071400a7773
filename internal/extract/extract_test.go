package extract

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func rawStrings(links []RawLink) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.Raw
	}
	return out
}

func TestMarkdown_LinkAndRelative(t *testing.T) {
	t.Parallel()

	input := "This is [a test](https://example.com). This is a relative link test [Relative](relative_link)"
	links := Markdown([]byte(input), nil)
	require.Contains(t, rawStrings(links), "https://example.com")
	require.Contains(t, rawStrings(links), "relative_link")
}

func TestMarkdown_InlineHTML(t *testing.T) {
	t.Parallel()

	input := `Before <a href="https://inline.example.com">link</a> after`
	links := Markdown([]byte(input), nil)
	require.Contains(t, rawStrings(links), "https://inline.example.com")
}

func TestHTML_FixedAttributeTable(t *testing.T) {
	t.Parallel()

	input := `<html><div class="row">
		<a href="https://example.com/">home</a>
		<img src="img.png" srcset="small.png 1x, big.png 2x">
		<script src="app.js"></script>
	</div></html>`

	links, err := HTML([]byte(input), nil)
	require.NoError(t, err)
	got := rawStrings(links)
	require.Contains(t, got, "https://example.com/")
	require.Contains(t, got, "img.png")
	require.Contains(t, got, "small.png")
	require.Contains(t, got, "big.png")
	require.Contains(t, got, "app.js")
}

func TestHTML_EmitsInDocumentOrder(t *testing.T) {
	t.Parallel()

	input := `<html><body>
		<img src="first.png">
		<a href="second.html">second</a>
		<script src="third.js"></script>
		<a href="fourth.html">fourth</a>
	</body></html>`

	links, err := HTML([]byte(input), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"first.png", "second.html", "third.js", "fourth.html"}, rawStrings(links))
}

func TestHTML_RelativeWithBase(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://example.com/")
	require.NoError(t, err)
	input := `<a href="blob/master/README.md">README</a>`

	links, err := HTML([]byte(input), base)
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, base, links[0].Base)
}

func TestPlaintext_URLsAndEmails(t *testing.T) {
	t.Parallel()

	input := "https://example.com and https://example.com/foo/bar?lol=1 at test@example.com."
	links := Plaintext([]byte(input), nil)
	got := rawStrings(links)
	require.Contains(t, got, "https://example.com")
	require.Contains(t, got, "https://example.com/foo/bar?lol=1")
	require.Contains(t, got, "test@example.com")
}

func TestPlaintext_TrimsTrailingPunctuation(t *testing.T) {
	t.Parallel()

	links := Plaintext([]byte("See https://example.com/page)."), nil)
	require.Contains(t, rawStrings(links), "https://example.com/page")
}
