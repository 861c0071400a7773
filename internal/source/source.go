// Package source implements kimchl's Input Resolver: turning a raw CLI
// input token into a Source carrying bytes, an inferred content grammar,
// and the base URL relative links should resolve against.
package source

import (
	"net/url"
	"strings"
)

// Origin tags where a Source's bytes came from.
type Origin string

// Recognized origins.
const (
	OriginStdin         Origin = "stdin"
	OriginLocalFile     Origin = "local_file"
	OriginRemoteFetched Origin = "remote_fetched"
	OriginRawURL        Origin = "raw_url"
)

// Kind is the content grammar a Source should be extracted with.
type Kind string

// Recognized input kinds.
const (
	KindMarkdown  Kind = "markdown"
	KindHTML      Kind = "html"
	KindPlaintext Kind = "plaintext"
	KindWebsite   Kind = "website"
)

// Source is an opaque handle carrying everything the Extractor needs: the
// raw bytes, where they came from, the inferred grammar, and the base URL
// used to resolve relative references (absent for stdin unless --base-url
// was supplied).
type Source struct {
	Origin Origin
	Token  string
	Bytes  []byte
	Kind   Kind
	Base   *url.URL
}

// InferKindFromPath classifies a local file by extension, per spec §4.1.
func InferKindFromPath(path string) Kind {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown"):
		return KindMarkdown
	case strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm"):
		return KindHTML
	default:
		return KindPlaintext
	}
}

// InferKindFromContentType classifies fetched website content by its
// Content-Type header, falling back through Markdown/HTML/plaintext.
func InferKindFromContentType(contentType string) Kind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "html"):
		return KindHTML
	case strings.Contains(ct, "markdown"):
		return KindMarkdown
	default:
		return KindPlaintext
	}
}
