// Package extract implements kimchi's Extractor: parsing a source.Source
// according to its inferred grammar and emitting candidate RawLinks in
// document order.
package extract

import (
	"net/url"

	"github.com/kimchi-link/kimchi/internal/source"
)

// RawLink is the literal string the extractor found, plus its originating
// base and content grammar. No parsing happens here; that is the
// Canonicalizer's job.
type RawLink struct {
	Raw  string
	Base *url.URL
	Kind source.Kind
}

// FromSource dispatches a Source to the extractor matching its Kind and
// returns every RawLink found, in document order. Duplicates within a
// single document are preserved deliberately; deduplication is left to a
// later stage.
func FromSource(src source.Source) ([]RawLink, error) {
	switch src.Kind {
	case source.KindMarkdown:
		return Markdown(src.Bytes, src.Base), nil
	case source.KindHTML:
		return HTML(src.Bytes, src.Base)
	default:
		return Plaintext(src.Bytes, src.Base), nil
	}
}

func link(raw string, base *url.URL, kind source.Kind) RawLink {
	return RawLink{Raw: raw, Base: base, Kind: kind}
}
