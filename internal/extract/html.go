package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kimchi-link/kimchi/internal/source"
)

// htmlLinkAttrs is the fixed attribute table the HTML extractor walks.
// Selector keys match elements by tag; srcset attributes get comma-split
// candidate handling.
var htmlLinkAttrs = []struct {
	selector string
	attrs    []string
}{
	{"a", []string{"href"}},
	{"img", []string{"src", "srcset"}},
	{"link", []string{"href"}},
	{"script", []string{"src"}},
	{"iframe", []string{"src"}},
	{"source", []string{"src", "srcset"}},
	{"object", []string{"data"}},
	{"video", []string{"poster", "src"}},
	{"audio", []string{"src"}},
	{"form", []string{"action"}},
}

// htmlAttrsByTag and htmlSelector are derived from htmlLinkAttrs once at
// init: a single combined selector walks the DOM in document order, and the
// per-tag attr lookup replaces the old per-entry Find loop that emitted all
// matches of one tag before moving to the next, regardless of where they
// actually sat in the markup.
var htmlAttrsByTag = func() map[string][]string {
	m := make(map[string][]string, len(htmlLinkAttrs))
	for _, entry := range htmlLinkAttrs {
		m[entry.selector] = entry.attrs
	}
	return m
}()

var htmlSelector = func() string {
	selectors := make([]string, len(htmlLinkAttrs))
	for i, entry := range htmlLinkAttrs {
		selectors[i] = entry.selector
	}
	return strings.Join(selectors, ", ")
}()

// HTML parses body as a DOM and collects link-bearing attributes per the
// fixed table above, emitting them in document order.
func HTML(body []byte, base *url.URL) ([]RawLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var links []RawLink
	doc.Find(htmlSelector).Each(func(_ int, sel *goquery.Selection) {
		for _, attr := range htmlAttrsByTag[goquery.NodeName(sel)] {
			val, ok := sel.Attr(attr)
			if !ok || strings.TrimSpace(val) == "" {
				continue
			}
			if attr == "srcset" {
				links = append(links, splitSrcset(val, base)...)
				continue
			}
			links = append(links, link(strings.TrimSpace(val), base, source.KindHTML))
		}
	})
	return links, nil
}

// splitSrcset splits a srcset attribute on commas and trims each candidate
// down to its URL portion (the descriptor, e.g. "2x" or "480w", is
// discarded).
func splitSrcset(value string, base *url.URL) []RawLink {
	var out []RawLink
	for _, candidate := range strings.Split(value, ",") {
		fields := strings.Fields(strings.TrimSpace(candidate))
		if len(fields) == 0 {
			continue
		}
		out = append(out, link(fields[0], base, source.KindHTML))
	}
	return out
}
