package extract

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/kimchi-link/kimchi/internal/source"
)

// urlPattern is a conservative linkify-style scanner for bare http(s) URLs.
// It deliberately does not try to validate the URL grammar; Canonicalize
// does that downstream.
var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// emailPattern matches bare "local@domain" references in plaintext.
var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// trailingPunctuation is trimmed off the end of a scanned URL; this mirrors
// the "no heuristic trimming beyond trailing .,;:)]>" rule plaintext
// extraction follows.
const trailingPunctuation = ".,;:)]>"

// Plaintext scans raw bytes for http(s) URLs and bare email addresses.
func Plaintext(body []byte, base *url.URL) []RawLink {
	text := string(body)
	type found struct {
		pos int
		raw string
	}
	var matches []found

	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		trimmed := strings.TrimRight(text[loc[0]:loc[1]], trailingPunctuation)
		if trimmed == "" {
			continue
		}
		matches = append(matches, found{pos: loc[0], raw: trimmed})
	}
	for _, loc := range emailPattern.FindAllStringIndex(text, -1) {
		matches = append(matches, found{pos: loc[0], raw: text[loc[0]:loc[1]]})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	var links []RawLink
	for _, m := range matches {
		links = append(links, link(m.raw, base, source.KindPlaintext))
	}
	return links
}
