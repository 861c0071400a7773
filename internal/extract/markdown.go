package extract

import (
	"net/url"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/kimchi-link/kimchi/internal/source"
)

// Markdown walks the CommonMark event stream, emitting link and image
// destinations and autolinks. Inline HTML nodes are re-fed to the HTML
// extractor, per spec: a document can mix Markdown links with raw HTML
// fragments.
func Markdown(body []byte, base *url.URL) []RawLink {
	md := goldmark.New()
	reader := text.NewReader(body)
	doc := md.Parser().Parse(reader)

	var links []RawLink
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			links = append(links, link(string(node.Destination), base, source.KindMarkdown))
		case *ast.Image:
			links = append(links, link(string(node.Destination), base, source.KindMarkdown))
		case *ast.AutoLink:
			links = append(links, link(string(node.URL(body)), base, source.KindMarkdown))
		case *ast.RawHTML:
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				found, err := HTML(seg.Value(body), base)
				if err == nil {
					links = append(links, found...)
				}
			}
		case *ast.HTMLBlock:
			for i := 0; i < node.Lines().Len(); i++ {
				seg := node.Lines().At(i)
				found, err := HTML(seg.Value(body), base)
				if err == nil {
					links = append(links, found...)
				}
			}
		}
		return ast.WalkContinue, nil
	})

	return links
}
