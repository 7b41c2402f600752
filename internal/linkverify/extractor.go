package linkverify

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/previewnote/internal/foundation/errors"
)

// Link represents an anchor extracted from rendered HTML.
type Link struct {
	URL  string
	Text string
}

// ExtractLinksFromReader returns the href and text of every <a> element in r,
// in document order. Anchors without an href are ignored.
func ExtractLinksFromReader(r io.Reader) ([]*Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse HTML").Build()
	}

	var links []*Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := getAttr(n, "href"); href != "" {
				links = append(links, &Link{URL: href, Text: strings.TrimSpace(extractText(n))})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

// ShouldVerifyLink reports whether a link points at an http(s) resource.
func ShouldVerifyLink(link *Link) bool {
	u := strings.ToLower(link.URL)
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(extractText(c))
	}
	return b.String()
}
