package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Link is a link destination found in a markdown document.
type Link struct {
	Text        string
	Destination string
}

// RenderHTML renders a markdown body to HTML with CommonMark defaults.
func RenderHTML(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.New().Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExtractLinks parses a markdown body and returns inline links in document order.
func ExtractLinks(body []byte) []Link {
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			links = append(links, Link{Text: nodeText(node, body), Destination: string(node.Destination)})
		case *gmast.AutoLink:
			u := string(node.URL(body))
			links = append(links, Link{Text: u, Destination: u})
		}
		return gmast.WalkContinue, nil
	})
	return links
}

func nodeText(n gmast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			buf.Write(t.Segment.Value(source))
			continue
		}
		buf.WriteString(nodeText(c, source))
	}
	return buf.String()
}
