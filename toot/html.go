package toot

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

var blockTags = map[string]bool{
	"p": true, "div": true, "blockquote": true, "pre": true,
	"ul": true, "ol": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// HTMLToText converts status HTML into plain text. Block elements (paragraphs, quotes, list items, code blocks)
// are separated by a blank line, <br> becomes a newline, and text outside any block is kept in document order.
func HTMLToText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "<") {
		return html.UnescapeString(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(s, " ")))
	}

	var w blockWriter
	for _, n := range doc.Find("body").Nodes {
		w.walk(n)
	}
	w.breakBlock()
	return strings.Join(w.blocks, "\n\n")
}

type blockWriter struct {
	blocks []string
	cur    strings.Builder
}

func (w *blockWriter) breakBlock() {
	if t := strings.TrimSpace(w.cur.String()); t != "" {
		w.blocks = append(w.blocks, t)
	}
	w.cur.Reset()
}

func (w *blockWriter) walk(n *xhtml.Node) {
	switch n.Type {
	case xhtml.TextNode:
		w.cur.WriteString(n.Data)
		return
	case xhtml.ElementNode:
		switch n.Data {
		case "br":
			w.cur.WriteString("\n")
			return
		case "script", "style":
			return
		}
		if blockTags[n.Data] {
			w.breakBlock()
			w.children(n)
			w.breakBlock()
			return
		}
	}
	w.children(n)
}

func (w *blockWriter) children(n *xhtml.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}
