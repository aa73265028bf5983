package browser

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// blockElements start and end a line of rendered text
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true, "button": true,
}

// skippedElements never contribute rendered text
var skippedElements = map[string]bool{
	"head": true, "script": true, "style": true, "template": true,
	"noscript": true, "iframe": true, "svg": true,
}

// Visible reports whether the first element of sel is rendered.
// An element is hidden when it or any ancestor is hidden.
func Visible(sel *goquery.Selection) bool {
	if sel.Length() == 0 {
		return false
	}
	for n := sel.Get(0); n != nil; n = n.Parent {
		if n.Type == html.ElementNode && hiddenNode(n) {
			return false
		}
	}
	return true
}

func hiddenNode(n *html.Node) bool {
	if skippedElements[n.Data] {
		return true
	}
	for _, a := range n.Attr {
		switch a.Key {
		case HiddenAttr, "hidden":
			return true
		case "aria-hidden":
			if a.Val == "true" {
				return true
			}
		case "style":
			style := strings.ToLower(strings.ReplaceAll(a.Val, " ", ""))
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

// InnerText renders the visible text of the first element of sel
func InnerText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return RenderText(sel.Nodes[:1])
}

// RenderText approximates innerText: hidden subtrees are dropped, block
// elements and <br> break lines, whitespace inside a line collapses and
// blank lines are removed.
func RenderText(nodes []*html.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		renderNode(&sb, n)
	}

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func renderNode(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if hiddenNode(n) {
			return
		}
		if n.Data == "br" {
			sb.WriteByte('\n')
			return
		}
	case html.DocumentNode:
	default:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(sb, c)
	}
	if block {
		sb.WriteByte('\n')
	}
	if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
		sb.WriteByte(' ')
	}
}

// FoldSpace replaces non-ASCII spaces such as U+00A0 with a plain space.
// innerText keeps &nbsp; as U+00A0, which RE2's \s does not match.
func FoldSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII && unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
}
