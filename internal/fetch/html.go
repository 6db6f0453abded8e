package fetch

import (
	"strings"

	"golang.org/x/net/html"
)

// VisibleText parses an HTML document and returns its visible text plus
// the page title. Script, style, noscript, and iframe subtrees are
// skipped.
func VisibleText(htmlContent string) (text, title string, err error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", "", err
	}

	var buf strings.Builder
	var inTitle bool

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "title":
				inTitle = true
				defer func() { inTitle = false }()
			}
		}

		if n.Type == html.TextNode {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				if inTitle && title == "" {
					title = t
				} else if !inTitle {
					buf.WriteString(t)
					buf.WriteString(" ")
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return strings.TrimSpace(buf.String()), title, nil
}
