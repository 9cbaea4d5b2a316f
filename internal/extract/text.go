package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// labeledSpan returns the first span under root whose sole string contains label.
func labeledSpan(root *goquery.Selection, label string) *goquery.Selection {
	return root.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		text, ok := soleString(s.Get(0))
		return ok && strings.Contains(text, label)
	}).First()
}

// soleString follows single-child chains down to a text node, so
// <span>x</span> and <span><b>x</b></span> both yield "x". Elements with
// mixed or multiple children have no sole string.
func soleString(n *html.Node) (string, bool) {
	for n != nil {
		child := n.FirstChild
		if child == nil || child.NextSibling != nil {
			return "", false
		}
		if child.Type == html.TextNode {
			return child.Data, true
		}
		if child.Type != html.ElementNode {
			return "", false
		}
		n = child
	}
	return "", false
}

// containsText reports whether any text node under sel contains substr.
func containsText(sel *goquery.Selection, substr string) bool {
	for _, n := range sel.Nodes {
		if textNodeContains(n, substr) {
			return true
		}
	}
	return false
}

func textNodeContains(n *html.Node, substr string) bool {
	if n.Type == html.TextNode {
		return strings.Contains(n.Data, substr)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if textNodeContains(c, substr) {
			return true
		}
	}
	return false
}
