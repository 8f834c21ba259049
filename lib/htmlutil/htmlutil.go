package htmlutil

import (
	"bytes"
	"html"
	"strings"

	"akiclient/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"
)

// GetText concatenates every text node under node.
func GetText(node *nethtml.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *nethtml.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == nethtml.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// TrailingText returns the text that directly follows the first node of sel
// up to the next element, e.g. " times" in `<span id="x"></span> times</span>`.
func TrailingText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var buffer bytes.Buffer
	for n := sel.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
		if n.Type != nethtml.TextNode {
			break
		}
		buffer.WriteString(n.Data)
	}
	return buffer.String()
}

// CleanText decodes entities and normalizes whitespace in text recovered
// with a regular expression.
func CleanText(s string) string {
	s = html.UnescapeString(s)
	s = textutil.RemoveNonPrintable(s)
	return textutil.CollapseWhitespace(s)
}

// NewDocument parses markup that may only be a fragment of a page.
func NewDocument(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}
