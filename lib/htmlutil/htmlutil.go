package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true, atom.Li: true,
	atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Table: true, atom.Tr: true, atom.Ul: true,
}

var hiddenElements = map[atom.Atom]bool{
	atom.Head: true, atom.Script: true, atom.Style: true, atom.Noscript: true,
	atom.Template: true,
}

// GetText returns the raw text content of a node, like textContent.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`[ \t\r\f\v]+`)

// InnerText approximates what a browser shows for a node: block elements
// start new lines, runs of whitespace collapse and blank lines are dropped.
func InnerText(node *html.Node) string {
	var buffer bytes.Buffer
	innerTextRecursive(node, &buffer)

	lines := strings.Split(buffer.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = innerWhitespace.ReplaceAllString(line, " ")
		line = strings.TrimSpace(removeNonPrintable(line))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func innerTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		buffer.WriteString(strings.ReplaceAll(node.Data, "\n", " "))
		return
	case html.ElementNode:
		if hiddenElements[node.DataAtom] {
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	block := node.Type == html.ElementNode && blockElements[node.DataAtom]
	if block {
		buffer.WriteByte('\n')
	}
	child := node.FirstChild
	for child != nil {
		innerTextRecursive(child, buffer)
		child = child.NextSibling
	}
	if block {
		buffer.WriteByte('\n')
	}
}

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// ResolveURL resolves href against base, empty or unparsable hrefs yield "".
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	link, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return link.String()
	}
	return base.ResolveReference(link).String()
}
