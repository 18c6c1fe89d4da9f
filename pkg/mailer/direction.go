package mailer

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ApplyDirection injects right-to-left layout styling into rendered HTML.
// When isRTL is false the input is returned unchanged.
//
// The body is parsed as an HTML fragment and every div, p and span element
// gains a direction declaration in its style attribute: div and p also gain
// text-align: right unless they already declare an alignment, which is
// preserved. Elements that already declare direction are left alone, so the
// transform is idempotent.
func ApplyDirection(htmlBody string, isRTL bool) string {
	if !isRTL {
		return htmlBody
	}

	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(htmlBody), ctx)
	if err != nil {
		// Unparseable markup goes out the way it came in.
		return htmlBody
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		applyDirectionNode(n)
		if renderErr := html.Render(&buf, n); renderErr != nil {
			return htmlBody
		}
	}
	return buf.String()
}

func applyDirectionNode(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Div, atom.P:
			restyle(n, true)
		case atom.Span:
			restyle(n, false)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		applyDirectionNode(c)
	}
}

// restyle prepends the direction declaration to the element's style,
// optionally forcing right alignment when none is declared.
func restyle(n *html.Node, alignable bool) {
	style := getAttr(n, "style")
	if strings.Contains(style, "direction") {
		return
	}

	decl := "direction: rtl;"
	if alignable && !strings.Contains(style, "text-align") {
		decl = "direction: rtl; text-align: right;"
	}

	if style == "" {
		setAttr(n, "style", decl)
		return
	}
	setAttr(n, "style", decl+" "+strings.TrimSpace(style))
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
