package i18n

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

// Markup attributes understood by the Binder.
const (
	TextAttr        = "data-translate"
	PlaceholderAttr = "data-translate-placeholder"
	LabelAttr       = "data-translate-label"
	LangAttr        = "data-lang"

	activeClass = "active"
)

// Binder rewrites tagged elements of an HTML document with the dictionary texts of a language.
type Binder struct {
	dict *Dictionary
}

func NewBinder(dict *Dictionary) *Binder {
	return &Binder{dict: dict}
}

// Refresh applies lang to every tagged element under doc and returns how many were rewritten.
// Elements whose key has no translation are left as is. Refreshing twice is the same as once.
func (b *Binder) Refresh(doc *html.Node, lang Code) int {
	var count int
	walk(doc, func(n *html.Node) {
		for _, attr := range n.Attr {
			msg, ok := b.dict.Message(lang, attr.Val)
			if !ok {
				continue
			}
			switch attr.Key {
			case TextAttr, LabelAttr:
				setText(n, msg)
				count++
			case PlaceholderAttr:
				setAttr(n, "placeholder", msg)
				count++
			}
		}
	})
	return count
}

// MarkActive flags the `data-lang` element of lang as active and clears the others.
func (b *Binder) MarkActive(doc *html.Node, lang Code) {
	walk(doc, func(n *html.Node) {
		code, ok := getAttr(n, LangAttr)
		if !ok {
			return
		}
		class, hasClass := getAttr(n, "class")
		classes := make([]string, 0, 2)
		for _, c := range strings.Fields(class) {
			if c != activeClass {
				classes = append(classes, c)
			}
		}
		if Code(code) == lang {
			classes = append(classes, activeClass)
		}
		if hasClass || len(classes) > 0 {
			setAttr(n, "class", strings.Join(classes, " "))
		}
	})
}

// Render parses the document read from r, binds it to lang and writes it to w.
func (b *Binder) Render(w io.Writer, r io.Reader, lang Code) error {
	doc, err := html.Parse(r)
	if err != nil {
		return errors.Wrap(err, "parsing document")
	}
	b.Refresh(doc, lang)
	b.MarkActive(doc, lang)
	return errors.Wrap(html.Render(w, doc), "rendering document")
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
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
