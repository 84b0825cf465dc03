package dom

import (
	"sort"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CreateElement builds a detached element node.
func CreateElement(tag string, attrs ...html.Attribute) *html.Node {
	tag = strings.ToLower(strings.TrimSpace(tag))
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for _, attr := range attrs {
		SetAttr(n, attr.Key, attr.Val)
	}
	return n
}

// A is shorthand for building an html.Attribute.
func A(key, value string) html.Attribute {
	return html.Attribute{Key: key, Val: value}
}

// IsElement reports whether n is an element with one of the given tags (any
// element when no tags are given).
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		if strings.EqualFold(n.Data, tag) {
			return true
		}
	}
	return false
}

// Attr returns the attribute value or an empty string.
func Attr(n *html.Node, name string) string {
	if n == nil {
		return ""
	}
	return htmlquery.SelectAttr(n, name)
}

// HasAttr reports whether the attribute is present, regardless of value.
func HasAttr(n *html.Node, name string) bool {
	if n == nil {
		return false
	}
	return htmlquery.ExistsAttr(n, name)
}

// SetAttr creates or replaces an attribute.
func SetAttr(n *html.Node, name, value string) {
	if n == nil {
		return
	}
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes an attribute when present.
func RemoveAttr(n *html.Node, name string) {
	if n == nil {
		return
	}
	out := n.Attr[:0]
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == name {
			continue
		}
		out = append(out, attr)
	}
	n.Attr = out
}

// Classes returns the class tokens of n in document order.
func Classes(n *html.Node) []string {
	return strings.Fields(Attr(n, "class"))
}

// HasClass reports whether n carries the class token.
func HasClass(n *html.Node, class string) bool {
	for _, token := range Classes(n) {
		if token == class {
			return true
		}
	}
	return false
}

// AddClass appends missing class tokens.
func AddClass(n *html.Node, classes ...string) {
	if n == nil {
		return
	}
	tokens := Classes(n)
	changed := false
	for _, class := range classes {
		class = strings.TrimSpace(class)
		if class == "" || containsToken(tokens, class) {
			continue
		}
		tokens = append(tokens, class)
		changed = true
	}
	if changed {
		SetAttr(n, "class", strings.Join(tokens, " "))
	}
}

// RemoveClass drops class tokens, removing the attribute when it empties.
func RemoveClass(n *html.Node, classes ...string) {
	if n == nil || !HasAttr(n, "class") {
		return
	}
	tokens := Classes(n)
	out := tokens[:0]
	for _, token := range tokens {
		if containsToken(classes, token) {
			continue
		}
		out = append(out, token)
	}
	if len(out) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(out, " "))
}

// ToggleClass flips a class token and reports whether it is now present.
func ToggleClass(n *html.Node, class string) bool {
	if HasClass(n, class) {
		RemoveClass(n, class)
		return false
	}
	AddClass(n, class)
	return HasClass(n, class)
}

// SetClass adds or removes a class depending on on.
func SetClass(n *html.Node, class string, on bool) {
	if on {
		AddClass(n, class)
		return
	}
	RemoveClass(n, class)
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Style returns a single inline style property.
func Style(n *html.Node, property string) string {
	return parseStyle(Attr(n, "style"))[strings.ToLower(strings.TrimSpace(property))]
}

// SetStyle sets (or with an empty value, clears) an inline style property.
// Properties are written back in sorted order so rendering stays stable.
func SetStyle(n *html.Node, property, value string) {
	if n == nil {
		return
	}
	props := parseStyle(Attr(n, "style"))
	property = strings.ToLower(strings.TrimSpace(property))
	if strings.TrimSpace(value) == "" {
		delete(props, property)
	} else {
		props[property] = strings.TrimSpace(value)
	}
	if len(props) == 0 {
		RemoveAttr(n, "style")
		return
	}
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+props[key])
	}
	SetAttr(n, "style", strings.Join(parts, "; ")+";")
}

func parseStyle(raw string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	return htmlquery.InnerText(n)
}

// SetText replaces every child of n with a single text node.
func SetText(n *html.Node, text string) {
	if n == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// Append moves child under parent, detaching it from any previous parent.
func Append(parent, child *html.Node) {
	if parent == nil || child == nil {
		return
	}
	Detach(child)
	parent.AppendChild(child)
}

// InsertBefore moves child under parent ahead of ref; a nil or foreign ref
// appends instead.
func InsertBefore(parent, child, ref *html.Node) {
	if parent == nil || child == nil {
		return
	}
	Detach(child)
	if ref == nil || ref.Parent != parent {
		parent.AppendChild(child)
		return
	}
	parent.InsertBefore(child, ref)
}

// InsertAfter moves child under ref's parent directly after ref.
func InsertAfter(ref, child *html.Node) {
	if ref == nil || ref.Parent == nil || child == nil {
		return
	}
	InsertBefore(ref.Parent, child, ref.NextSibling)
}

// Wrap inserts wrapper in n's position and moves n inside it.
func Wrap(n, wrapper *html.Node) {
	if n == nil || wrapper == nil || n.Parent == nil {
		return
	}
	InsertBefore(n.Parent, wrapper, n)
	Append(wrapper, n)
}

// Detach removes n from its parent. It reports false when n was already
// detached, which makes repeated removal a no-op.
func Detach(n *html.Node) bool {
	if n == nil || n.Parent == nil {
		return false
	}
	n.Parent.RemoveChild(n)
	return true
}

// Attached reports whether n still hangs off a parent.
func Attached(n *html.Node) bool {
	return n != nil && n.Parent != nil
}

// Contains reports whether n is ancestor or a descendant of it.
func Contains(ancestor, n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Closest walks up from n (inclusive) to the first element with the tag.
func Closest(n *html.Node, tag string) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if IsElement(cur, tag) {
			return cur
		}
	}
	return nil
}

// ParentElement returns the nearest element ancestor.
func ParentElement(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode {
			return cur
		}
	}
	return nil
}

// Find evaluates an XPath expression relative to n.
func Find(n *html.Node, expr string) []*html.Node {
	if n == nil {
		return nil
	}
	nodes, err := htmlquery.QueryAll(n, expr)
	if err != nil {
		return nil
	}
	return nodes
}

// FindOne evaluates an XPath expression relative to n and returns the first hit.
func FindOne(n *html.Node, expr string) *html.Node {
	if n == nil {
		return nil
	}
	found, err := htmlquery.Query(n, expr)
	if err != nil {
		return nil
	}
	return found
}

// ChildWithClass returns the first direct element child of parent carrying
// class and, when attr is non-empty, attr=value.
func ChildWithClass(parent *html.Node, class, attr, value string) *html.Node {
	if parent == nil {
		return nil
	}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if !IsElement(c) || !HasClass(c, class) {
			continue
		}
		if attr != "" && Attr(c, attr) != value {
			continue
		}
		return c
	}
	return nil
}

// OuterHTML renders n including itself.
func OuterHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	return htmlquery.OutputHTML(n, true)
}
