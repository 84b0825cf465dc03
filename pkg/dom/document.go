package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// ErrNoDocument is returned when a Document is constructed without a root.
var ErrNoDocument = errors.New("dom: document root is required")

// Document owns a parsed HTML tree plus a counter used to mint stable ids for
// nodes created at runtime.
type Document struct {
	root *html.Node
	seq  map[string]int
}

// Parse reads HTML markup into a Document.
func Parse(r io.Reader) (*Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse markup: %w", err)
	}
	return NewDocument(root)
}

// ParseString is a convenience wrapper around Parse.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// NewDocument wraps an existing node tree.
func NewDocument(root *html.Node) (*Document, error) {
	if root == nil {
		return nil, ErrNoDocument
	}
	return &Document{root: root, seq: make(map[string]int)}, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	if d == nil {
		return nil
	}
	return d.root
}

// Body returns the <body> element, creating one under <html> when the parsed
// markup lacks it.
func (d *Document) Body() *html.Node {
	return d.ensure("body")
}

// Head returns the <head> element, creating one when missing.
func (d *Document) Head() *html.Node {
	return d.ensure("head")
}

func (d *Document) ensure(tag string) *html.Node {
	if d == nil || d.root == nil {
		return nil
	}
	if n := htmlquery.FindOne(d.root, "//"+tag); n != nil {
		return n
	}
	parent := htmlquery.FindOne(d.root, "//html")
	if parent == nil {
		parent = d.root
	}
	n := CreateElement(tag)
	if tag == "head" && parent.FirstChild != nil {
		parent.InsertBefore(n, parent.FirstChild)
	} else {
		parent.AppendChild(n)
	}
	return n
}

// Find returns all nodes matching the XPath expression. Invalid expressions
// yield no nodes.
func (d *Document) Find(expr string) []*html.Node {
	if d == nil || d.root == nil {
		return nil
	}
	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil
	}
	return nodes
}

// FindOne returns the first node matching the XPath expression.
func (d *Document) FindOne(expr string) *html.Node {
	if d == nil || d.root == nil {
		return nil
	}
	n, err := htmlquery.Query(d.root, expr)
	if err != nil {
		return nil
	}
	return n
}

// Query is FindOne with the XPath compile error surfaced.
func (d *Document) Query(expr string) (*html.Node, error) {
	if d == nil || d.root == nil {
		return nil, ErrNoDocument
	}
	n, err := htmlquery.Query(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("dom: query %q: %w", expr, err)
	}
	return n, nil
}

// ByID returns the element carrying the given id attribute.
func (d *Document) ByID(id string) *html.Node {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return d.FindOne("//*[@id=" + Literal(id) + "]")
}

// NextID mints a document-unique identifier with the given prefix.
func (d *Document) NextID(prefix string) string {
	if prefix == "" {
		prefix = "fg"
	}
	for {
		d.seq[prefix]++
		id := prefix + "-" + strconv.Itoa(d.seq[prefix])
		if d.ByID(id) == nil {
			return id
		}
	}
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	if d == nil || d.root == nil {
		return ErrNoDocument
	}
	return html.Render(w, d.root)
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// ClassPredicate builds an XPath predicate body matching a single class token.
func ClassPredicate(class string) string {
	return "contains(concat(' ', normalize-space(@class), ' '), " + Literal(" "+class+" ") + ")"
}

// Literal quotes a string for use inside an XPath expression.
func Literal(value string) string {
	if !strings.Contains(value, "'") {
		return "'" + value + "'"
	}
	if !strings.Contains(value, `"`) {
		return `"` + value + `"`
	}
	parts := strings.Split(value, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if part != "" {
			quoted = append(quoted, "'"+part+"'")
		}
	}
	if len(quoted) == 1 {
		quoted = append(quoted, "''")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
