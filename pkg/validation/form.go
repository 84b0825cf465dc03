package validation

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/dom"
)

// DefaultConfirmPairs maps confirm-password controls to their primary, by
// name and by the id convention server-rendered forms use.
func DefaultConfirmPairs() map[string]string {
	return map[string]string{
		"password2":    "password1",
		"id_password2": "id_password1",
	}
}

// skipped input types never take part in validation.
var skippedInputTypes = map[string]struct{}{
	"submit": {}, "button": {}, "reset": {}, "image": {}, "hidden": {},
	"checkbox": {}, "radio": {}, "file": {},
}

// Control is a bound form control. Kind, required flag and container are
// captured when the form is bound, so later decoration (such as toggling a
// password input to type=text) does not change how it validates.
type Control struct {
	Node      *html.Node
	Container *html.Node
	Form      *Form
	Kind      Kind
	Required  bool
	MaxLength int
	Matches   string
	Label     string

	key string
}

// Key identifies the control inside its form.
func (c *Control) Key() string {
	if c == nil {
		return ""
	}
	return c.key
}

// Name returns the control's name attribute.
func (c *Control) Name() string {
	return dom.Attr(c.Node, "name")
}

// Field snapshots the control with its live value.
func (c *Control) Field() Field {
	if c == nil {
		return Field{}
	}
	return Field{
		Name:      dom.Attr(c.Node, "name"),
		ID:        dom.Attr(c.Node, "id"),
		Label:     c.Label,
		Kind:      c.Kind,
		Value:     dom.Value(c.Node),
		Required:  c.Required,
		MaxLength: c.MaxLength,
		Matches:   c.Matches,
	}
}

// Form groups the bound controls of one <form> element.
type Form struct {
	Node *html.Node
	ID   string

	controls []*Control
	byKey    map[string]*Control
	byNode   map[*html.Node]*Control
}

// BindForm collects the validatable controls under node and resolves the
// confirm associations (confirm key -> primary key) that exist in it.
func BindForm(node *html.Node, confirm map[string]string) *Form {
	f := &Form{
		Node:   node,
		ID:     formID(node),
		byKey:  make(map[string]*Control),
		byNode: make(map[*html.Node]*Control),
	}
	if node == nil {
		return f
	}

	labels := collectLabels(node)
	for i, n := range dom.Find(node, ".//input | .//textarea | .//select") {
		if dom.IsElement(n, "input") {
			if _, skip := skippedInputTypes[dom.ControlType(n)]; skip {
				continue
			}
		}
		c := &Control{
			Node:      n,
			Container: dom.ParentElement(n),
			Form:      f,
			Kind:      ParseKind(dom.ControlType(n)),
			Required:  dom.HasAttr(n, "required"),
			MaxLength: maxLength(n),
		}
		c.key = controlKey(n, i)
		c.Label = controlLabel(n, labels)
		f.add(c)
	}

	for confirmKey, primaryKey := range confirm {
		f.Associate(confirmKey, primaryKey)
	}
	return f
}

func (f *Form) add(c *Control) {
	f.controls = append(f.controls, c)
	f.byNode[c.Node] = c
	for _, key := range []string{c.key, dom.Attr(c.Node, "id"), dom.Attr(c.Node, "name")} {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, exists := f.byKey[key]; !exists {
			f.byKey[key] = c
		}
	}
}

// Associate records that the control named confirmKey must equal the control
// named primaryKey. It reports false when either is missing from the form.
func (f *Form) Associate(confirmKey, primaryKey string) bool {
	confirm := f.Control(confirmKey)
	primary := f.Control(primaryKey)
	if confirm == nil || primary == nil || confirm == primary {
		return false
	}
	confirm.Matches = primary.Key()
	return true
}

// Controls returns the bound controls in document order.
func (f *Form) Controls() []*Control {
	if f == nil {
		return nil
	}
	return append([]*Control(nil), f.controls...)
}

// Control resolves a control by id or name.
func (f *Form) Control(key string) *Control {
	if f == nil {
		return nil
	}
	return f.byKey[strings.TrimSpace(key)]
}

// ControlFor resolves the control bound to node.
func (f *Form) ControlFor(node *html.Node) *Control {
	if f == nil {
		return nil
	}
	return f.byNode[node]
}

// Lookup reads live values of sibling controls.
func (f *Form) Lookup() Lookup {
	return func(key string) (string, bool) {
		c := f.Control(key)
		if c == nil {
			return "", false
		}
		return dom.Value(c.Node), true
	}
}

func formID(n *html.Node) string {
	for _, attr := range []string{"id", "name", "action"} {
		if v := strings.TrimSpace(dom.Attr(n, attr)); v != "" {
			return v
		}
	}
	return ""
}

func controlKey(n *html.Node, index int) string {
	if id := strings.TrimSpace(dom.Attr(n, "id")); id != "" {
		return id
	}
	if name := strings.TrimSpace(dom.Attr(n, "name")); name != "" {
		return name
	}
	return "control-" + strconv.Itoa(index)
}

func maxLength(n *html.Node) int {
	raw := strings.TrimSpace(dom.Attr(n, "maxlength"))
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func collectLabels(form *html.Node) map[string]string {
	out := make(map[string]string)
	for _, label := range dom.Find(form, ".//label[@for]") {
		text := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(dom.Text(label)), "*"))
		if text != "" {
			out[dom.Attr(label, "for")] = strings.TrimSpace(strings.TrimSuffix(text, ":"))
		}
	}
	return out
}

func controlLabel(n *html.Node, labels map[string]string) string {
	if label, ok := labels[dom.Attr(n, "id")]; ok {
		return label
	}
	for _, attr := range []string{"aria-label", "placeholder", "name"} {
		if v := strings.TrimSpace(dom.Attr(n, attr)); v != "" {
			return v
		}
	}
	return ""
}
