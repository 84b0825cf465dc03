package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Value reads the live value of a form control. Inputs keep it in the value
// attribute, textareas in their text content and selects in the selected
// option (the first option when none is marked).
func Value(n *html.Node) string {
	switch {
	case IsElement(n, "textarea"):
		return Text(n)
	case IsElement(n, "select"):
		options := Find(n, ".//option")
		for _, opt := range options {
			if HasAttr(opt, "selected") {
				return optionValue(opt)
			}
		}
		if len(options) > 0 && !HasAttr(n, "multiple") {
			return optionValue(options[0])
		}
		return ""
	default:
		return Attr(n, "value")
	}
}

// SetValue writes a control value without firing any event. For selects the
// matching option becomes the only selected one.
func SetValue(n *html.Node, value string) {
	switch {
	case n == nil:
		return
	case IsElement(n, "textarea"):
		SetText(n, value)
	case IsElement(n, "select"):
		for _, opt := range Find(n, ".//option") {
			if optionValue(opt) == value {
				SetAttr(opt, "selected", "")
			} else {
				RemoveAttr(opt, "selected")
			}
		}
	default:
		SetAttr(n, "value", value)
	}
}

func optionValue(opt *html.Node) string {
	if HasAttr(opt, "value") {
		return Attr(opt, "value")
	}
	return strings.TrimSpace(Text(opt))
}

// IsControl reports whether n is an input, textarea or select element.
func IsControl(n *html.Node) bool {
	return IsElement(n, "input", "textarea", "select")
}

// ControlType returns the lower-cased type of a control: the type attribute
// for inputs (default "text") and the tag name for textarea/select.
func ControlType(n *html.Node) string {
	switch {
	case IsElement(n, "textarea"):
		return "textarea"
	case IsElement(n, "select"):
		return "select"
	case IsElement(n, "input"):
		t := strings.ToLower(strings.TrimSpace(Attr(n, "type")))
		if t == "" {
			return "text"
		}
		return t
	default:
		return ""
	}
}
