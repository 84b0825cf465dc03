package validation

import (
	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/dom"
)

const (
	// ClassAnnotation marks the error node rendered under a control.
	ClassAnnotation = "field-error"
	// ClassInvalid marks a control that currently fails validation.
	ClassInvalid = "error"
	// AttrAnnotationFor ties an annotation to its control key.
	AttrAnnotationFor = "data-error-for"
)

// Annotator renders a result onto the document.
type Annotator interface {
	Sync(c *Control, r Result)
}

// AnnotatorFunc adapts a function into an Annotator.
type AnnotatorFunc func(c *Control, r Result)

// Sync delegates to the underlying function.
func (fn AnnotatorFunc) Sync(c *Control, r Result) {
	fn(c, r)
}

// DOMAnnotator keeps at most one annotation node per control inside the
// control's container.
type DOMAnnotator struct{}

// Sync creates, updates or removes the control's annotation to match r.
// Calling it repeatedly with the same result leaves the document unchanged.
func (DOMAnnotator) Sync(c *Control, r Result) {
	if c == nil || c.Node == nil || c.Container == nil {
		return
	}
	node := annotationNode(c)

	if r.Valid {
		if node != nil {
			dom.Detach(node)
		}
		dom.RemoveClass(c.Node, ClassInvalid)
		dom.RemoveAttr(c.Node, "aria-invalid")
		if dom.Attr(c.Node, "aria-describedby") == annotationID(c) {
			dom.RemoveAttr(c.Node, "aria-describedby")
		}
		return
	}

	if node == nil {
		node = dom.CreateElement("div",
			dom.A("class", ClassAnnotation),
			dom.A(AttrAnnotationFor, c.Key()),
			dom.A("id", annotationID(c)),
			dom.A("role", "alert"),
		)
		dom.Append(c.Container, node)
	}
	if dom.Text(node) != r.Message {
		dom.SetText(node, r.Message)
	}
	dom.AddClass(c.Node, ClassInvalid)
	dom.SetAttr(c.Node, "aria-invalid", "true")
	dom.SetAttr(c.Node, "aria-describedby", annotationID(c))
}

// Annotation returns the annotation currently rendered for c, if any.
func Annotation(c *Control) *html.Node {
	if c == nil || c.Container == nil {
		return nil
	}
	return dom.ChildWithClass(c.Container, ClassAnnotation, AttrAnnotationFor, c.Key())
}

// annotationNode returns the control's annotation, detaching strays so the
// single-annotation invariant holds even when markup arrived duplicated.
func annotationNode(c *Control) *html.Node {
	var keep *html.Node
	for n := c.Container.FirstChild; n != nil; {
		next := n.NextSibling
		if dom.IsElement(n) && dom.HasClass(n, ClassAnnotation) && dom.Attr(n, AttrAnnotationFor) == c.Key() {
			if keep == nil {
				keep = n
			} else {
				dom.Detach(n)
			}
		}
		n = next
	}
	return keep
}

func annotationID(c *Control) string {
	return c.Key() + "-error"
}
