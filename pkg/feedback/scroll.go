package feedback

import (
	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/dom"
)

// ClassVisible is toggled on threshold-driven elements.
const ClassVisible = "visible"

// ScrollVisibility shows an element while the scroll offset exceeds a
// threshold. It holds no state besides its configuration.
type ScrollVisibility struct {
	node      *html.Node
	threshold int
}

// BindScrollVisibility returns a sampler for node.
func (s *Scheduler) BindScrollVisibility(node *html.Node, threshold int) *ScrollVisibility {
	if node == nil {
		return nil
	}
	return &ScrollVisibility{node: node, threshold: threshold}
}

// Sample applies the visibility predicate for offset and returns it.
func (v *ScrollVisibility) Sample(offset int) bool {
	if v == nil {
		return false
	}
	visible := offset > v.threshold
	dom.SetClass(v.node, ClassVisible, visible)
	return visible
}

// Node returns the controlled element.
func (v *ScrollVisibility) Node() *html.Node {
	if v == nil {
		return nil
	}
	return v.node
}
