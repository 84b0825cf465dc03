package feedback

import (
	_ "embed"

	"github.com/goliatone/go-formguard/pkg/dom"
)

//go:embed assets/feedback.css
var stylesheet string

// attrStylesheet marks the injected <style> so it is only added once.
const attrStylesheet = "data-formguard-styles"

// Stylesheet returns the keyframes and base rules used by notices, counters,
// annotations and the back-to-top control.
func Stylesheet() string {
	return stylesheet
}

// InstallStyles appends the stylesheet to <head> unless already present.
func InstallStyles(doc *dom.Document) {
	head := doc.Head()
	if head == nil {
		return
	}
	if dom.FindOne(head, ".//style[@"+attrStylesheet+"]") != nil {
		return
	}
	style := dom.CreateElement("style", dom.A(attrStylesheet, ""))
	dom.SetText(style, stylesheet)
	dom.Append(head, style)
}
