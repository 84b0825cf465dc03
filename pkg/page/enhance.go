package page

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/dom"
	"github.com/goliatone/go-formguard/pkg/eventloop"
)

const (
	classPasswordField  = "password-field"
	classPasswordToggle = "password-toggle-btn"
	attrToggleFor       = "data-toggle-for"
	iconShow            = "👁️"
	iconHide            = "🙈"

	classBackToTop = "back-to-top"

	classLoading   = "loading"
	processingText = "Processing..."

	defaultConfirm = "Are you sure?"
	deleteConfirm  = "Are you sure you want to delete this? This action cannot be undone."
)

func (p *Page) bindPasswordToggles() {
	for _, field := range p.doc.Find(`//input[@type="password"]`) {
		wrapper := dom.CreateElement("div",
			dom.A("class", classPasswordField),
			dom.A("style", "position: relative;"),
		)
		dom.Wrap(field, wrapper)

		toggle := dom.CreateElement("button",
			dom.A("type", "button"),
			dom.A("class", classPasswordToggle),
			dom.A("aria-label", "Show password"),
			dom.A("aria-pressed", "false"),
		)
		if id := dom.Attr(field, "id"); id != "" {
			dom.SetAttr(toggle, attrToggleFor, id)
		}
		dom.SetText(toggle, iconShow)
		dom.Append(wrapper, toggle)
		p.toggles[toggle] = field
	}
}

// togglePassword flips the input between masked and plain text. The control
// keeps the kind it was bound with, so validation is unaffected.
func (p *Page) togglePassword(toggle *html.Node) {
	field := p.toggles[toggle]
	if dom.Attr(field, "type") == "password" {
		dom.SetAttr(field, "type", "text")
		dom.SetText(toggle, iconHide)
		dom.SetAttr(toggle, "aria-label", "Hide password")
		dom.SetAttr(toggle, "aria-pressed", "true")
		return
	}
	dom.SetAttr(field, "type", "password")
	dom.SetText(toggle, iconShow)
	dom.SetAttr(toggle, "aria-label", "Show password")
	dom.SetAttr(toggle, "aria-pressed", "false")
}

func (p *Page) bindBackToTop() {
	node := p.doc.FindOne("//*[" + dom.ClassPredicate(classBackToTop) + "]")
	if node == nil {
		node = dom.CreateElement("button",
			dom.A("type", "button"),
			dom.A("class", classBackToTop),
			dom.A("aria-label", "Back to top"),
		)
		dom.SetText(node, "↑")
		dom.Append(p.doc.Body(), node)
	}
	p.backToTop = p.scheduler.BindScrollVisibility(node, p.cfg.Page.BackToTopThreshold)
	p.backToTop.Sample(p.offset)
}

// ConfirmPrompt reports whether target is a destructive action and the
// prompt to show for it.
func ConfirmPrompt(target *html.Node) (string, bool) {
	if dom.HasAttr(target, "data-confirm") {
		if msg := strings.TrimSpace(dom.Attr(target, "data-confirm")); msg != "" {
			return msg, true
		}
		return defaultConfirm, true
	}
	if dom.IsElement(target, "a") && strings.Contains(dom.Attr(target, "href"), "delete") {
		return deleteConfirm, true
	}
	if dom.IsElement(target, "button") && strings.EqualFold(dom.Attr(target, "type"), "submit") &&
		strings.Contains(dom.Attr(target, "class"), "danger") {
		return deleteConfirm, true
	}
	return "", false
}

func (p *Page) confirm(message string) bool {
	if p.confirmer == nil {
		p.logger.V(1).Info("no confirmer installed, allowing action", "prompt", message)
		return true
	}
	return p.confirmer.Confirm(message)
}

type loadingState struct {
	text  string
	timer *eventloop.Timer
}

// startLoading disables every submit button of form until the loading
// timeout passes. Buttons already loading keep their original timer.
func (p *Page) startLoading(form *html.Node) {
	for _, button := range dom.Find(form, `.//button[@type="submit"]`) {
		if _, busy := p.loading[button]; busy {
			continue
		}
		state := &loadingState{text: dom.Text(button)}
		dom.SetAttr(button, "disabled", "")
		dom.AddClass(button, classLoading)
		dom.SetText(button, processingText)
		state.timer = p.loop.AfterFunc(p.cfg.Page.LoadingTimeout, func() {
			p.restoreButton(button)
		})
		p.loading[button] = state
	}
}

func (p *Page) restoreButton(button *html.Node) {
	state, ok := p.loading[button]
	if !ok {
		return
	}
	state.timer.Stop()
	delete(p.loading, button)
	dom.RemoveAttr(button, "disabled")
	dom.RemoveClass(button, classLoading)
	dom.SetText(button, state.text)
}

// RestoreSubmit ends the loading state of form's submit buttons early, for
// hosts that learn the submission failed.
func (p *Page) RestoreSubmit(form *html.Node) {
	for _, button := range dom.Find(form, `.//button[@type="submit"]`) {
		p.restoreButton(button)
	}
}

// Loading reports whether button is in its post-submit loading state.
func (p *Page) Loading(button *html.Node) bool {
	_, ok := p.loading[button]
	return ok
}
