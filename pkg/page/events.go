package page

import (
	"context"

	"github.com/zoobzio/capitan"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/dom"
	"github.com/goliatone/go-formguard/pkg/feedback"
	"github.com/goliatone/go-formguard/pkg/signals"
	"github.com/goliatone/go-formguard/pkg/validation"
)

const (
	classFocused = "focused"
	classFilled  = "filled"
)

// Input handles a value change on target: only that control is revalidated,
// its counter refreshed and any search debounce restarted. Controls without
// constraints still lose any annotation a server error left on them.
func (p *Page) Input(target *html.Node) validation.Result {
	result := validation.Valid()
	if c := p.controlFor(target); c != nil {
		result = p.engine.ValidateField(c)
	}
	if counter, ok := p.counters[target]; ok {
		counter.Update()
	}
	if scope, d := p.searchScope(target); d != nil {
		d.Call(scope)
	}
	p.logger.V(2).Info("input", "target", dom.Attr(target, "name"), "valid", result.Valid)
	return result
}

// Change handles a committed change, as fired by selects and checkboxes.
func (p *Page) Change(target *html.Node) validation.Result {
	result := p.Input(target)
	if d := p.filterScope(target); d != nil {
		d.Call(dom.Closest(target, "form"))
	}
	return result
}

// Focus marks the control's container as focused.
func (p *Page) Focus(target *html.Node) {
	dom.AddClass(dom.ParentElement(target), classFocused)
}

// Blur clears the focus mark and records whether the control holds a value.
func (p *Page) Blur(target *html.Node) {
	container := dom.ParentElement(target)
	dom.RemoveClass(container, classFocused)
	dom.SetClass(container, classFilled, dom.Value(target) != "")
}

// SubmitResult describes the outcome of a submit event.
type SubmitResult struct {
	// Allowed is false when the native submission must be cancelled.
	Allowed bool
	Report  validation.FormReport
	// Notice is the summary raised on a veto.
	Notice *feedback.Notice
}

// Submit validates every control of the form holding target before the
// native submission may proceed. A vetoed submit raises an error notice; an
// allowed one puts the form's submit buttons into their loading state.
func (p *Page) Submit(target *html.Node) SubmitResult {
	form := p.formFor(target)
	if form == nil {
		return SubmitResult{Allowed: true, Report: validation.FormReport{Valid: true}}
	}

	report := p.engine.Report(form)
	res := SubmitResult{Allowed: report.Valid, Report: report}
	if !report.Valid {
		res.Notice = p.scheduler.ShowNotice(p.cfg.Page.VetoMessage, feedback.SeverityDanger, 0)
		p.logger.V(1).Info("submit vetoed", "form", form.ID, "invalid", report.Invalid)
		capitan.Emit(context.Background(), signals.SubmitVetoed,
			signals.KeyForm.Field(form.ID),
			signals.KeyInvalid.Field(len(report.Invalid)),
		)
		return res
	}

	p.startLoading(form.Node)
	p.logger.V(1).Info("submit allowed", "form", form.ID)
	capitan.Emit(context.Background(), signals.SubmitAllowed,
		signals.KeyForm.Field(form.ID),
		signals.KeyInvalid.Field(0),
	)
	return res
}

// Scroll samples the vertical offset for threshold-driven elements.
func (p *Page) Scroll(offset int) {
	p.offset = offset
	p.backToTop.Sample(offset)
}

// Offset returns the last sampled scroll offset.
func (p *Page) Offset() int {
	return p.offset
}

// Click handles a click on target and reports whether the element's default
// action should proceed.
func (p *Page) Click(target *html.Node) bool {
	if p.scheduler.HandleClick(target) {
		return false
	}
	for cur := target; cur != nil; cur = cur.Parent {
		if _, ok := p.toggles[cur]; ok {
			p.togglePassword(cur)
			return false
		}
		if cur == p.backToTop.Node() {
			p.Scroll(0)
			return false
		}
		if !dom.IsElement(cur) {
			continue
		}
		if msg, ok := ConfirmPrompt(cur); ok {
			allowed := p.confirm(msg)
			p.logger.V(1).Info("destructive action", "prompt", msg, "confirmed", allowed)
			return allowed
		}
	}
	return true
}
