package page

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/dom"
	"github.com/goliatone/go-formguard/pkg/eventloop"
)

const (
	classSearchForm = "search-form"
	classFilters    = "filters"
)

func (p *Page) bindQueries() {
	for _, node := range p.doc.Find("//*[" + dom.ClassPredicate(classSearchForm) + "]") {
		p.searches[node] = eventloop.Debounce(p.loop, p.cfg.Page.SearchDebounce, p.runSearch)
	}
	for _, node := range p.doc.Find("//*[" + dom.ClassPredicate(classFilters) + "]//form") {
		p.filters[node] = eventloop.Debounce(p.loop, p.cfg.Page.FilterDebounce, p.runFilter)
	}
}

func (p *Page) runSearch(scope *html.Node) {
	values := formValues(scope)
	p.logger.V(2).Info("search settled", "values", values.Encode())
	if p.onSearch != nil {
		p.onSearch(scope, values)
	}
}

func (p *Page) runFilter(form *html.Node) {
	values := formValues(form)
	p.logger.V(2).Info("filter settled", "values", values.Encode(), "autoSubmit", p.cfg.Page.FilterAutoSubmit)
	if p.onFilter != nil {
		p.onFilter(form, values)
	}
	if !p.cfg.Page.FilterAutoSubmit {
		return
	}
	if !p.Submit(form).Allowed || p.submitter == nil {
		return
	}
	if err := p.submitter.Submit(form); err != nil {
		p.logger.Error(err, "filter auto-submit failed")
		p.RestoreSubmit(form)
	}
}

// searchScope returns the search container holding node and its debouncer.
func (p *Page) searchScope(node *html.Node) (*html.Node, *eventloop.Debouncer[*html.Node]) {
	for cur := node; cur != nil; cur = cur.Parent {
		if d, ok := p.searches[cur]; ok {
			return cur, d
		}
	}
	return nil, nil
}

func (p *Page) filterScope(node *html.Node) *eventloop.Debouncer[*html.Node] {
	return p.filters[dom.Closest(node, "form")]
}

// formValues collects what a native submission of scope would send.
func formValues(scope *html.Node) url.Values {
	values := url.Values{}
	for _, n := range dom.Find(scope, ".//input | .//select | .//textarea") {
		name := dom.Attr(n, "name")
		if name == "" || dom.HasAttr(n, "disabled") {
			continue
		}
		switch strings.ToLower(dom.ControlType(n)) {
		case "submit", "button", "reset", "image", "file":
			continue
		case "checkbox", "radio":
			if !dom.HasAttr(n, "checked") {
				continue
			}
			value := dom.Attr(n, "value")
			if value == "" {
				value = "on"
			}
			values.Add(name, value)
			continue
		}
		values.Add(name, dom.Value(n))
	}
	return values
}
