// Package formguard binds field validation and transient feedback to
// server-rendered job-board pages. The heavy lifting lives in pkg/page; this
// package re-exports the common entry points.
package formguard

import (
	"bytes"
	"io"
	"strings"

	"github.com/goliatone/go-formguard/pkg/feedback"
	"github.com/goliatone/go-formguard/pkg/page"
	"github.com/goliatone/go-formguard/pkg/validation"
)

// Page is a bound document; alias exported via the root package for
// convenience.
type Page = page.Page

// Option configures Load.
type Option = page.Option

// Result is the outcome of validating one field.
type Result = validation.Result

// Field is the rule input for a single control.
type Field = validation.Field

// Notice is a transient message handle.
type Notice = feedback.Notice

// Load parses markup and binds every form and enhancement.
func Load(r io.Reader, options ...Option) (*Page, error) {
	return page.Load(r, options...)
}

// LoadString is Load for in-memory markup.
func LoadString(markup string, options ...Option) (*Page, error) {
	return page.Load(strings.NewReader(markup), options...)
}

// Enhance binds markup and returns the resulting document, with counters,
// password toggles, notice controls and the stylesheet in place. It is the
// simplest entry point for callers that pre-render pages.
func Enhance(markup string, options ...Option) ([]byte, error) {
	p, err := LoadString(markup, options...)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate evaluates a standalone field with the default rules. lookup
// resolves the comparison partner named by field.Matches and may be nil.
func Validate(field Field, lookup validation.Lookup) Result {
	return defaultEngine.Evaluate(field, lookup)
}

var defaultEngine = validation.MustNewEngine()
