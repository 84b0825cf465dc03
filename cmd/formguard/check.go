package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/config"
	"github.com/goliatone/go-formguard/pkg/dom"
	"github.com/goliatone/go-formguard/pkg/page"
	"github.com/goliatone/go-formguard/pkg/validation"
)

// ErrFormNotFound is returned when the requested form is not in the document.
var ErrFormNotFound = errors.New("formguard: form not found")

type checkOptions struct {
	path       string
	form       string
	skipChecks bool
}

// runCheck walks the user through every control of a form, validating each
// answer with the engine, then submits and prints the outcome.
func runCheck(ctx context.Context, w io.Writer, prompts prompter, logger logr.Logger, cfg config.Config, opts checkOptions) (bool, error) {
	f, err := os.Open(opts.path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", opts.path, err)
	}
	defer f.Close()

	p, err := page.Load(f, page.WithConfig(cfg), page.WithLogger(logger))
	if err != nil {
		return false, err
	}

	form := pickForm(p, opts.form)
	if form == nil {
		return false, fmt.Errorf("%w: %q", ErrFormNotFound, opts.form)
	}

	for _, c := range form.Controls() {
		answer, err := askControl(ctx, prompts, p.Engine(), form, c, opts.skipChecks)
		if err != nil {
			return false, err
		}
		dom.SetValue(c.Node, answer)
		p.Input(c.Node)
	}

	proceed, err := prompts.Confirm(ctx, fmt.Sprintf("Submit form %s?", form.ID), true)
	if err != nil {
		return false, err
	}
	if !proceed {
		fmt.Fprintln(w, "submission cancelled")
		return false, nil
	}

	res := p.Submit(form.Node)
	printOutcome(w, form, res)
	return res.Allowed, nil
}

func pickForm(p *page.Page, id string) *validation.Form {
	forms := p.Forms()
	if id == "" {
		if len(forms) == 0 {
			return nil
		}
		return forms[0]
	}
	return p.Form(id)
}

func askControl(ctx context.Context, prompts prompter, engine *validation.Engine, form *validation.Form, c *validation.Control, skipChecks bool) (string, error) {
	cfg := promptConfig{
		Message: c.Label,
		Default: dom.Value(c.Node),
	}
	if c.Required {
		cfg.Help = "required"
	}

	var check func(string) error
	if !skipChecks && engine.Validatable(c) {
		check = func(answer string) error {
			field := c.Field()
			field.Value = answer
			if res := engine.Evaluate(field, form.Lookup()); !res.Valid {
				return errors.New(res.Message)
			}
			return nil
		}
	}
	cfg.Validator = check

	switch c.Kind {
	case validation.KindPassword:
		return prompts.Password(ctx, cfg)
	case validation.KindTextarea:
		return prompts.TextArea(ctx, cfg)
	case validation.KindSelect:
		values, labels := selectOptions(c.Node)
		if len(values) == 0 {
			return "", nil
		}
		valueOf := func(label string) string {
			for i, l := range labels {
				if l == label {
					return values[i]
				}
			}
			return label
		}
		cfg.Options = labels
		for i, v := range values {
			if v == cfg.Default {
				cfg.Default = labels[i]
				break
			}
		}
		if check != nil {
			cfg.Validator = func(label string) error { return check(valueOf(label)) }
		}
		picked, err := prompts.Select(ctx, cfg)
		if err != nil {
			return "", err
		}
		return valueOf(picked), nil
	default:
		return prompts.Input(ctx, cfg)
	}
}

// selectOptions returns option values alongside their display labels.
func selectOptions(sel *html.Node) (values, labels []string) {
	for _, opt := range dom.Find(sel, ".//option") {
		label := dom.Text(opt)
		value := label
		if dom.HasAttr(opt, "value") {
			value = dom.Attr(opt, "value")
		}
		if label == "" {
			label = value
		}
		values = append(values, value)
		labels = append(labels, label)
	}
	return values, labels
}

func printOutcome(w io.Writer, form *validation.Form, res page.SubmitResult) {
	if res.Allowed {
		fmt.Fprintf(w, "form %s: submit allowed\n", form.ID)
		return
	}
	fmt.Fprintf(w, "form %s: submit vetoed (%d invalid)\n", form.ID, len(res.Report.Invalid))
	for _, key := range res.Report.Invalid {
		fmt.Fprintf(w, "  %s: %s\n", key, res.Report.Results[key].Message)
	}
	if res.Notice != nil {
		fmt.Fprintf(w, "notice [%s] %s\n", res.Notice.Severity, res.Notice.Message)
	}
}
