package validation

import (
	"context"
	"strings"

	"github.com/go-logr/logr"
	"github.com/zoobzio/capitan"

	"github.com/goliatone/go-formguard/pkg/signals"
)

// Option configures an Engine.
type Option func(*config)

type config struct {
	rules     RuleTable
	messages  map[string]string
	annotator Annotator
	logger    logr.Logger
}

// WithRules replaces the rule table.
func WithRules(rules RuleTable) Option {
	return func(cfg *config) {
		if rules != nil {
			cfg.rules = rules.Clone()
		}
	}
}

// WithRule registers or overrides the rule for a kind.
func WithRule(kind Kind, rule Rule) Option {
	return func(cfg *config) {
		if rule.Name == "" {
			rule.Name = string(kind)
		}
		cfg.rules[kind] = rule
	}
}

// WithRuleParam sets a parameter on the rule registered for kind.
func WithRuleParam(kind Kind, key string, value any) Option {
	return func(cfg *config) {
		rule, ok := cfg.rules[kind]
		if !ok {
			return
		}
		if rule.Params == nil {
			rule.Params = make(map[string]any)
		}
		rule.Params[key] = value
		cfg.rules[kind] = rule
	}
}

// WithMessages overrides message templates by rule name.
func WithMessages(messages map[string]string) Option {
	return func(cfg *config) {
		for name, text := range messages {
			if strings.TrimSpace(text) == "" {
				continue
			}
			cfg.messages[strings.TrimSpace(name)] = text
		}
	}
}

// WithAnnotator swaps how results are rendered.
func WithAnnotator(annotator Annotator) Option {
	return func(cfg *config) {
		if annotator != nil {
			cfg.annotator = annotator
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger logr.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// Engine evaluates controls and keeps their annotations in sync.
type Engine struct {
	rules     RuleTable
	messages  *messageSet
	annotator Annotator
	logger    logr.Logger
}

// NewEngine builds an engine with the default rule table and messages,
// adjusted by options. It fails only when a message template does not compile.
func NewEngine(options ...Option) (*Engine, error) {
	cfg := &config{
		rules:     DefaultRules(),
		messages:  DefaultMessages(),
		annotator: DOMAnnotator{},
		logger:    logr.Discard(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	messages, err := compileMessages(cfg.messages)
	if err != nil {
		return nil, err
	}
	return &Engine{
		rules:     cfg.rules,
		messages:  messages,
		annotator: cfg.annotator,
		logger:    cfg.logger,
	}, nil
}

// MustNewEngine panics when NewEngine fails.
func MustNewEngine(options ...Option) *Engine {
	e, err := NewEngine(options...)
	if err != nil {
		panic(err)
	}
	return e
}

// Evaluate decides whether field is valid. Checks run in order (required,
// then the kind rule for non-empty values) and stop at the first failure; a
// failed Matches comparison then overrides whatever came before. lookup may
// be nil, in which case the comparison is skipped.
func (e *Engine) Evaluate(field Field, lookup Lookup) Result {
	value := strings.TrimSpace(field.Value)
	result := Valid()

	switch {
	case field.Required && value == "":
		result = e.fail(RuleRequired, field, nil)
	case value != "":
		if rule, ok := e.rules[field.Kind]; ok && rule.Check != nil && !rule.Check(value, rule.Params) {
			result = e.fail(rule.Name, field, rule.Params)
		}
	}

	if field.Matches != "" && lookup != nil {
		if other, ok := lookup(field.Matches); ok && strings.TrimSpace(other) != value {
			result = e.fail(RuleMatch, field, map[string]any{"other": field.Matches})
		}
	}
	return result
}

func (e *Engine) fail(rule string, field Field, params map[string]any) Result {
	return Result{
		Valid:   false,
		Rule:    rule,
		Message: e.messages.render(rule, field, params),
	}
}

// Validatable reports whether c carries any constraint.
func (e *Engine) Validatable(c *Control) bool {
	if c == nil {
		return false
	}
	if c.Required || c.Matches != "" {
		return true
	}
	_, ok := e.rules[c.Kind]
	return ok
}

// ValidateField evaluates one control against its form and synchronises its
// annotation. It never modifies the control's value.
func (e *Engine) ValidateField(c *Control) Result {
	if c == nil {
		return Valid()
	}
	var lookup Lookup
	if c.Form != nil {
		lookup = c.Form.Lookup()
	}
	result := e.Evaluate(c.Field(), lookup)
	e.annotator.Sync(c, result)

	e.logger.V(2).Info("field validated", "field", c.Key(), "valid", result.Valid, "rule", result.Rule)
	capitan.Emit(context.Background(), signals.FieldValidated,
		signals.KeyField.Field(c.Key()),
		signals.KeyRule.Field(result.Rule),
		signals.KeyMessage.Field(result.Message),
	)
	return result
}

// FormReport summarises a form validation pass.
type FormReport struct {
	Valid   bool
	Results map[string]Result
	Invalid []string
}

// ValidateForm validates every constrained control of f. It never stops at
// the first failure, so every annotation reflects the current values.
func (e *Engine) ValidateForm(f *Form) bool {
	return e.Report(f).Valid
}

// Report is ValidateForm returning per-control detail. Controls without
// constraints are left out of the results but have stale annotations removed.
func (e *Engine) Report(f *Form) FormReport {
	report := FormReport{Valid: true, Results: make(map[string]Result)}
	if f == nil {
		return report
	}
	for _, c := range f.controls {
		if !e.Validatable(c) {
			e.annotator.Sync(c, Valid())
			continue
		}
		result := e.ValidateField(c)
		report.Results[c.Key()] = result
		if !result.Valid {
			report.Valid = false
			report.Invalid = append(report.Invalid, c.Key())
		}
	}
	e.logger.V(1).Info("form validated", "form", f.ID, "valid", report.Valid, "invalid", len(report.Invalid))
	return report
}
