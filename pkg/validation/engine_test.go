package validation_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard/pkg/validation"
)

func newEngine(t *testing.T, options ...validation.Option) *validation.Engine {
	t.Helper()
	engine, err := validation.NewEngine(options...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEvaluate_RequiredWinsForEveryKind(t *testing.T) {
	engine := newEngine(t)
	kinds := []validation.Kind{
		validation.KindNone, validation.KindText, validation.KindEmail, validation.KindPassword,
		validation.KindTel, validation.KindURL, validation.KindSelect, validation.KindTextarea,
	}
	for _, kind := range kinds {
		for _, value := range []string{"", "   ", "\t\n"} {
			got := engine.Evaluate(validation.Field{Name: "f", Kind: kind, Required: true, Value: value}, nil)
			want := validation.Result{Valid: false, Rule: validation.RuleRequired, Message: "This field is required"}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("kind %q value %q mismatch (-want +got):\n%s", kind, value, diff)
			}
		}
	}
}

func TestEvaluate_KindRules(t *testing.T) {
	engine := newEngine(t)

	cases := []struct {
		name  string
		kind  validation.Kind
		value string
		want  validation.Result
	}{
		{"email ok", validation.KindEmail, "jane@example.com", validation.Valid()},
		{"email trimmed", validation.KindEmail, "  jane@example.com ", validation.Valid()},
		{"email missing at", validation.KindEmail, "jane.example.com", invalid(validation.RuleEmail, "Please enter a valid email address")},
		{"email missing dot", validation.KindEmail, "jane@example", invalid(validation.RuleEmail, "Please enter a valid email address")},
		{"email bad", validation.KindEmail, "bad", invalid(validation.RuleEmail, "Please enter a valid email address")},
		{"email inner space", validation.KindEmail, "ja ne@example.com", invalid(validation.RuleEmail, "Please enter a valid email address")},
		{"password short", validation.KindPassword, "short", invalid(validation.RulePassword, "Password must be at least 8 characters")},
		{"password ok", validation.KindPassword, "longenough", validation.Valid()},
		{"password utf16 units", validation.KindPassword, "😀😀😀😀", validation.Valid()},
		{"password short accents", validation.KindPassword, "héllo", invalid(validation.RulePassword, "Password must be at least 8 characters")},
		{"tel ok", validation.KindTel, "+1 (555) 010-2030", validation.Valid()},
		{"tel letters", validation.KindTel, "555-CALL", invalid(validation.RuleTel, "Please enter a valid phone number")},
		{"url ok", validation.KindURL, "https://example.com/jobs", validation.Valid()},
		{"url opaque", validation.KindURL, "mailto:hr@example.com", validation.Valid()},
		{"url relative", validation.KindURL, "example.com", invalid(validation.RuleURL, "Please enter a valid URL")},
		{"url no host", validation.KindURL, "http://", invalid(validation.RuleURL, "Please enter a valid URL")},
		{"url space in host", validation.KindURL, "http://exa mple.com", invalid(validation.RuleURL, "Please enter a valid URL")},
		{"optional empty email", validation.KindEmail, "", validation.Valid()},
		{"no kind", validation.KindNone, "anything", validation.Valid()},
		{"unknown kind", validation.Kind("number"), "abc", validation.Valid()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.Evaluate(validation.Field{Name: "f", Kind: tc.kind, Value: tc.value}, nil)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluate_MatchOverridesAndComparesTrimmed(t *testing.T) {
	engine := newEngine(t)
	values := map[string]string{"password1": "secret-pass"}
	lookup := func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
	confirm := validation.Field{Name: "password2", Kind: validation.KindPassword, Matches: "password1"}

	confirm.Value = " secret-pass "
	if got := engine.Evaluate(confirm, lookup); !got.Valid {
		t.Fatalf("expected trimmed match to pass, got %+v", got)
	}

	confirm.Value = "short"
	got := engine.Evaluate(confirm, lookup)
	if got.Rule != validation.RuleMatch || got.Message != "Passwords do not match" {
		t.Fatalf("expected mismatch to override length rule, got %+v", got)
	}

	values["password1"] = ""
	confirm.Value = ""
	if got := engine.Evaluate(confirm, lookup); !got.Valid {
		t.Fatalf("expected empty against empty to pass, got %+v", got)
	}
	confirm.Value = "something-long"
	if got := engine.Evaluate(confirm, lookup); got.Rule != validation.RuleMatch {
		t.Fatalf("expected mismatch against empty primary, got %+v", got)
	}

	delete(values, "password1")
	if got := engine.Evaluate(confirm, lookup); !got.Valid {
		t.Fatalf("expected missing primary to skip comparison, got %+v", got)
	}
}

func TestEngine_CustomMessagesAndParams(t *testing.T) {
	engine := newEngine(t,
		validation.WithRuleParam(validation.KindPassword, "min", 12),
		validation.WithMessages(map[string]string{
			validation.RuleRequired: "{{ label }} is required",
		}),
	)

	got := engine.Evaluate(validation.Field{Label: "Email", Required: true}, nil)
	if got.Message != "Email is required" {
		t.Fatalf("unexpected required message %q", got.Message)
	}

	got = engine.Evaluate(validation.Field{Kind: validation.KindPassword, Value: "elevenchars"}, nil)
	if got.Message != "Password must be at least 12 characters" {
		t.Fatalf("unexpected password message %q", got.Message)
	}
}

func TestEngine_CustomRule(t *testing.T) {
	engine := newEngine(t, validation.WithRule("zip", validation.Rule{
		Check: func(value string, _ map[string]any) bool { return len(value) == 5 },
	}), validation.WithMessages(map[string]string{"zip": "Zip codes have five digits"}))

	got := engine.Evaluate(validation.Field{Kind: "zip", Value: "123"}, nil)
	want := invalid("zip", "Zip codes have five digits")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestNewEngine_RejectsBrokenTemplate(t *testing.T) {
	_, err := validation.NewEngine(validation.WithMessages(map[string]string{
		validation.RuleEmail: "{{ broken",
	}))
	if err == nil {
		t.Fatalf("expected template compile error")
	}
}

func invalid(rule, message string) validation.Result {
	return validation.Result{Valid: false, Rule: rule, Message: message}
}
