package validation

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Built-in rule identifiers. They double as message keys.
const (
	RuleRequired = "required"
	RuleEmail    = "email"
	RulePassword = "password"
	RuleTel      = "tel"
	RuleURL      = "url"
	RuleMatch    = "match"
)

// DefaultPasswordMinLength mirrors the historical client-side minimum.
const DefaultPasswordMinLength = 8

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	telPattern   = regexp.MustCompile(`^[\d\s\-+()]+$`)
)

// Check reports whether a non-empty, trimmed value satisfies a rule.
type Check func(value string, params map[string]any) bool

// Rule is a single entry of the rule table.
type Rule struct {
	Name   string
	Check  Check
	Params map[string]any
}

// RuleTable maps a control kind to the rule applied to non-empty values.
// Kinds without an entry only honour the required flag.
type RuleTable map[Kind]Rule

// Clone copies the table so callers can adjust it without touching shared
// defaults.
func (t RuleTable) Clone() RuleTable {
	out := make(RuleTable, len(t))
	for kind, rule := range t {
		params := make(map[string]any, len(rule.Params))
		for k, v := range rule.Params {
			params[k] = v
		}
		rule.Params = params
		out[kind] = rule
	}
	return out
}

// DefaultRules returns the built-in rule table.
func DefaultRules() RuleTable {
	return RuleTable{
		KindEmail: {Name: RuleEmail, Check: checkEmail},
		KindPassword: {
			Name:   RulePassword,
			Check:  checkMinLength,
			Params: map[string]any{"min": DefaultPasswordMinLength},
		},
		KindTel: {Name: RuleTel, Check: checkTel},
		KindURL: {Name: RuleURL, Check: checkURL},
	}
}

// DefaultMessages are the message templates for the built-in rules.
func DefaultMessages() map[string]string {
	return map[string]string{
		RuleRequired: "This field is required",
		RuleEmail:    "Please enter a valid email address",
		RulePassword: "Password must be at least {{ min }} characters",
		RuleTel:      "Please enter a valid phone number",
		RuleURL:      "Please enter a valid URL",
		RuleMatch:    "Passwords do not match",
	}
}

func checkEmail(value string, _ map[string]any) bool {
	return emailPattern.MatchString(value)
}

func checkTel(value string, _ map[string]any) bool {
	return telPattern.MatchString(value)
}

func checkMinLength(value string, params map[string]any) bool {
	return len(utf16.Encode([]rune(value))) >= intParam(params, "min", 0)
}

// checkURL accepts absolute URLs only. Hierarchical schemes need a host;
// opaque ones (mailto:, tel:) need a payload.
func checkURL(value string, _ map[string]any) bool {
	u, err := url.Parse(value)
	if err != nil || !u.IsAbs() {
		return false
	}
	switch {
	case u.Host != "":
		return true
	case u.Opaque != "":
		return true
	case strings.EqualFold(u.Scheme, "file") && u.Path != "":
		return true
	default:
		return false
	}
}

func intParam(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}
