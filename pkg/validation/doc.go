// Package validation evaluates form controls against a declarative rule table
// keyed by control kind and keeps exactly one error annotation per control in
// sync with the result. Evaluate is the pure decision; Engine.ValidateField
// adds the DOM side effect and Engine.ValidateForm gates a whole form without
// short-circuiting so every control reports at once. Cross-field comparisons
// (confirm password) use explicit associations recorded when a form is bound
// rather than DOM lookups at validation time. Rule messages are pongo2
// templates receiving the rule params plus `label` and `name`.
package validation
