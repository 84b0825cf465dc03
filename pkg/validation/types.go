package validation

import "strings"

// Kind is the declared input kind of a control.
type Kind string

const (
	KindNone     Kind = ""
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindPassword Kind = "password"
	KindTel      Kind = "tel"
	KindURL      Kind = "url"
	KindSelect   Kind = "select"
	KindTextarea Kind = "textarea"
)

// ParseKind normalises a type attribute or tag name into a Kind. Unknown
// values are kept verbatim so custom rules can target them.
func ParseKind(raw string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(raw)))
}

// Field is a snapshot of a control taken at evaluation time.
type Field struct {
	Name      string
	ID        string
	Label     string
	Kind      Kind
	Value     string
	Required  bool
	MaxLength int
	// Matches names the control (id or name) whose value this field must
	// equal, e.g. a confirm password pointing at the primary password.
	Matches string
}

// Key identifies the field, preferring the id over the name.
func (f Field) Key() string {
	if id := strings.TrimSpace(f.ID); id != "" {
		return id
	}
	return strings.TrimSpace(f.Name)
}

// Result is the outcome of evaluating one field. It is derived on demand and
// never cached.
type Result struct {
	Valid   bool   `json:"valid"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message,omitempty"`
}

// Valid is the passing result.
func Valid() Result {
	return Result{Valid: true}
}

// Lookup resolves the current value of another control in the same form.
type Lookup func(key string) (string, bool)
