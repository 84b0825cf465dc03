package validation

import (
	"fmt"
	"strings"

	"github.com/flosch/pongo2/v6"
)

type messageSet struct {
	raw       map[string]string
	templates map[string]*pongo2.Template
}

func compileMessages(raw map[string]string) (*messageSet, error) {
	set := &messageSet{
		raw:       make(map[string]string, len(raw)),
		templates: make(map[string]*pongo2.Template, len(raw)),
	}
	for name, text := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		// Messages land in text nodes, so HTML escaping would double-encode.
		tpl, err := pongo2.FromString("{% autoescape off %}" + text + "{% endautoescape %}")
		if err != nil {
			return nil, fmt.Errorf("validation: compile message %q: %w", name, err)
		}
		set.raw[name] = text
		set.templates[name] = tpl
	}
	return set, nil
}

// render interpolates the message for rule. Missing or failing templates fall
// back to the raw text, then to a generic message, so a field is never
// annotated with an empty string.
func (m *messageSet) render(rule string, field Field, params map[string]any) string {
	tpl, ok := m.templates[rule]
	if !ok {
		return "Please correct this field"
	}
	ctx := pongo2.Context{
		"name":  field.Name,
		"label": field.Label,
		"kind":  string(field.Kind),
	}
	for k, v := range params {
		ctx[k] = v
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return m.raw[rule]
	}
	return strings.TrimSpace(out)
}
