package validation

import (
	"sort"
	"strconv"
	"strings"
)

// ErrorMapping splits a server error payload into control-level messages
// (keyed by control key) and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MapErrorPayload maps server-side errors onto the controls of f. Keys may be
// plain names, ids, dotted paths or JSON pointers (`/body/email`); keys that
// do not resolve to a control become form-level messages so nothing is lost.
func MapErrorPayload(f *Form, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}

	paths := make([]string, 0, len(payload))
	for rawPath := range payload {
		paths = append(paths, rawPath)
	}
	sort.Strings(paths)

	for _, rawPath := range paths {
		messages := normalizeMessages(payload[rawPath])
		if len(messages) == 0 {
			continue
		}
		c := resolveErrorPath(f, rawPath)
		if c == nil {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[c.Key()] = append(mapping.Fields[c.Key()], messages...)
	}

	for key, messages := range mapping.Fields {
		mapping.Fields[key] = normalizeMessages(messages)
	}
	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// ApplyServerErrors annotates each control named in payload with its first
// message and returns the form-level messages for the caller to surface.
func (e *Engine) ApplyServerErrors(f *Form, payload map[string][]string) []string {
	mapping := MapErrorPayload(f, payload)
	for key, messages := range mapping.Fields {
		c := f.Control(key)
		if c == nil || len(messages) == 0 {
			continue
		}
		e.annotator.Sync(c, Result{Valid: false, Rule: "server", Message: messages[0]})
	}
	return mapping.Form
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func resolveErrorPath(f *Form, raw string) *Control {
	if f == nil || isFormLevelKey(raw) {
		return nil
	}
	segments := pathSegments(raw)
	if len(segments) == 0 {
		return nil
	}
	for _, variant := range [][]string{segments, dropWrappers(segments), stripNumeric(dropWrappers(segments))} {
		// Longest dotted prefix first, so "owner.email" beats "owner".
		for end := len(variant); end > 0; end-- {
			if c := f.Control(strings.Join(variant[:end], ".")); c != nil {
				return c
			}
		}
	}
	return nil
}

func pathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	clean = strings.TrimLeft(clean, "#$/.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}

func dropWrappers(segments []string) []string {
	out := segments
	for len(out) > 0 {
		switch strings.ToLower(out[0]) {
		case "body", "request", "payload", "data", "attributes", "fields", "errors":
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func stripNumeric(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
