package testsupport

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/zoobzio/clockz"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/dom"
	"github.com/goliatone/go-formguard/pkg/eventloop"
)

// LoadDocument reads an HTML fixture. Testing helpers fail the test on error
// to keep page tests concise.
func LoadDocument(t *testing.T, path string) *dom.Document {
	t.Helper()

	doc, err := LoadDocumentFromPath(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

// LoadDocumentFromPath returns a Document without requiring testing.T.
func LoadDocumentFromPath(path string) (*dom.Document, error) {
	if path == "" {
		return nil, errors.New("testsupport: document path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: open document: %w", err)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("testsupport: parse document: %w", err)
	}
	return doc, nil
}

// ParseDocument parses inline markup.
func ParseDocument(t *testing.T, markup string) *dom.Document {
	t.Helper()

	doc, err := dom.ParseString(markup)
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

// FakeLoop returns a loop driven by a fake clock.
func FakeLoop(t *testing.T) (*eventloop.Loop, *clockz.FakeClock) {
	t.Helper()

	clock := clockz.NewFakeClock()
	return eventloop.New(eventloop.WithClock(clock)), clock
}

// Advance moves the fake clock forward and runs whatever became due.
func Advance(loop *eventloop.Loop, clock *clockz.FakeClock, d time.Duration) {
	clock.Advance(d)
	loop.RunDue()
}

// Annotations lists every error annotation under root as "key: message", in
// document order.
func Annotations(root *html.Node) []string {
	var out []string
	for _, n := range dom.Find(root, ".//*["+dom.ClassPredicate("field-error")+"]") {
		out = append(out, dom.Attr(n, "data-error-for")+": "+dom.Text(n))
	}
	return out
}

// MustLoadGolden decodes a JSON golden file into out.
func MustLoadGolden(t *testing.T, path string, out any) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("load golden: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal golden: %v", err)
	}
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set and
// reports whether it did, so the caller can skip the comparison.
func WriteGolden(t *testing.T, path string, value any) bool {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}
