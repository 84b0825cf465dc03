package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard/pkg/config"
)

const applyTemplate = `<html><body>
<form id="apply">
  <div><label for="id_email">Email</label><input id="id_email" name="email" type="email" required></div>
  <div><label for="id_kind">Kind</label><select id="id_kind" name="kind" required><option value="">Pick one</option><option value="ft">Full time</option></select></div>
  <div><label for="id_pw1">Password</label><input id="id_pw1" name="password1" type="password" required></div>
  <div><label for="id_pw2">Again</label><input id="id_pw2" name="password2" type="password" required></div>
  <div><input id="id_site" name="site" type="url"></div>
  <button type="submit">Send</button>
</form>
<a href="/jobs/1/delete/">Delete</a>
</body></html>`

type scriptedPrompter struct {
	answers  map[string]string
	rejected map[string]string
	confirm  bool
}

func (s *scriptedPrompter) answer(cfg promptConfig) (string, error) {
	ans := s.answers[cfg.Message]
	if cfg.Validator != nil {
		if err := cfg.Validator(ans); err != nil {
			if s.rejected == nil {
				s.rejected = make(map[string]string)
			}
			s.rejected[cfg.Message] = err.Error()
			return "", err
		}
	}
	return ans, nil
}

func (s *scriptedPrompter) Input(_ context.Context, cfg promptConfig) (string, error) {
	return s.answer(cfg)
}

func (s *scriptedPrompter) Password(_ context.Context, cfg promptConfig) (string, error) {
	return s.answer(cfg)
}

func (s *scriptedPrompter) TextArea(_ context.Context, cfg promptConfig) (string, error) {
	return s.answer(cfg)
}

func (s *scriptedPrompter) Select(_ context.Context, cfg promptConfig) (string, error) {
	return s.answer(cfg)
}

func (s *scriptedPrompter) Confirm(context.Context, string, bool) (bool, error) {
	return s.confirm, nil
}

func writeTemplate(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestRunCheck_AllowsValidAnswers(t *testing.T) {
	path := writeTemplate(t, "apply.html", applyTemplate)
	prompts := &scriptedPrompter{
		confirm: true,
		answers: map[string]string{
			"Email":    "ada@example.com",
			"Kind":     "Full time",
			"Password": "correcthorse",
			"Again":    "correcthorse",
			"site":     "https://example.com",
		},
	}

	var out bytes.Buffer
	allowed, err := runCheck(context.Background(), &out, prompts, logr.Discard(), config.Default(), checkOptions{path: path})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !allowed {
		t.Fatalf("expected submit allowed, output:\n%s", out.String())
	}
	if got := out.String(); got != "form apply: submit allowed\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRunCheck_ValidatorRejectsBadAnswer(t *testing.T) {
	path := writeTemplate(t, "apply.html", applyTemplate)
	prompts := &scriptedPrompter{answers: map[string]string{"Email": "nope"}}

	_, err := runCheck(context.Background(), &bytes.Buffer{}, prompts, logr.Discard(), config.Default(), checkOptions{path: path})
	if err == nil {
		t.Fatalf("expected validator error")
	}
	if diff := cmp.Diff(map[string]string{"Email": "Please enter a valid email address"}, prompts.rejected); diff != "" {
		t.Fatalf("rejections mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCheck_NoValidateReportsVeto(t *testing.T) {
	path := writeTemplate(t, "apply.html", applyTemplate)
	prompts := &scriptedPrompter{
		confirm: true,
		answers: map[string]string{
			"Email":    "ada@example.com",
			"Kind":     "Pick one",
			"Password": "correcthorse",
			"Again":    "different1",
		},
	}

	var out bytes.Buffer
	allowed, err := runCheck(context.Background(), &out, prompts, logr.Discard(), config.Default(), checkOptions{path: path, skipChecks: true})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if allowed {
		t.Fatalf("expected veto")
	}
	want := strings.Join([]string{
		"form apply: submit vetoed (2 invalid)",
		"  id_kind: This field is required",
		"  id_pw2: Passwords do not match",
		"notice [danger] Please fix the errors in the form",
		"",
	}, "\n")
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCheck_MissingForm(t *testing.T) {
	path := writeTemplate(t, "apply.html", applyTemplate)
	_, err := runCheck(context.Background(), &bytes.Buffer{}, &scriptedPrompter{}, logr.Discard(), config.Default(), checkOptions{path: path, form: "nope"})
	if !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound, got %v", err)
	}
}

func TestLint_ReportsFormsAndFindings(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "jobs"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "jobs", "apply.html"), []byte(applyTemplate), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	files, err := expandPatterns([]string{filepath.Join(dir, "**", "*.html")})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected one file, got %v", files)
	}

	var out bytes.Buffer
	findings, err := lintFiles(&out, config.Default(), files)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}

	report := out.String()
	for _, want := range []string{
		"form apply (5 controls)",
		"matches=id_pw1",
		`confirm a[href=/jobs/1/delete/] "Are you sure you want to delete this? This action cannot be undone."`,
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("expected %q in report:\n%s", want, report)
		}
	}

	var messages []string
	for _, f := range findings {
		messages = append(messages, f.message)
	}
	if diff := cmp.Diff([]string{"form apply: control id_site has no label"}, messages); diff != "" {
		t.Fatalf("findings mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	var stderr bytes.Buffer
	if code := run(context.Background(), nil, &bytes.Buffer{}, &stderr); code != 2 {
		t.Fatalf("expected usage exit code, got %d", code)
	}
	if code := run(context.Background(), []string{"bogus"}, &bytes.Buffer{}, &stderr); code != 2 {
		t.Fatalf("expected usage exit code, got %d", code)
	}
	if code := run(context.Background(), []string{"lint"}, &bytes.Buffer{}, &stderr); code != 2 {
		t.Fatalf("expected missing glob exit code, got %d", code)
	}
}
