package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/config"
	"github.com/goliatone/go-formguard/pkg/dom"
	"github.com/goliatone/go-formguard/pkg/page"
	"github.com/goliatone/go-formguard/pkg/validation"
)

type finding struct {
	file    string
	message string
}

// expandPatterns resolves every glob to a sorted, de-duplicated file list.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, match := range matches {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			files = append(files, match)
		}
	}
	sort.Strings(files)
	return files, nil
}

// lintFiles writes a binding report for each file and returns the findings
// that should fail the run.
func lintFiles(w io.Writer, cfg config.Config, files []string) ([]finding, error) {
	var findings []finding
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		doc, err := dom.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		findings = append(findings, lintDocument(w, cfg, path, doc)...)
	}
	return findings, nil
}

func lintDocument(w io.Writer, cfg config.Config, path string, doc *dom.Document) []finding {
	var findings []finding
	report := func(format string, args ...any) {
		findings = append(findings, finding{file: path, message: fmt.Sprintf(format, args...)})
	}

	fmt.Fprintln(w, path)
	for i, node := range doc.Find("//form") {
		form := validation.BindForm(node, cfg.Validation.ConfirmPairs)
		name := form.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		fmt.Fprintf(w, "  form %s (%d controls)\n", name, len(form.Controls()))
		for _, c := range form.Controls() {
			fmt.Fprintf(w, "    %-20s %s\n", c.Key(), describeControl(c))
			if c.Label == c.Name() {
				report("form %s: control %s has no label", name, c.Key())
			}
		}
		for confirm, primary := range cfg.Validation.ConfirmPairs {
			c := form.Control(confirm)
			if c != nil && form.Control(primary) == nil {
				report("form %s: %s confirms %s, which is not in the form", name, c.Key(), primary)
			}
		}
	}

	for _, n := range doc.Find("//a | //button") {
		if prompt, ok := page.ConfirmPrompt(n); ok {
			fmt.Fprintf(w, "  confirm %s %q\n", describeAction(n), prompt)
		}
	}

	ids := make(map[string]int)
	for _, n := range doc.Find("//*[@id]") {
		ids[dom.Attr(n, "id")]++
	}
	dupes := make([]string, 0)
	for id, count := range ids {
		if count > 1 {
			dupes = append(dupes, id)
		}
	}
	sort.Strings(dupes)
	for _, id := range dupes {
		report("duplicate id %q", id)
	}
	return findings
}

func describeControl(c *validation.Control) string {
	kind := string(c.Kind)
	if kind == "" {
		kind = "-"
	}
	parts := []string{fmt.Sprintf("%-9s", kind)}
	if c.Required {
		parts = append(parts, "required")
	}
	if c.MaxLength > 0 {
		parts = append(parts, fmt.Sprintf("maxlength=%d", c.MaxLength))
		if dom.IsElement(c.Node, "textarea") {
			parts = append(parts, "counter")
		}
	}
	if c.Matches != "" {
		parts = append(parts, "matches="+c.Matches)
	}
	return strings.Join(parts, " ")
}

func describeAction(n *html.Node) string {
	if href := dom.Attr(n, "href"); href != "" {
		return fmt.Sprintf("%s[href=%s]", n.Data, href)
	}
	text := strings.TrimSpace(dom.Text(n))
	return fmt.Sprintf("%s(%s)", n.Data, text)
}

// watch re-runs lint whenever a watched file is written until ctx ends.
func watch(ctx context.Context, logger logr.Logger, files []string, run func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dirs := make(map[string]struct{})
	wanted := make(map[string]struct{}, len(files))
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		wanted[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	logger.Info("watching templates", "files", len(files), "dirs", len(dirs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := wanted[abs]; !ok {
				continue
			}
			logger.V(1).Info("template changed", "file", event.Name)
			if err := run(); err != nil {
				logger.Error(err, "lint failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error(err, "watcher error")
		}
	}
}
