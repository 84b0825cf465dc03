// Package config loads formguard settings from YAML. Every field is optional;
// anything left out keeps the stock value from Default.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formguard/pkg/feedback"
	"github.com/goliatone/go-formguard/pkg/validation"
)

// ErrEmpty is returned when a config document has no content.
var ErrEmpty = errors.New("config: empty document")

// Config is the full set of tunables.
type Config struct {
	Notices    NoticeConfig     `json:"notices" yaml:"notices"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Page       PageConfig       `json:"page" yaml:"page"`
	Theme      ThemeConfig      `json:"theme" yaml:"theme"`
}

// NoticeConfig controls transient notices and counters.
type NoticeConfig struct {
	TTL          time.Duration `json:"ttl" yaml:"ttl"`
	NotifyTTL    time.Duration `json:"notifyTTL" yaml:"notifyTTL"`
	ExitDuration time.Duration `json:"exitDuration" yaml:"exitDuration"`
	Region       []string      `json:"region" yaml:"region"`
	WarningRatio float64       `json:"warningRatio" yaml:"warningRatio"`
}

// ValidationConfig adjusts the rule table and messages.
type ValidationConfig struct {
	PasswordMinLength int               `json:"passwordMinLength" yaml:"passwordMinLength"`
	ConfirmPairs      map[string]string `json:"confirmPairs" yaml:"confirmPairs"`
	Messages          map[string]string `json:"messages" yaml:"messages"`
}

// PageConfig covers the page-level enhancements.
type PageConfig struct {
	BackToTopThreshold int           `json:"backToTopThreshold" yaml:"backToTopThreshold"`
	SearchDebounce     time.Duration `json:"searchDebounce" yaml:"searchDebounce"`
	FilterDebounce     time.Duration `json:"filterDebounce" yaml:"filterDebounce"`
	FilterAutoSubmit   bool          `json:"filterAutoSubmit" yaml:"filterAutoSubmit"`
	LoadingTimeout     time.Duration `json:"loadingTimeout" yaml:"loadingTimeout"`
	VetoMessage        string        `json:"vetoMessage" yaml:"vetoMessage"`
}

// ThemeConfig carries palette tokens in go-theme manifest form.
type ThemeConfig struct {
	Tokens   map[string]string            `json:"tokens" yaml:"tokens"`
	Variants map[string]map[string]string `json:"variants" yaml:"variants"`
	Variant  string                       `json:"variant" yaml:"variant"`
}

// Default returns the stock configuration.
func Default() Config {
	notices := feedback.DefaultConfig()
	return Config{
		Notices: NoticeConfig{
			TTL:          notices.NoticeTTL,
			NotifyTTL:    notices.NotifyTTL,
			ExitDuration: notices.ExitDuration,
			Region:       notices.RegionClasses,
			WarningRatio: notices.WarningRatio,
		},
		Validation: ValidationConfig{
			PasswordMinLength: validation.DefaultPasswordMinLength,
			ConfirmPairs:      validation.DefaultConfirmPairs(),
		},
		Page: PageConfig{
			BackToTopThreshold: 300,
			SearchDebounce:     300 * time.Millisecond,
			FilterDebounce:     500 * time.Millisecond,
			FilterAutoSubmit:   false,
			LoadingTimeout:     10 * time.Second,
			VetoMessage:        "Please fix the errors in the form",
		},
	}
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Config{}, ErrEmpty
	}
	cfg := Default()
	// Confirm pairs from the document replace the defaults rather than merge.
	cfg.Validation.ConfirmPairs = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if cfg.Validation.ConfirmPairs == nil {
		cfg.Validation.ConfirmPairs = validation.DefaultConfirmPairs()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no component can honour.
func (c Config) Validate() error {
	var errs []error
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"notices.ttl", c.Notices.TTL},
		{"notices.notifyTTL", c.Notices.NotifyTTL},
		{"notices.exitDuration", c.Notices.ExitDuration},
		{"page.searchDebounce", c.Page.SearchDebounce},
		{"page.filterDebounce", c.Page.FilterDebounce},
		{"page.loadingTimeout", c.Page.LoadingTimeout},
	}
	for _, d := range durations {
		if d.value < 0 {
			errs = append(errs, fmt.Errorf("config: %s must not be negative (got %s)", d.name, d.value))
		}
	}
	if c.Notices.WarningRatio < 0 || c.Notices.WarningRatio > 1 {
		errs = append(errs, fmt.Errorf("config: notices.warningRatio must be within [0, 1] (got %g)", c.Notices.WarningRatio))
	}
	if c.Validation.PasswordMinLength < 0 {
		errs = append(errs, fmt.Errorf("config: validation.passwordMinLength must not be negative (got %d)", c.Validation.PasswordMinLength))
	}
	if c.Page.BackToTopThreshold < 0 {
		errs = append(errs, fmt.Errorf("config: page.backToTopThreshold must not be negative (got %d)", c.Page.BackToTopThreshold))
	}
	for confirm, primary := range c.Validation.ConfirmPairs {
		if strings.TrimSpace(confirm) == "" || strings.TrimSpace(primary) == "" {
			errs = append(errs, fmt.Errorf("config: validation.confirmPairs has an empty key or target"))
			break
		}
	}
	return errors.Join(errs...)
}

// Feedback converts the notice settings for the scheduler.
func (c Config) Feedback() feedback.Config {
	return feedback.Config{
		NoticeTTL:     c.Notices.TTL,
		NotifyTTL:     c.Notices.NotifyTTL,
		ExitDuration:  c.Notices.ExitDuration,
		RegionClasses: append([]string(nil), c.Notices.Region...),
		WarningRatio:  c.Notices.WarningRatio,
	}
}

// EngineOptions converts the validation settings for the engine.
func (c Config) EngineOptions() []validation.Option {
	var opts []validation.Option
	if c.Validation.PasswordMinLength > 0 {
		opts = append(opts, validation.WithRuleParam(validation.KindPassword, "min", c.Validation.PasswordMinLength))
	}
	if len(c.Validation.Messages) > 0 {
		opts = append(opts, validation.WithMessages(c.Validation.Messages))
	}
	return opts
}

// Manifest builds a go-theme manifest from the theme tokens, or nil when none
// are configured.
func (c Config) Manifest() *theme.Manifest {
	if len(c.Theme.Tokens) == 0 && len(c.Theme.Variants) == 0 {
		return nil
	}
	manifest := &theme.Manifest{
		Tokens:   c.Theme.Tokens,
		Variants: make(map[string]theme.Variant, len(c.Theme.Variants)),
	}
	for name, tokens := range c.Theme.Variants {
		manifest.Variants[name] = theme.Variant{Tokens: tokens}
	}
	return manifest
}

// Palette resolves severity colours from the theme section.
func (c Config) Palette() feedback.Palette {
	return feedback.PaletteFromManifest(c.Manifest(), c.Theme.Variant)
}
