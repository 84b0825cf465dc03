package feedback

import (
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Severity grades notices and counters.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// ParseSeverity accepts the names host scripts pass to the notification
// function ("error" is an alias for danger). Unknown values become info.
func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success":
		return SeveritySuccess
	case "warning", "warn":
		return SeverityWarning
	case "danger", "error":
		return SeverityDanger
	default:
		return SeverityInfo
	}
}

// messageClass is the suffix server-rendered flash markup uses.
func (s Severity) messageClass() string {
	if s == SeverityDanger {
		return "error"
	}
	return string(s)
}

// Palette tokens.
const (
	TokenInfo    = "info"
	TokenSuccess = "success"
	TokenWarning = "warning"
	TokenDanger  = "danger"
	TokenMuted   = "muted"
)

// tokenPrefix namespaces palette entries inside a theme manifest.
const tokenPrefix = "severity."

// Palette maps palette tokens to CSS colours.
type Palette map[string]string

// DefaultPalette returns the stock colours.
func DefaultPalette() Palette {
	return Palette{
		TokenInfo:    "#2563eb",
		TokenSuccess: "#10b981",
		TokenWarning: "#f59e0b",
		TokenDanger:  "#ef4444",
		TokenMuted:   "#6b7280",
	}
}

// Color returns the colour for token, falling back to the default palette.
func (p Palette) Color(token string) string {
	if c, ok := p[token]; ok && c != "" {
		return c
	}
	return DefaultPalette()[token]
}

// PaletteFromManifest reads `severity.<token>` entries from a go-theme
// manifest, letting the named variant override the base tokens.
func PaletteFromManifest(manifest *theme.Manifest, variant string) Palette {
	palette := DefaultPalette()
	if manifest == nil {
		return palette
	}
	apply := func(tokens map[string]string) {
		for key, value := range tokens {
			name, ok := strings.CutPrefix(key, tokenPrefix)
			if !ok || strings.TrimSpace(value) == "" {
				continue
			}
			palette[name] = strings.TrimSpace(value)
		}
	}
	apply(manifest.Tokens)
	if v, ok := manifest.Variants[strings.TrimSpace(variant)]; ok {
		apply(v.Tokens)
	}
	return palette
}

func noticeToken(s Severity) string {
	switch s {
	case SeveritySuccess:
		return TokenSuccess
	case SeverityWarning:
		return TokenWarning
	case SeverityDanger:
		return TokenDanger
	default:
		return TokenInfo
	}
}

func counterToken(s Severity) string {
	if s == SeverityInfo {
		return TokenMuted
	}
	return noticeToken(s)
}
