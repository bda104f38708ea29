// Package sanitize redacts credential-shaped text from tool output before
// it is persisted or replayed into the model's context.
package sanitize

import (
	"regexp"
)

// Placeholder is the fixed string substituted for every redacted span.
const Placeholder = "[REDACTED]"

// Detector matches one class of secret-shaped text.
type Detector struct {
	Name    string
	Regex   *regexp.Regexp
	Replace string
}

// detectors run in this exact order. The generic base64 scan is last so it
// cannot consume the structured patterns above it or re-match placeholder
// text already substituted in.
func detectors() []Detector {
	return []Detector{
		{
			Name:    "private_key_block",
			Regex:   regexp.MustCompile(`(?s)-----BEGIN [A-Z0-9 ]*PRIVATE KEY-----.*?-----END [A-Z0-9 ]*PRIVATE KEY-----`),
			Replace: Placeholder,
		},
		{
			Name:    "shadow_hash",
			Regex:   regexp.MustCompile(`\$(?:1|2[abxy]?|5|6|y)\$[A-Za-z0-9./$=]{8,}`),
			Replace: Placeholder,
		},
		{
			Name:    "cloud_api_key",
			Regex:   regexp.MustCompile(`\b(?:(?:AKIA|ASIA)[0-9A-Z]{16}|AIza[0-9A-Za-z_\-]{35}|gh[pousr]_[A-Za-z0-9]{36,}|github_pat_[A-Za-z0-9_]{22,}|xox[baprs]-[A-Za-z0-9\-]{10,}|sk-[A-Za-z0-9_\-]{20,})\b`),
			Replace: Placeholder,
		},
		{
			Name:    "bearer_token",
			Regex:   regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/\-]{8,}=*`),
			Replace: Placeholder,
		},
		{
			// Value may not start with '[' so an already-substituted
			// placeholder is not redacted a second time.
			Name:    "password_assignment",
			Regex:   regexp.MustCompile(`(?i)\b(password|passwd)\s*=\s*[^\s\[]\S*`),
			Replace: "$1=" + Placeholder,
		},
		{
			Name:    "base64_run",
			Regex:   regexp.MustCompile(`[A-Za-z0-9+/]{40,}={0,2}`),
			Replace: Placeholder,
		},
	}
}

// Sanitizer scans text for credential-shaped substrings.
type Sanitizer struct {
	detectors []Detector
}

// New creates a sanitizer with the default detector chain.
func New() *Sanitizer {
	return &Sanitizer{detectors: detectors()}
}

// Redact replaces every secret-shaped span with the placeholder and returns
// the cleaned text plus the number of redactions performed.
func (s *Sanitizer) Redact(text string) (string, int) {
	total := 0
	for _, d := range s.detectors {
		matches := d.Regex.FindAllStringIndex(text, -1)
		if len(matches) == 0 {
			continue
		}
		total += len(matches)
		text = d.Regex.ReplaceAllString(text, d.Replace)
	}
	return text, total
}

// Default is the shared sanitizer used by the dispatcher.
var Default = New()

// Redact applies the default sanitizer.
func Redact(text string) (string, int) {
	return Default.Redact(text)
}
