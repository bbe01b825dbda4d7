// Package secrets redacts credential-looking strings from extracted
// pull-request content before it is embedded, sent to a model API, or
// stored in the vector index.
package secrets

import (
	"fmt"
	"regexp"
	"sort"
)

// Rule defines a secret detection rule.
type Rule struct {
	// ID is the unique identifier for this rule
	ID string `koanf:"id"`

	// Description explains what this rule detects
	Description string `koanf:"description"`

	// Pattern is the regex pattern to match secrets
	Pattern string `koanf:"pattern"`
}

// Config configures the scrubber.
type Config struct {
	// Enabled controls whether scrubbing is active (default: true)
	Enabled bool `koanf:"enabled"`

	// Rules defines the detection rules
	Rules []Rule `koanf:"rules"`

	// RedactionString is the replacement for detected secrets (default: "[REDACTED]")
	RedactionString string `koanf:"redaction_string"`

	compiled []compiledRule
}

type compiledRule struct {
	Rule
	pattern *regexp.Regexp
}

// Result contains the scrubbing result.
type Result struct {
	// Scrubbed is the content with secrets redacted
	Scrubbed string

	// TotalFindings is the count of secrets found
	TotalFindings int

	// ByRule maps rule IDs to finding counts
	ByRule map[string]int
}

// HasFindings returns true if any secrets were found.
func (r *Result) HasFindings() bool {
	return r.TotalFindings > 0
}

// DefaultConfig returns a configuration with standard secret detection rules.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		RedactionString: "[REDACTED]",
		Rules:           DefaultRules(),
	}
}

// DefaultRules returns the default set of secret detection rules.
// Based on common credential formats that show up in code diffs.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "aws-access-key-id",
			Description: "AWS Access Key ID",
			Pattern:     `(A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|ASIA)[A-Z0-9]{16}`,
		},
		{
			ID:          "github-token",
			Description: "GitHub token (classic, OAuth, app, fine-grained)",
			Pattern:     `(?:ghp|gho|ghu|ghs)_[A-Za-z0-9]{36}|github_pat_[A-Za-z0-9_]{22,}`,
		},
		{
			ID:          "openai-api-key",
			Description: "OpenAI API key",
			Pattern:     `sk-[A-Za-z0-9_-]{20,}`,
		},
		{
			ID:          "generic-api-key",
			Description: "Generic API key assignment",
			Pattern:     `(?i)(?:api[_-]?key|apikey|auth[_-]?token)\s*[:=]\s*['"]?[A-Za-z0-9_\-]{16,64}['"]?`,
		},
		{
			ID:          "generic-secret",
			Description: "Generic secret assignment",
			Pattern:     `(?i)(?:secret|password|passwd)\s*[:=]\s*['"][^\s'"]{8,}['"]`,
		},
		{
			ID:          "private-key",
			Description: "Private key block header",
			Pattern:     `-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY(?:[- ]BLOCK)?-----`,
		},
		{
			ID:          "bearer-token",
			Description: "Bearer authorization header",
			Pattern:     `(?i)bearer\s+[A-Za-z0-9._\-]{16,}`,
		},
	}
}

// Scrubber detects and redacts secrets from content.
type Scrubber struct {
	config *Config
}

// New creates a new Scrubber with the given configuration.
// If config is nil, DefaultConfig() is used.
func New(cfg *Config) (*Scrubber, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.RedactionString == "" {
		cfg.RedactionString = "[REDACTED]"
	}

	cfg.compiled = make([]compiledRule, 0, len(cfg.Rules))
	for i, rule := range cfg.Rules {
		if rule.ID == "" {
			return nil, fmt.Errorf("rule %d: ID is required", i)
		}
		pattern, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: invalid pattern: %w", rule.ID, err)
		}
		cfg.compiled = append(cfg.compiled, compiledRule{Rule: rule, pattern: pattern})
	}

	return &Scrubber{config: cfg}, nil
}

// redaction tracks a position to redact.
type redaction struct {
	start, end int
}

// Scrub redacts secrets from the content.
func (s *Scrubber) Scrub(content string) *Result {
	result := &Result{
		Scrubbed: content,
		ByRule:   make(map[string]int),
	}

	if !s.config.Enabled {
		return result
	}

	redactions := make([]redaction, 0)
	for _, rule := range s.config.compiled {
		matches := rule.pattern.FindAllStringIndex(content, -1)
		for _, match := range matches {
			redactions = append(redactions, redaction{start: match[0], end: match[1]})
			result.ByRule[rule.ID]++
			result.TotalFindings++
		}
	}

	if len(redactions) == 0 {
		return result
	}

	// Apply redactions back to front so earlier indexes stay valid;
	// overlapping matches collapse into the widest span.
	sort.Slice(redactions, func(i, j int) bool {
		if redactions[i].start != redactions[j].start {
			return redactions[i].start < redactions[j].start
		}
		return redactions[i].end > redactions[j].end
	})

	merged := redactions[:1]
	for _, r := range redactions[1:] {
		last := &merged[len(merged)-1]
		if r.start <= last.end {
			if r.end > last.end {
				last.end = r.end
			}
			continue
		}
		merged = append(merged, r)
	}

	scrubbed := content
	for i := len(merged) - 1; i >= 0; i-- {
		r := merged[i]
		scrubbed = scrubbed[:r.start] + s.config.RedactionString + scrubbed[r.end:]
	}
	result.Scrubbed = scrubbed

	return result
}
