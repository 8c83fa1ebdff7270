// Package knowledge holds the static risk-pattern table shared by the
// technical analysis prompt and the deterministic scorer.
package knowledge

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var patternsYAML []byte

type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// NormalizeSeverity maps free-form severity text onto the canonical set,
// defaulting to Low for anything unrecognized.
func NormalizeSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium", "moderate":
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Pattern is one named risk pattern.
type Pattern struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Severity  Severity `yaml:"severity"`
	BaseScore int      `yaml:"base_score"`
	Summary   string   `yaml:"summary"`
}

// Modifiers are the contextual-note adjustment rules applied per finding.
type Modifiers struct {
	MitigationPenalty   int      `yaml:"mitigation_penalty"`
	AggravatorBonus     int      `yaml:"aggravator_bonus"`
	SimpleLogicBonus    int      `yaml:"simple_logic_bonus"`
	ComplexLogicPenalty int      `yaml:"complex_logic_penalty"`
	Mitigations         []string `yaml:"mitigations"`
	Aggravators         []string `yaml:"aggravators"`
	SimpleLogic         []string `yaml:"simple_logic"`
	ComplexLogic        []string `yaml:"complex_logic"`
}

// Base is the loaded knowledge base.
type Base struct {
	Patterns  []Pattern `yaml:"patterns"`
	Modifiers Modifiers `yaml:"modifiers"`

	byID map[string]Pattern
}

// Load parses the embedded pattern table.
func Load() (*Base, error) {
	var b Base
	if err := yaml.Unmarshal(patternsYAML, &b); err != nil {
		return nil, fmt.Errorf("knowledge: parse patterns: %w", err)
	}
	if len(b.Patterns) == 0 {
		return nil, fmt.Errorf("knowledge: pattern table is empty")
	}
	b.byID = make(map[string]Pattern, len(b.Patterns))
	for _, p := range b.Patterns {
		b.byID[strings.ToLower(p.ID)] = p
	}
	return &b, nil
}

// MustLoad panics on a broken embedded table; for wiring and tests.
func MustLoad() *Base {
	b, err := Load()
	if err != nil {
		panic(err)
	}
	return b
}

// Pattern looks up a pattern by id, case-insensitively.
func (b *Base) Pattern(id string) (Pattern, bool) {
	p, ok := b.byID[strings.ToLower(strings.TrimSpace(id))]
	return p, ok
}

// PromptTable renders the pattern table as prompt text for the technical
// analysis stage.
func (b *Base) PromptTable() string {
	var sb strings.Builder
	for _, p := range b.Patterns {
		fmt.Fprintf(&sb, "- %s (%s, base score %d): %s\n", p.ID, p.Severity, p.BaseScore, strings.TrimSpace(p.Summary))
	}
	return strings.TrimRight(sb.String(), "\n")
}
