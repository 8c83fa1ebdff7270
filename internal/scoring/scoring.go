// Package scoring implements the deterministic risk-score algorithm. The
// scoring stage phrases its justification with the LLM, but the number
// itself always comes from Compute and is never regenerated downstream.
package scoring

import (
	"fmt"
	"strings"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
	"github.com/mertkaradayi/redflag-sub001/internal/knowledge"
)

// Compute only ever emits High or Medium: the rubric's certainty cases map
// to High and everything ambiguous to Medium, with no third bucket.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
)

// Fallback base scores for findings whose pattern id is not in the table.
var severityDefaults = map[knowledge.Severity]int{
	knowledge.SeverityCritical: 85,
	knowledge.SeverityHigh:     60,
	knowledge.SeverityMedium:   40,
	knowledge.SeverityLow:      15,
}

// FindingScore is the audited contribution of one finding.
type FindingScore struct {
	FunctionName string   `json:"function_name"`
	PatternID    string   `json:"pattern_id"`
	Base         int      `json:"base"`
	Adjusted     int      `json:"adjusted"`
	Applied      []string `json:"applied,omitempty"`
}

// Breakdown is the full deterministic computation, kept so the scoring
// stage can hand the arithmetic to the LLM for restating.
type Breakdown struct {
	PerFinding  []FindingScore `json:"per_finding"`
	Subtotal    int            `json:"subtotal"`
	Combination []string       `json:"combination,omitempty"`
	Total       int            `json:"total"`
	Confidence  string         `json:"confidence"`
}

// LevelForScore maps a score onto the four risk levels. Thresholds are
// monotonic: >=70 critical, >=50 high, >=30 moderate, else low.
func LevelForScore(score int) string {
	switch {
	case score >= 70:
		return "critical"
	case score >= 50:
		return "high"
	case score >= 30:
		return "moderate"
	default:
		return "low"
	}
}

// Compute runs the scoring algorithm over the findings. Same findings in,
// same breakdown out, always.
func Compute(findings []artifact.TechnicalFinding, kb *knowledge.Base) Breakdown {
	var b Breakdown
	mods := kb.Modifiers

	var highs, crits int
	var hasPause, otherHighCrit bool
	var pauses, severePauses int
	allCleanSimple := true
	allLowOrMitigated := true

	for _, f := range findings {
		sev := knowledge.NormalizeSeverity(f.Severity)
		fs := FindingScore{FunctionName: f.FunctionName, PatternID: f.MatchedPatternID}
		if p, ok := kb.Pattern(f.MatchedPatternID); ok {
			fs.Base = p.BaseScore
		} else {
			fs.Base = severityDefaults[sev]
			fs.Applied = append(fs.Applied, fmt.Sprintf("unknown pattern, %s default base", sev))
		}
		adjusted := fs.Base

		severe := sev == knowledge.SeverityCritical || sev == knowledge.SeverityHigh
		mitigated := false
		for _, note := range f.ContextualNotes {
			n := strings.ToLower(note)
			switch {
			case matchAny(n, mods.Mitigations):
				mitigated = true
				allCleanSimple = false
				if severe {
					adjusted -= mods.MitigationPenalty
					fs.Applied = append(fs.Applied, fmt.Sprintf("mitigation -%d (%s)", mods.MitigationPenalty, note))
				}
			case matchAny(n, mods.Aggravators):
				adjusted += mods.AggravatorBonus
				fs.Applied = append(fs.Applied, fmt.Sprintf("aggravator +%d (%s)", mods.AggravatorBonus, note))
			case matchAny(n, mods.SimpleLogic):
				if severe {
					adjusted += mods.SimpleLogicBonus
					fs.Applied = append(fs.Applied, fmt.Sprintf("simple logic +%d", mods.SimpleLogicBonus))
				}
			case matchAny(n, mods.ComplexLogic):
				adjusted -= mods.ComplexLogicPenalty
				allCleanSimple = false
				fs.Applied = append(fs.Applied, fmt.Sprintf("complex logic -%d", mods.ComplexLogicPenalty))
			}
		}
		fs.Adjusted = clamp(adjusted)
		b.PerFinding = append(b.PerFinding, fs)
		b.Subtotal += fs.Adjusted

		switch sev {
		case knowledge.SeverityHigh:
			highs++
		case knowledge.SeverityCritical:
			crits++
		}
		if sev != knowledge.SeverityLow && !mitigated {
			allLowOrMitigated = false
		}
		pausing := strings.Contains(strings.ToLower(f.MatchedPatternID), "pause")
		if pausing {
			hasPause = true
			pauses++
			if severe {
				severePauses++
			}
		} else if severe {
			otherHighCrit = true
		}
	}

	total := b.Subtotal
	if total >= 90 {
		total += 5
		b.Combination = append(b.Combination, "critical mass reinforcement +5")
	}
	if highs >= 3 && crits == 0 {
		total += 10
		b.Combination = append(b.Combination, "three or more High findings without a Critical +10")
	}
	// A second pause finding counts as the co-occurring High/Critical
	// partner when at least one of the pair is severe.
	if hasPause && (otherHighCrit || (pauses >= 2 && severePauses >= 1)) {
		total += 5
		b.Combination = append(b.Combination, "pause control co-occurs with another High/Critical finding +5")
	}
	b.Total = clamp(total)

	switch {
	case len(findings) == 0:
		b.Confidence = ConfidenceHigh
	case b.Total >= 75 && allCleanSimple:
		b.Confidence = ConfidenceHigh
	case b.Total < 25 && allLowOrMitigated:
		b.Confidence = ConfidenceHigh
	default:
		b.Confidence = ConfidenceMedium
	}
	return b
}

// Justification renders the breakdown as plain text; used verbatim when the
// LLM restatement is unavailable.
func (b Breakdown) Justification() string {
	var sb strings.Builder
	for _, fs := range b.PerFinding {
		fmt.Fprintf(&sb, "%s (%s): base %d, adjusted %d", fs.FunctionName, fs.PatternID, fs.Base, fs.Adjusted)
		if len(fs.Applied) > 0 {
			fmt.Fprintf(&sb, " [%s]", strings.Join(fs.Applied, "; "))
		}
		sb.WriteString(". ")
	}
	fmt.Fprintf(&sb, "Subtotal %d.", b.Subtotal)
	for _, c := range b.Combination {
		fmt.Fprintf(&sb, " %s.", strings.ToUpper(c[:1])+c[1:])
	}
	fmt.Fprintf(&sb, " Final score %d.", b.Total)
	return sb.String()
}

func matchAny(note string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(note, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
