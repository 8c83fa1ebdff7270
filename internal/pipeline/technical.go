package pipeline

import (
	"context"
	"fmt"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
	"github.com/mertkaradayi/redflag-sub001/internal/knowledge"
	"github.com/mertkaradayi/redflag-sub001/internal/llmclient"
	"github.com/mertkaradayi/redflag-sub001/internal/prompt"
	"github.com/mertkaradayi/redflag-sub001/internal/util/jsonutil"
)

// NoEvidenceExcerpt is the canonical marker for a finding whose claim could
// not be substantiated by a literal disassembly excerpt.
const NoEvidenceExcerpt = "no supporting excerpt located"

type technicalOut struct {
	Findings []artifact.TechnicalFinding `json:"findings" prompt_desc:"One finding per flagged function that is actually risky; drop triage false positives."`
}

var technicalSpec = prompt.Apply(prompt.Spec{
	Purpose:      "Perform a deep technical analysis of the flagged functions against the named risk patterns.",
	Background:   "Second pass of the risk chain, and the only one that sees the disassembled bytecode. Its findings are the sole input to scoring, so every field must be precise.",
	OutputFields: prompt.MustFieldsFromStruct(technicalOut{}),
	Constraints:  []string{
		"matched_pattern_id must be one of the ids in the risk_patterns table; restate that pattern's severity verbatim in severity.",
		"evidence_code_snippet must be a literal excerpt copied from the provided disassembly; if none substantiates the claim, set it to exactly \"" + NoEvidenceExcerpt + "\" and say so in technical_reason. Never fabricate an excerpt.",
		"technical_reason must reference concrete parameter or struct evidence (e.g. which capability parameter is missing or misused).",
	},
	Rules:        []string{
		"contextual_notes carries scoring modifiers: mention timelock / multi-sig / internal-only mitigations, aggravators such as generic-type drains, arbitrary-recipient transfers or instant ungoverned upgrades, and whether the logic is simple/direct or complex/conditional.",
		"Account for the listed dependency risks when judging severity.",
		"A flagged function with no real risk produces no finding.",
	},
	OutputFormat: "JSON only.",
	Language:     "English",
}, prompt.StrictJSON(), prompt.NoInvent(), prompt.Cautious())

// TechnicalIn is the full evidence context for deep analysis.
type TechnicalIn struct {
	Functions       []artifact.ExtractedFunction         `json:"functions"`
	Structs         map[string]artifact.StructDefinition `json:"structs,omitempty"`
	DependencyRisks []artifact.DependencyRisk            `json:"dependency_risks,omitempty"`
	Disassembly     map[string]string                    `json:"disassembly"`
	Flagged         []string                             `json:"flagged_functions"`
	RiskPatterns    string                               `json:"risk_patterns"`
}

// Technical turns flagged functions into evidence-backed findings.
type Technical struct {
	LLM llmclient.Client
	KB  *knowledge.Base
}

func (s *Technical) Run(ctx context.Context, in TechnicalIn) ([]artifact.TechnicalFinding, error) {
	in.RiskPatterns = s.KB.PromptTable()
	p, err := prompt.Render(technicalSpec)
	if err != nil {
		return nil, err
	}
	raw, err := s.LLM.GenerateJSON(ctx, p, in)
	if err != nil {
		return nil, fmt.Errorf("technical analysis: %w", err)
	}
	var out technicalOut
	if err := jsonutil.UnmarshalRaw(raw, &out); err != nil {
		return nil, fmt.Errorf("technical analysis: reply does not match schema: %w", err)
	}
	for i := range out.Findings {
		if out.Findings[i].EvidenceCodeSnippet == "" {
			out.Findings[i].EvidenceCodeSnippet = NoEvidenceExcerpt
		}
	}
	return out.Findings, nil
}
