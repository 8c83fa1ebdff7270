package pipeline

import (
	"context"
	"fmt"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
	"github.com/mertkaradayi/redflag-sub001/internal/llmclient"
	"github.com/mertkaradayi/redflag-sub001/internal/prompt"
	"github.com/mertkaradayi/redflag-sub001/internal/util/jsonutil"
)

var critiqueSpec = prompt.Apply(prompt.Spec{
	Purpose:      "Review a safety report draft against the findings it was written from.",
	Background:   "Fifth pass of the risk chain: an internal consistency check, not a re-analysis of the package.",
	OutputFields: prompt.MustFieldsFromStruct(artifact.Critique{}),
	Rules:        []string{
		"Answer this checklist: does the summary's severity match the findings' severity; is every Critical finding mentioned; does the score language match the prose; is the impact description consistent with the findings; is every rug-pull indicator backed by a finding.",
		"is_consistent is false if any checklist item fails; feedback must name each failing item concretely.",
		"Do not re-score and do not question the findings themselves.",
	},
	OutputFormat: "JSON only.",
	Language:     "English",
}, prompt.StrictJSON())

type critiqueIn struct {
	Findings []artifact.TechnicalFinding `json:"findings"`
	Score    artifact.RiskScoreReport    `json:"score"`
	Draft    artifact.ReportDraft        `json:"draft"`
}

// CritiqueStage validates the draft before it is finalized.
type CritiqueStage struct {
	LLM llmclient.Client
}

func (s *CritiqueStage) Run(ctx context.Context, findings []artifact.TechnicalFinding, score artifact.RiskScoreReport, draft artifact.ReportDraft) (artifact.Critique, error) {
	p, err := prompt.Render(critiqueSpec)
	if err != nil {
		return artifact.Critique{}, err
	}
	raw, err := s.LLM.GenerateJSON(ctx, p, critiqueIn{Findings: findings, Score: score, Draft: draft})
	if err != nil {
		return artifact.Critique{}, fmt.Errorf("critique: %w", err)
	}
	var out artifact.Critique
	if err := jsonutil.UnmarshalRaw(raw, &out); err != nil {
		return artifact.Critique{}, fmt.Errorf("critique: reply does not match schema: %w", err)
	}
	return out, nil
}
