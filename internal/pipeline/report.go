package pipeline

import (
	"context"
	"fmt"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
	"github.com/mertkaradayi/redflag-sub001/internal/llmclient"
	"github.com/mertkaradayi/redflag-sub001/internal/prompt"
	"github.com/mertkaradayi/redflag-sub001/internal/util/jsonutil"
)

var reportSpec = prompt.Apply(prompt.Spec{
	Purpose:      "Translate technical findings into a user-facing safety report for non-developers.",
	Background:   "Fourth pass of the risk chain. The audience holds tokens, not engineering degrees; the numeric score is fixed upstream and is attached separately.",
	OutputFields: prompt.MustFieldsFromStruct(artifact.ReportDraft{}),
	Constraints:  []string{
		"Do not alter, restate as a different number, or contradict the provided risk score.",
		"Do not invent facts; every claim must trace back to a finding or a listed dependency risk.",
		"Each risky_functions[].reason must fold in the finding's evidence excerpt when one exists.",
		"If dependency risks are present, acknowledge them in summary and impact_on_user.",
		"Every rug_pull_indicators entry must be backed by at least one finding.",
	},
	Rules:        []string{
		"Write for a cautious retail user: say what could happen to their funds and how likely the stated severity makes it.",
		"why_risky_one_liner is a single sentence a wallet could show next to a warning icon.",
	},
	OutputFormat: "JSON only.",
	Language:     "English",
}, prompt.StrictJSON(), prompt.NoInvent())

var correctionSpec = prompt.Apply(prompt.Spec{
	Purpose:      "Revise a safety report draft to resolve the inconsistencies the reviewer identified.",
	Background:   "Corrective pass after critique. The findings and the numeric score are unchanged; only the prose was judged inconsistent.",
	OutputFields: prompt.MustFieldsFromStruct(artifact.ReportDraft{}),
	Constraints:  []string{
		"Address every point in the critique feedback.",
		"Keep everything that was already consistent; this is a revision, not a rewrite.",
		"Do not alter the risk score or introduce facts absent from the findings.",
	},
	OutputFormat: "JSON only.",
	Language:     "English",
}, prompt.StrictJSON(), prompt.NoInvent())

// ReportIn is the input to the report-writing stage.
type ReportIn struct {
	Findings        []artifact.TechnicalFinding `json:"findings"`
	Score           artifact.RiskScoreReport    `json:"score"`
	DependencyRisks []artifact.DependencyRisk   `json:"dependency_risks,omitempty"`
}

type correctionIn struct {
	ReportIn
	PriorDraft artifact.ReportDraft `json:"prior_draft"`
	Feedback   string               `json:"critique_feedback"`
}

// Report writes the user-facing draft and, when critique rejects it, the
// single corrective revision.
type Report struct {
	LLM llmclient.Client
}

func (s *Report) Run(ctx context.Context, in ReportIn) (artifact.ReportDraft, error) {
	return s.generate(ctx, reportSpec, in, "report writing")
}

// RunCorrection produces the revised draft. It runs at most once per
// analysis; the corrected draft is not re-critiqued.
func (s *Report) RunCorrection(ctx context.Context, in ReportIn, prior artifact.ReportDraft, feedback string) (artifact.ReportDraft, error) {
	return s.generate(ctx, correctionSpec, correctionIn{ReportIn: in, PriorDraft: prior, Feedback: feedback}, "report correction")
}

func (s *Report) generate(ctx context.Context, spec prompt.Spec, in any, stage string) (artifact.ReportDraft, error) {
	p, err := prompt.Render(spec)
	if err != nil {
		return artifact.ReportDraft{}, err
	}
	raw, err := s.LLM.GenerateJSON(ctx, p, in)
	if err != nil {
		return artifact.ReportDraft{}, fmt.Errorf("%s: %w", stage, err)
	}
	var out artifact.ReportDraft
	if err := jsonutil.UnmarshalRaw(raw, &out); err != nil {
		return artifact.ReportDraft{}, fmt.Errorf("%s: reply does not match schema: %w", stage, err)
	}
	return out, nil
}
