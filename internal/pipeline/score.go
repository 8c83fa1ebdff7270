package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
	"github.com/mertkaradayi/redflag-sub001/internal/knowledge"
	"github.com/mertkaradayi/redflag-sub001/internal/llmclient"
	"github.com/mertkaradayi/redflag-sub001/internal/prompt"
	"github.com/mertkaradayi/redflag-sub001/internal/scoring"
	"github.com/mertkaradayi/redflag-sub001/internal/util/jsonutil"
)

type scoreOut struct {
	Justification string `json:"justification" prompt_desc:"Plain-language restatement of the provided arithmetic: which findings contributed what and why the total is what it is."`
}

var scoreSpec = prompt.Apply(prompt.Spec{
	Purpose:      "Restate a deterministic risk-score computation as a readable justification.",
	Background:   "Third pass of the risk chain. The score itself is already computed by a fixed algorithm and is included in the input as a full breakdown; it is authoritative and must not be recomputed or second-guessed.",
	OutputFields: prompt.MustFieldsFromStruct(scoreOut{}),
	Constraints:  []string{
		"Do not propose a different number; every figure you mention must come from the breakdown.",
		"Mention each finding's base score, the modifiers applied to it, and any combination effects.",
	},
	OutputFormat: "JSON only.",
	Language:     "English",
}, prompt.StrictJSON(), prompt.NoInvent())

type scoreIn struct {
	Findings  []artifact.TechnicalFinding `json:"findings"`
	Breakdown scoring.Breakdown           `json:"breakdown"`
}

// Score computes the deterministic risk score and has the LLM phrase the
// justification. The numeric result never comes from the model.
type Score struct {
	LLM llmclient.Client
	KB  *knowledge.Base
}

func (s *Score) Run(ctx context.Context, findings []artifact.TechnicalFinding) (artifact.RiskScoreReport, error) {
	b := scoring.Compute(findings, s.KB)
	report := artifact.RiskScoreReport{
		RiskScore:     b.Total,
		Justification: b.Justification(),
		Confidence:    b.Confidence,
	}

	p, err := prompt.Render(scoreSpec)
	if err != nil {
		return artifact.RiskScoreReport{}, err
	}
	raw, err := s.LLM.GenerateJSON(ctx, p, scoreIn{Findings: findings, Breakdown: b})
	if err != nil {
		return artifact.RiskScoreReport{}, fmt.Errorf("risk scoring: %w", err)
	}
	var out scoreOut
	if err := jsonutil.UnmarshalRaw(raw, &out); err != nil {
		return artifact.RiskScoreReport{}, fmt.Errorf("risk scoring: reply does not match schema: %w", err)
	}
	if j := strings.TrimSpace(out.Justification); j != "" {
		report.Justification = j
	}
	return report, nil
}
