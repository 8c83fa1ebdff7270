package pipeline

import (
	"context"
	"fmt"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
	"github.com/mertkaradayi/redflag-sub001/internal/llmclient"
	"github.com/mertkaradayi/redflag-sub001/internal/prompt"
	"github.com/mertkaradayi/redflag-sub001/internal/util/jsonutil"
)

type triageOut struct {
	Flagged []string `json:"flagged_functions" prompt_desc:"Names of functions that deserve deep technical analysis."`
}

var triageSpec = prompt.Apply(prompt.Spec{
	Purpose:      "Flag potentially risky public functions of a Move package for deep analysis.",
	Background:   "First pass of the risk chain. Only flagged functions are analyzed further, so this filter is recall-oriented: a false positive costs one extra analysis, a false negative hides a real risk from the rest of the chain.",
	OutputFields: prompt.MustFieldsFromStruct(triageOut{}),
	Rules:        []string{
		"Judge by function name, parameter types, and referenced struct shapes only; this pass sees no bytecode.",
		"Treat capability-typed parameters (TreasuryCap, UpgradeCap, anything named *Cap or *Admin*) as a strong signal.",
		"Treat names suggesting fund movement, minting, pausing, fee changes, or ownership changes as signals.",
		"Consider the provided dependency risks: functions touching a risky dependency deserve a flag.",
		"Prefer false positives over false negatives.",
	},
	OutputFormat: "JSON only.",
	Language:     "English",
}, prompt.StrictJSON(), prompt.NoInvent(), prompt.Cautious())

// TriageIn is the surface context for the first reasoning pass.
type TriageIn struct {
	Functions       []artifact.ExtractedFunction         `json:"functions"`
	Structs         map[string]artifact.StructDefinition `json:"structs,omitempty"`
	DependencyRisks []artifact.DependencyRisk            `json:"dependency_risks,omitempty"`
}

// Triage narrows the analysis surface to the functions worth deep analysis.
type Triage struct {
	LLM llmclient.Client
}

func (s *Triage) Run(ctx context.Context, in TriageIn) ([]string, error) {
	p, err := prompt.Render(triageSpec)
	if err != nil {
		return nil, err
	}
	raw, err := s.LLM.GenerateJSON(ctx, p, in)
	if err != nil {
		return nil, fmt.Errorf("triage: %w", err)
	}
	var out triageOut
	if err := jsonutil.UnmarshalRaw(raw, &out); err != nil {
		return nil, fmt.Errorf("triage: reply does not match schema: %w", err)
	}

	// Only names that actually exist can be flagged; anything else is noise.
	known := make(map[string]struct{}, len(in.Functions))
	for _, fn := range in.Functions {
		known[fn.Name] = struct{}{}
	}
	flagged := make([]string, 0, len(out.Flagged))
	seen := map[string]struct{}{}
	for _, name := range out.Flagged {
		if _, ok := known[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		flagged = append(flagged, name)
	}
	return flagged, nil
}
