// Package pipeline orchestrates the multi-stage risk analysis of one
// on-chain package: extraction, struct/dependency resolution, the five
// reasoning stages, the single self-correction pass, and finalization.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
	"github.com/mertkaradayi/redflag-sub001/internal/cache"
	"github.com/mertkaradayi/redflag-sub001/internal/extract"
	"github.com/mertkaradayi/redflag-sub001/internal/knowledge"
	"github.com/mertkaradayi/redflag-sub001/internal/llmclient"
	"github.com/mertkaradayi/redflag-sub001/internal/scoring"
)

// State names the positions of the analysis state machine. Two of them are
// terminal short-circuits rather than errors: they are the cheap, valid
// answers for trivially low-risk packages.
type State string

const (
	StateExtracted           State = "extracted"
	StateTriaged             State = "triaged"
	StateTechnicallyAnalyzed State = "technically_analyzed"
	StateScored              State = "scored"
	StateReported            State = "reported"
	StateCritiqued           State = "critiqued"
	StateCorrected           State = "corrected"
	StateFinalized           State = "finalized"
	StateNoFunctions         State = "no_functions"
	StateCleanTriage         State = "clean_triage"
)

// Archiver receives finalized cards for long-term storage. Optional and
// best-effort; archive failures never fail an analysis.
type Archiver interface {
	Put(ctx context.Context, key string, card artifact.SafetyCard) error
}

// Analyzer wires the pipeline's collaborators together. One Analyzer serves
// all requests; per-request state lives on the stack.
type Analyzer struct {
	Chain   ChainReader
	LLM     llmclient.Client
	KB      *knowledge.Base
	Cache   *cache.Cache
	Archive Archiver

	// DepLookup selects strict network-qualified dependency lookup or the
	// source-compatible cross-network scan over DepNetworks.
	DepLookup   string
	DepNetworks []string
}

// Analyze returns the safety card for a package, computing it at most once
// per (packageID, network) even under concurrent requests. The second
// return reports whether the verdict came from the cache.
func (a *Analyzer) Analyze(ctx context.Context, packageID, network string) (artifact.SafetyCard, bool, error) {
	network = NormalizeNetwork(network)
	key := cache.Key(packageID, network)
	card, cached, err := a.Cache.GetOrCompute(ctx, key, func(ctx context.Context) (artifact.SafetyCard, error) {
		return a.run(ctx, packageID, network)
	})
	if err != nil {
		return artifact.SafetyCard{}, false, err
	}
	if !cached && a.Archive != nil {
		if err := a.Archive.Put(ctx, key, card); err != nil {
			log.Printf("pipeline: archiving %s failed: %v", key, err)
		}
	}
	return card, cached, nil
}

// NormalizeNetwork maps any value other than "testnet" onto "mainnet".
func NormalizeNetwork(network string) string {
	if strings.EqualFold(strings.TrimSpace(network), "testnet") {
		return "testnet"
	}
	return "mainnet"
}

func (a *Analyzer) run(ctx context.Context, packageID, network string) (artifact.SafetyCard, error) {
	step := func(s State) { log.Printf("pipeline %s@%s: %s", packageID, network, s) }

	modules, err := a.Chain.NormalizedModules(ctx, network, packageID)
	if err != nil {
		return artifact.SafetyCard{}, fmt.Errorf("fetch normalized modules: %w", err)
	}
	disassembly, err := a.Chain.Disassembly(ctx, network, packageID)
	if err != nil {
		return artifact.SafetyCard{}, fmt.Errorf("fetch disassembly: %w", err)
	}
	ext := extract.Extract(modules)
	step(StateExtracted)

	if len(ext.Functions) == 0 {
		step(StateNoFunctions)
		return noFunctionsCard(), nil
	}

	// Struct resolution and dependency lookup are independent; run them
	// concurrently. Neither can fail the request.
	var structs map[string]artifact.StructDefinition
	var depRisks []artifact.DependencyRisk
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		structs = resolveStructs(ctx, a.Chain, network, ext.StructIDs)
	}()
	go func() {
		defer wg.Done()
		depRisks = resolveDependencyRisks(ctx, a.Cache, ext.Dependencies, network, a.DepLookup, a.depNetworks())
	}()
	wg.Wait()

	triage := &Triage{LLM: a.LLM}
	flagged, err := triage.Run(ctx, TriageIn{Functions: ext.Functions, Structs: structs, DependencyRisks: depRisks})
	if err != nil {
		return artifact.SafetyCard{}, err
	}
	step(StateTriaged)

	if len(flagged) == 0 {
		step(StateCleanTriage)
		return cleanTriageCard(), nil
	}

	technical := &Technical{LLM: a.LLM, KB: a.KB}
	findings, err := technical.Run(ctx, TechnicalIn{
		Functions:       ext.Functions,
		Structs:         structs,
		DependencyRisks: depRisks,
		Disassembly:     disassembly,
		Flagged:         flagged,
	})
	if err != nil {
		return artifact.SafetyCard{}, err
	}
	step(StateTechnicallyAnalyzed)

	score, err := (&Score{LLM: a.LLM, KB: a.KB}).Run(ctx, findings)
	if err != nil {
		return artifact.SafetyCard{}, err
	}
	step(StateScored)

	report := &Report{LLM: a.LLM}
	reportIn := ReportIn{Findings: findings, Score: score, DependencyRisks: depRisks}
	draft, err := report.Run(ctx, reportIn)
	if err != nil {
		return artifact.SafetyCard{}, err
	}
	step(StateReported)

	critique, err := (&CritiqueStage{LLM: a.LLM}).Run(ctx, findings, score, draft)
	if err != nil {
		return artifact.SafetyCard{}, err
	}
	step(StateCritiqued)

	if !critique.IsConsistent {
		draft, err = report.RunCorrection(ctx, reportIn, draft, critique.Feedback)
		if err != nil {
			return artifact.SafetyCard{}, err
		}
		step(StateCorrected)
	}

	card := finalize(draft, score, findings)
	step(StateFinalized)
	return card, nil
}

func (a *Analyzer) depNetworks() []string {
	if len(a.DepNetworks) > 0 {
		return a.DepNetworks
	}
	return []string{"mainnet", "testnet"}
}

// finalize attaches the authoritative score and level, and enforces the
// card invariant that every risky function traces back to a finding.
func finalize(draft artifact.ReportDraft, score artifact.RiskScoreReport, findings []artifact.TechnicalFinding) artifact.SafetyCard {
	byName := make(map[string]struct{}, len(findings))
	for _, f := range findings {
		byName[f.FunctionName] = struct{}{}
	}
	risky := make([]artifact.RiskyFunction, 0, len(draft.RiskyFunctions))
	for _, rf := range draft.RiskyFunctions {
		if _, ok := byName[rf.Name]; !ok {
			log.Printf("pipeline: dropping risky function %q with no backing finding", rf.Name)
			continue
		}
		risky = append(risky, rf)
	}
	indicators := draft.RugPullIndicators
	if indicators == nil {
		indicators = []string{}
	}
	return artifact.SafetyCard{
		Summary:           draft.Summary,
		RiskyFunctions:    risky,
		RugPullIndicators: indicators,
		ImpactOnUser:      draft.ImpactOnUser,
		WhyRiskyOneLiner:  draft.WhyRiskyOneLiner,
		RiskScore:         score.RiskScore,
		RiskLevel:         scoring.LevelForScore(score.RiskScore),
	}
}

func noFunctionsCard() artifact.SafetyCard {
	return artifact.SafetyCard{
		Summary:           "This package exposes no public functions. External callers cannot invoke anything in it, which usually indicates a library or data-only package.",
		RiskyFunctions:    []artifact.RiskyFunction{},
		RugPullIndicators: []string{},
		ImpactOnUser:      "There is no callable surface, so interacting with this package directly cannot move your funds.",
		WhyRiskyOneLiner:  "No public entry points were found in this package.",
		RiskScore:         0,
		RiskLevel:         scoring.LevelForScore(0),
	}
}

func cleanTriageCard() artifact.SafetyCard {
	return artifact.SafetyCard{
		Summary:           "A surface review of every public function found no names, parameters, or capability objects that suggest rug-pull mechanics. Deep analysis was not required.",
		RiskyFunctions:    []artifact.RiskyFunction{},
		RugPullIndicators: []string{},
		ImpactOnUser:      "Nothing in the public interface indicates a way for the deployer to take user funds.",
		WhyRiskyOneLiner:  "No suspicious public functions were identified.",
		RiskScore:         5,
		RiskLevel:         scoring.LevelForScore(5),
	}
}
