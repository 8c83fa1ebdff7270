package pipeline

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
	"github.com/mertkaradayi/redflag-sub001/internal/cache"
	"github.com/mertkaradayi/redflag-sub001/internal/suiclient"
)

// ChainReader is the chain-query surface the pipeline consumes. Implemented
// by suiclient.Client; tests substitute fixtures.
type ChainReader interface {
	NormalizedModules(ctx context.Context, network, packageID string) (map[string]json.RawMessage, error)
	Disassembly(ctx context.Context, network, packageID string) (map[string]string, error)
	NormalizedStruct(ctx context.Context, network, packageID, module, name string) (suiclient.NormalizedStruct, error)
}

var unknownStruct = artifact.StructDefinition{
	Fields: []artifact.StructField{{Name: "unknown", Type: "unknown"}},
}

// resolveStructs fetches field definitions for every referenced struct.
// Struct context is advisory evidence: a failed fetch degrades to a
// placeholder definition, and each struct is attempted exactly once.
func resolveStructs(ctx context.Context, chain ChainReader, network string, ids []string) map[string]artifact.StructDefinition {
	out := make(map[string]artifact.StructDefinition, len(ids))
	for _, id := range ids {
		parts := strings.SplitN(id, "::", 3)
		if len(parts) != 3 {
			log.Printf("pipeline: malformed struct id %q", id)
			out[id] = unknownStruct
			continue
		}
		ns, err := chain.NormalizedStruct(ctx, network, parts[0], parts[1], parts[2])
		if err != nil {
			log.Printf("pipeline: struct %s unresolved: %v", id, err)
			out[id] = unknownStruct
			continue
		}
		def := artifact.StructDefinition{Fields: make([]artifact.StructField, 0, len(ns.Fields))}
		for _, f := range ns.Fields {
			def.Fields = append(def.Fields, artifact.StructField{Name: f.Name, Type: f.Type.String()})
		}
		out[id] = def
	}
	return out
}

// Dependency lookup modes; see DEP_LOOKUP in config. The source design left
// dependency keys unqualified by network, so cross-network lookup is the
// compatible default and strict mode is the opt-in alternative.
const (
	DepLookupStrict = "strict"
	DepLookupCross  = "cross"
)

// resolveDependencyRisks inherits verdicts for a package's dependencies from
// the result cache. Cache-only: it performs no network calls and cannot
// fail; unanalyzed dependencies simply produce no entry. Only high and
// moderate verdicts are kept, as a signal-to-noise filter.
func resolveDependencyRisks(ctx context.Context, c *cache.Cache, deps []string, network, mode string, networks []string) []artifact.DependencyRisk {
	risks := make([]artifact.DependencyRisk, 0)
	for _, dep := range deps {
		var card artifact.SafetyCard
		var ok bool
		switch mode {
		case DepLookupStrict:
			card, ok = c.Peek(ctx, cache.Key(dep, network))
		default:
			for _, net := range networks {
				if card, ok = c.Peek(ctx, cache.Key(dep, net)); ok {
					break
				}
			}
		}
		if !ok {
			continue
		}
		if card.RiskLevel != "high" && card.RiskLevel != "moderate" {
			continue
		}
		risks = append(risks, artifact.DependencyRisk{
			ID:        dep,
			RiskScore: card.RiskScore,
			Level:     card.RiskLevel,
		})
	}
	return risks
}
