// Package extract turns a package's normalized module map into the flat
// callable surface the reasoning chain works on.
package extract

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
	"github.com/mertkaradayi/redflag-sub001/internal/suiclient"
)

// Extraction is the pure result of one extraction pass.
type Extraction struct {
	Functions    []artifact.ExtractedFunction
	StructIDs    []string
	Dependencies []string
}

// Extract decodes each normalized module and collects every Public function,
// the struct identifiers its parameters reference, and the union of module
// dependencies. A module that fails to decode is logged and skipped; a
// package with zero resolvable public functions is a legitimate result
// (a library package), not an error.
func Extract(modules map[string]json.RawMessage) Extraction {
	var out Extraction
	structSet := map[string]struct{}{}
	depSet := map[string]struct{}{}

	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var mod suiclient.NormalizedModule
		if err := json.Unmarshal(modules[name], &mod); err != nil {
			log.Printf("extract: skipping module %s: %v", name, err)
			continue
		}
		for _, dep := range mod.Dependencies {
			if dep = strings.TrimSpace(dep); dep != "" {
				depSet[dep] = struct{}{}
			}
		}
		fnNames := make([]string, 0, len(mod.ExposedFunctions))
		for fn := range mod.ExposedFunctions {
			fnNames = append(fnNames, fn)
		}
		sort.Strings(fnNames)
		for _, fn := range fnNames {
			decl := mod.ExposedFunctions[fn]
			if !strings.EqualFold(decl.Visibility, "Public") {
				continue
			}
			params := make([]artifact.ParamType, 0, len(decl.Parameters))
			for _, p := range decl.Parameters {
				pt := paramType(p)
				collectStructIDs(pt, structSet)
				params = append(params, pt)
			}
			out.Functions = append(out.Functions, artifact.ExtractedFunction{
				Module: name,
				Name:   fn,
				Params: params,
			})
		}
	}

	out.StructIDs = sortedKeys(structSet)
	out.Dependencies = sortedKeys(depSet)
	return out
}

// paramType flattens a normalized Move type. References are unwrapped one
// level so mutability survives as a flag on the referent.
func paramType(t suiclient.MoveType) artifact.ParamType {
	switch {
	case t.Reference != nil:
		inner := paramType(*t.Reference)
		return artifact.ParamType{Kind: artifact.ParamReference, Value: inner.Value, TypeArgs: inner.TypeArgs}
	case t.MutableReference != nil:
		inner := paramType(*t.MutableReference)
		return artifact.ParamType{Kind: artifact.ParamReference, Value: inner.Value, TypeArgs: inner.TypeArgs, Mutable: true}
	case t.Vector != nil:
		elem := paramType(*t.Vector)
		return artifact.ParamType{Kind: artifact.ParamVector, TypeArgs: []artifact.ParamType{elem}}
	case t.Struct != nil:
		pt := artifact.ParamType{Kind: artifact.ParamStruct, Value: t.Struct.Identifier()}
		for _, arg := range t.Struct.TypeArguments {
			pt.TypeArgs = append(pt.TypeArgs, paramType(arg))
		}
		return pt
	case t.TypeParameter != nil:
		return artifact.ParamType{Kind: artifact.ParamPrimitive, Value: fmt.Sprintf("T%d", *t.TypeParameter)}
	default:
		return artifact.ParamType{Kind: artifact.ParamPrimitive, Value: strings.ToLower(t.Primitive)}
	}
}

func collectStructIDs(pt artifact.ParamType, into map[string]struct{}) {
	if pt.Kind == artifact.ParamStruct && pt.Value != "" {
		into[pt.Value] = struct{}{}
	}
	for _, arg := range pt.TypeArgs {
		collectStructIDs(arg, into)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
