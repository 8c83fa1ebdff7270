package prompt

// Preset holds reusable constraints and rules for stage prompts.
type Preset struct {
	Constraints []string
	Rules       []string
}

// Apply prepends preset constraints/rules to a spec.
func Apply(spec Spec, presets ...Preset) Spec {
	if len(presets) == 0 {
		return spec
	}
	var merged Preset
	for _, p := range presets {
		merged.Constraints = append(merged.Constraints, p.Constraints...)
		merged.Rules = append(merged.Rules, p.Rules...)
	}
	spec.Constraints = append(merged.Constraints, spec.Constraints...)
	spec.Rules = append(merged.Rules, spec.Rules...)
	return spec
}

// StrictJSON enforces strict JSON-only output.
func StrictJSON() Preset {
	return Preset{
		Constraints: []string{
			"Return strict JSON only.",
			"Match the schema exactly; no extra fields.",
			"No markdown, comments, or trailing commas.",
		},
	}
}

// NoInvent prevents fabricated functions, structs, or code excerpts.
func NoInvent() Preset {
	return Preset{
		Constraints: []string{
			"Do not invent function names, struct fields, or bytecode excerpts; use only provided inputs.",
		},
	}
}

// Cautious encourages explicit uncertainty instead of guessing.
func Cautious() Preset {
	return Preset{
		Rules: []string{
			"Avoid guessing; if unsure, make uncertainty explicit (notes, empty strings, or empty arrays).",
		},
	}
}
