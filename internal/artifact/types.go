package artifact

// ParamKind discriminates the shape of a function parameter type.
type ParamKind string

const (
	ParamPrimitive ParamKind = "primitive"
	ParamStruct    ParamKind = "struct"
	ParamVector    ParamKind = "vector"
	ParamReference ParamKind = "reference"
)

// ParamType is a flattened Move parameter type. References are unwrapped so
// that Mutable survives even when the referent is nested; struct identifiers
// are fully qualified (address::module::name).
type ParamType struct {
	Kind     ParamKind   `json:"kind"`
	Value    string      `json:"value,omitempty"`
	TypeArgs []ParamType `json:"type_args,omitempty"`
	Mutable  bool        `json:"mutable,omitempty"`
}

// ExtractedFunction is one publicly callable entry point of the package
// under analysis. Produced once per run and never mutated afterwards.
type ExtractedFunction struct {
	Module string      `json:"module"`
	Name   string      `json:"name"`
	Params []ParamType `json:"params"`
}

// StructField is a single field of a resolved Move struct.
type StructField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// StructDefinition holds the ordered fields of one struct. A failed fetch is
// represented by a single {unknown, unknown} placeholder field.
type StructDefinition struct {
	Fields []StructField `json:"fields"`
}

// DependencyRisk is a previously cached verdict for an imported package.
// Only high / moderate entries are kept.
type DependencyRisk struct {
	ID        string `json:"id"`
	RiskScore int    `json:"risk_score"`
	Level     string `json:"level"`
}

// TechnicalFinding is one deep-analysis result for a triage-flagged function.
// MatchedPatternID references the risk-pattern knowledge base.
type TechnicalFinding struct {
	FunctionName        string   `json:"function_name"`
	TechnicalReason     string   `json:"technical_reason"`
	MatchedPatternID    string   `json:"matched_pattern_id"`
	Severity            string   `json:"severity"`
	ContextualNotes     []string `json:"contextual_notes"`
	EvidenceCodeSnippet string   `json:"evidence_code_snippet"`
}

// RiskScoreReport carries the final numeric verdict. RiskScore is attached
// to the SafetyCard unmodified; later stages may restate it in prose but
// never recompute it.
type RiskScoreReport struct {
	RiskScore     int    `json:"risk_score"`
	Justification string `json:"justification"`
	Confidence    string `json:"confidence"`
}

// RiskyFunction is the user-facing rendering of one finding.
type RiskyFunction struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// SafetyCard is the pipeline's final report: the unit cached per
// packageId@network and returned to callers.
type SafetyCard struct {
	Summary           string          `json:"summary"`
	RiskyFunctions    []RiskyFunction `json:"risky_functions"`
	RugPullIndicators []string        `json:"rug_pull_indicators"`
	ImpactOnUser      string          `json:"impact_on_user"`
	WhyRiskyOneLiner  string          `json:"why_risky_one_liner"`
	RiskScore         int             `json:"risk_score"`
	RiskLevel         string          `json:"risk_level"`
}

// ReportDraft is the Report Writing stage output: a SafetyCard before the
// numeric score and level are attached.
type ReportDraft struct {
	Summary           string          `json:"summary"`
	RiskyFunctions    []RiskyFunction `json:"risky_functions"`
	RugPullIndicators []string        `json:"rug_pull_indicators"`
	ImpactOnUser      string          `json:"impact_on_user"`
	WhyRiskyOneLiner  string          `json:"why_risky_one_liner"`
}

// Critique is the consistency verdict on a report draft.
type Critique struct {
	IsConsistent bool   `json:"is_consistent"`
	Feedback     string `json:"feedback"`
}
