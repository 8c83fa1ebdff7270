package prompt

import (
	"strings"
	"testing"
)

func TestRender_Sections(t *testing.T) {
	spec := Spec{
		Purpose:      "Flag risky functions.",
		Background:   "First pass of the analysis chain.",
		OutputFormat: "JSON only.",
		Language:     "English",
		OutputFields: []Field{
			{Name: "flagged_functions", Type: "[]string", Required: true, Description: "Function names to analyze further."},
			{Name: "notes", Type: "string", Required: false},
		},
		Constraints: []string{"No markdown."},
		Rules:       []string{"Prefer false positives over false negatives."},
		Assumptions: []string{"If unsure, flag the function."},
		Examples: []Example{
			{InputJSON: `{"functions":[]}`, OutputJSON: `{"flagged_functions":[]}`},
		},
	}

	out, err := Render(spec)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	for _, sec := range []string{
		"[PURPOSE]", "[BACKGROUND]", "[OUTPUT]",
		"[CONSTRAINTS]", "[RULES]", "[ASSUMPTIONS]",
		"[OUTPUT_FORMAT]", "[LANGUAGE]", "[EXAMPLES]",
	} {
		if !strings.Contains(out, sec) {
			t.Fatalf("expected section %s in prompt", sec)
		}
	}
	if !strings.Contains(out, "flagged_functions ([]string, required)") {
		t.Fatalf("field line missing from prompt:\n%s", out)
	}
}

func TestRender_EmptyPurposeFails(t *testing.T) {
	_, err := Render(Spec{OutputFields: []Field{{Name: "x"}}})
	if err == nil {
		t.Fatal("expected error for empty purpose")
	}
}

func TestFieldsFromStruct(t *testing.T) {
	type out struct {
		Summary  string   `json:"summary" prompt_desc:"One paragraph."`
		Names    []string `json:"names"`
		Score    int      `json:"score" prompt:"optional"`
		Internal string   `json:"internal" prompt:"-"`
		hidden   string
	}
	_ = out{hidden: ""}

	fields := MustFieldsFromStruct(out{})
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d: %+v", len(fields), fields)
	}
	if fields[0].Name != "summary" || fields[0].Description != "One paragraph." || !fields[0].Required {
		t.Fatalf("summary field wrong: %+v", fields[0])
	}
	if fields[1].Type != "[]string" {
		t.Fatalf("names type wrong: %+v", fields[1])
	}
	if fields[2].Required {
		t.Fatalf("score should be optional: %+v", fields[2])
	}
}
