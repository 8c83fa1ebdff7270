package scoring

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
	"github.com/mertkaradayi/redflag-sub001/internal/knowledge"
)

func finding(fn, pattern, severity string, notes ...string) artifact.TechnicalFinding {
	return artifact.TechnicalFinding{
		FunctionName:     fn,
		MatchedPatternID: pattern,
		Severity:         severity,
		ContextualNotes:  notes,
	}
}

func TestLevelForScore_Boundaries(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, "critical"},
		{70, "critical"},
		{69, "high"},
		{50, "high"},
		{49, "moderate"},
		{30, "moderate"},
		{29, "low"},
		{0, "low"},
	}
	for _, c := range cases {
		if got := LevelForScore(c.score); got != c.want {
			t.Fatalf("LevelForScore(%d) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	kb := knowledge.MustLoad()
	findings := []artifact.TechnicalFinding{
		finding("withdraw", "unrestricted-withdraw", "Critical", "simple, direct transfer out"),
		finding("set_fee", "fee-manipulation", "Medium"),
	}
	first := Compute(findings, kb)
	second := Compute(findings, kb)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same findings produced different breakdowns:\n%+v\n%+v", first, second)
	}
	if first.Total < 0 || first.Total > 100 {
		t.Fatalf("score out of range: %d", first.Total)
	}
}

func TestCompute_SingleCriticalReachesCriticalLevel(t *testing.T) {
	kb := knowledge.MustLoad()
	b := Compute([]artifact.TechnicalFinding{
		finding("drain_all", "unrestricted-withdraw", "Critical"),
	}, kb)
	if b.Total < 70 {
		t.Fatalf("single unmitigated Critical scored %d, expected >= 70", b.Total)
	}
	if LevelForScore(b.Total) != "critical" {
		t.Fatalf("level = %q for score %d", LevelForScore(b.Total), b.Total)
	}
}

func TestCompute_TwoHighsDoNotTriggerClusterBonus(t *testing.T) {
	kb := knowledge.MustLoad()
	b := Compute([]artifact.TechnicalFinding{
		finding("upgrade", "instant-upgrade", "High"),
		finding("send_to", "arbitrary-recipient-transfer", "High"),
		finding("set_fee", "fee-manipulation", "Medium"),
	}, kb)
	for _, c := range b.Combination {
		if c == "three or more High findings without a Critical +10" {
			t.Fatalf("cluster bonus applied with only two High findings: %+v", b.Combination)
		}
	}
}

func TestCompute_ThreeHighsTriggerClusterBonus(t *testing.T) {
	kb := knowledge.MustLoad()
	b := Compute([]artifact.TechnicalFinding{
		finding("upgrade", "instant-upgrade", "High"),
		finding("send_to", "arbitrary-recipient-transfer", "High"),
		finding("admin", "hidden-admin-capability", "High"),
	}, kb)
	found := false
	for _, c := range b.Combination {
		if c == "three or more High findings without a Critical +10" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected cluster bonus, combinations: %+v", b.Combination)
	}
}

func TestCompute_PauseComboBonus(t *testing.T) {
	kb := knowledge.MustLoad()
	b := Compute([]artifact.TechnicalFinding{
		finding("pause", "pause-freeze-control", "High"),
		finding("withdraw", "unrestricted-withdraw", "Critical"),
	}, kb)
	found := false
	for _, c := range b.Combination {
		if c == "pause control co-occurs with another High/Critical finding +5" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected pause combination bonus, combinations: %+v", b.Combination)
	}

	// A pause control alone earns no combination bonus.
	alone := Compute([]artifact.TechnicalFinding{
		finding("pause", "pause-freeze-control", "High"),
	}, kb)
	if len(alone.Combination) != 0 {
		t.Fatalf("unexpected combination effects: %+v", alone.Combination)
	}
}

func TestCompute_TwoPauseFindingsTriggerCombo(t *testing.T) {
	kb := knowledge.MustLoad()
	b := Compute([]artifact.TechnicalFinding{
		finding("pause_trading", "pause-freeze-control", "High"),
		finding("freeze_account", "pause-freeze-control", "High"),
	}, kb)
	found := false
	for _, c := range b.Combination {
		if c == "pause control co-occurs with another High/Critical finding +5" {
			found = true
		}
	}
	if !found {
		t.Fatalf("two pause findings did not earn the pause bonus, combinations: %+v", b.Combination)
	}
}

func TestCompute_MitigationSubtractsOnSevere(t *testing.T) {
	kb := knowledge.MustLoad()
	b := Compute([]artifact.TechnicalFinding{
		finding("withdraw", "unrestricted-withdraw", "Critical", "guarded by a 48h timelock"),
	}, kb)
	want := 90 - kb.Modifiers.MitigationPenalty
	if b.PerFinding[0].Adjusted != want {
		t.Fatalf("adjusted = %d, want %d", b.PerFinding[0].Adjusted, want)
	}

	// The same note on a Medium finding subtracts nothing.
	med := Compute([]artifact.TechnicalFinding{
		finding("set_fee", "fee-manipulation", "Medium", "guarded by a 48h timelock"),
	}, kb)
	if med.PerFinding[0].Adjusted != med.PerFinding[0].Base {
		t.Fatalf("mitigation applied to Medium finding: %+v", med.PerFinding[0])
	}
}

func TestCompute_UnknownPatternFallsBackToSeverityDefault(t *testing.T) {
	kb := knowledge.MustLoad()
	b := Compute([]artifact.TechnicalFinding{
		finding("mystery", "not-in-the-table", "High"),
	}, kb)
	if b.PerFinding[0].Base != severityDefaults[knowledge.SeverityHigh] {
		t.Fatalf("base = %d, want severity default %d", b.PerFinding[0].Base, severityDefaults[knowledge.SeverityHigh])
	}
}

func TestCompute_Confidence(t *testing.T) {
	kb := knowledge.MustLoad()

	clean := Compute([]artifact.TechnicalFinding{
		finding("withdraw", "unrestricted-withdraw", "Critical", "simple, direct transfer out"),
	}, kb)
	if clean.Confidence != ConfidenceHigh {
		t.Fatalf("clean high score confidence = %q", clean.Confidence)
	}

	lowOnly := Compute([]artifact.TechnicalFinding{
		finding("view_balance", "not-in-the-table", "Low"),
	}, kb)
	if lowOnly.Total >= 25 {
		t.Fatalf("low finding scored %d", lowOnly.Total)
	}
	if lowOnly.Confidence != ConfidenceHigh {
		t.Fatalf("low-only confidence = %q", lowOnly.Confidence)
	}

	mixed := Compute([]artifact.TechnicalFinding{
		finding("upgrade", "instant-upgrade", "High", "behind a complex governance condition"),
	}, kb)
	if mixed.Confidence != ConfidenceMedium {
		t.Fatalf("mixed confidence = %q", mixed.Confidence)
	}
}

func TestCompute_EmptyFindings(t *testing.T) {
	kb := knowledge.MustLoad()
	b := Compute(nil, kb)
	if b.Total != 0 || b.Confidence != ConfidenceHigh {
		t.Fatalf("empty findings: %+v", b)
	}
}

func TestJustificationMentionsTotal(t *testing.T) {
	kb := knowledge.MustLoad()
	b := Compute([]artifact.TechnicalFinding{
		finding("withdraw", "unrestricted-withdraw", "Critical"),
	}, kb)
	j := b.Justification()
	if !strings.Contains(j, fmt.Sprintf("Final score %d.", b.Total)) {
		t.Fatalf("justification %q does not mention total %d", j, b.Total)
	}
}
