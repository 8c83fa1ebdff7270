package jsonutil

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMarshalNoEscape(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"sig": "Coin<SUI>"})
	if err != nil {
		t.Fatalf("MarshalNoEscape error: %v", err)
	}
	if strings.Contains(string(out), `\u003c`) || strings.Contains(string(out), `\u003e`) {
		t.Fatalf("angle brackets were escaped: %s", out)
	}
	if !strings.Contains(string(out), "Coin<SUI>") {
		t.Fatalf("signature was garbled: %s", out)
	}
}

func TestUnmarshalRaw_Direct(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	if err := UnmarshalRaw(json.RawMessage(`{"name":"withdraw"}`), &v); err != nil {
		t.Fatalf("UnmarshalRaw error: %v", err)
	}
	if v.Name != "withdraw" {
		t.Fatalf("got %q", v.Name)
	}
}

func TestUnmarshalRaw_DoubleEscaped(t *testing.T) {
	var v struct {
		Sig string `json:"sig"`
	}
	raw := json.RawMessage(`{"sig":"Balance\\u003cT\\u003e"}`)
	if err := UnmarshalRaw(raw, &v); err != nil {
		t.Fatalf("UnmarshalRaw error: %v", err)
	}
	if v.Sig != "Balance<T>" {
		t.Fatalf("got %q", v.Sig)
	}
}

func TestUnmarshalRaw_QuotedWrapper(t *testing.T) {
	var v struct {
		OK bool `json:"ok"`
	}
	if err := UnmarshalRaw(json.RawMessage(`"{\"ok\":true}"`), &v); err != nil {
		t.Fatalf("UnmarshalRaw error: %v", err)
	}
	if !v.OK {
		t.Fatal("quoted wrapper was not unwrapped")
	}
}

func TestNormalize_BackslashSurvives(t *testing.T) {
	out, err := Normalize([]byte(`{"path":"a\\b"}`))
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	var v struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(out, &v); err != nil {
		t.Fatalf("normalized output not JSON: %v", err)
	}
	if v.Path != `a\b` {
		t.Fatalf("backslash mangled: %q", v.Path)
	}
}

func TestNormalize_QuotedPayload(t *testing.T) {
	out, err := Normalize([]byte(`"{\"ok\":true}"`))
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	var v map[string]any
	if err := json.Unmarshal(out, &v); err != nil {
		t.Fatalf("normalized output not JSON: %v", err)
	}
	if v["ok"] != true {
		t.Fatalf("unexpected payload: %s", out)
	}
}
