package jsonutil

import (
	"bytes"
	"encoding/json"
	"strings"
)

// MarshalNoEscape encodes v into JSON without escaping <, >, & into \u003c
// etc. Move signatures and disassembly excerpts contain < and > constantly,
// so the default encoder behavior would garble prompt inputs and card
// payloads.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalRaw parses a raw LLM reply into v with best effort. A payload
// carrying double-escaped sequences like "\\u003e" decodes without error but
// leaves literal "\u003e" text inside string values, so those payloads go
// through Normalize first; everything else takes the direct path, with a
// normalized retry on failure.
func UnmarshalRaw(raw json.RawMessage, v any) error {
	if bytes.Contains(raw, []byte(`\\u`)) {
		if norm, err := Normalize([]byte(raw)); err == nil {
			return json.Unmarshal(norm, v)
		}
	}
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	norm, err := Normalize([]byte(raw))
	if err != nil {
		return err
	}
	return json.Unmarshal(norm, v)
}

// Normalize parses JSON bytes and recursively unescapes any remaining
// double-escaped unicode sequences inside string values. It also unwraps the
// case where the whole payload is a JSON-encoded string containing JSON.
func Normalize(raw []byte) ([]byte, error) {
	var val any
	if err := json.Unmarshal(raw, &val); err != nil {
		return nil, err
	}
	if s, ok := val.(string); ok {
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			val = inner
		}
	}
	return MarshalNoEscape(deepUnescape(val))
}

// unescapeString converts literal unicode escapes like "\u003e" left behind
// by double encoding into actual characters. Strings the re-decode cannot
// parse are returned unchanged by the caller.
func unescapeString(s string) (string, error) {
	if !strings.Contains(s, `\u`) {
		return s, nil
	}
	esc := strings.ReplaceAll(s, `"`, `\"`)
	var out string
	if err := json.Unmarshal([]byte(`"`+esc+`"`), &out); err != nil {
		return "", err
	}
	return out, nil
}

func deepUnescape(v any) any {
	switch x := v.(type) {
	case string:
		if s, err := unescapeString(x); err == nil {
			return s
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = deepUnescape(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = deepUnescape(vv)
		}
		return out
	default:
		return v
	}
}
