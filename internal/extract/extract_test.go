package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
)

func mod(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestExtract_PublicOnly(t *testing.T) {
	modules := map[string]json.RawMessage{
		"vault": mod(t, map[string]any{
			"name": "vault",
			"exposedFunctions": map[string]any{
				"withdraw": map[string]any{"visibility": "Public", "isEntry": true, "parameters": []any{"U64"}},
				"internal": map[string]any{"visibility": "Private", "parameters": []any{}},
				"helper":   map[string]any{"visibility": "Friend", "parameters": []any{}},
			},
			"dependencies": []string{"0x2", "0x1"},
		}),
	}

	got := Extract(modules)
	require.Len(t, got.Functions, 1)
	require.Equal(t, "withdraw", got.Functions[0].Name)
	require.Equal(t, "vault", got.Functions[0].Module)
	require.Equal(t, []string{"0x1", "0x2"}, got.Dependencies)
}

func TestExtract_ReferenceUnwrapAndStructIDs(t *testing.T) {
	modules := map[string]json.RawMessage{
		"admin": mod(t, map[string]any{
			"name": "admin",
			"exposedFunctions": map[string]any{
				"set_fee": map[string]any{
					"visibility": "Public",
					"parameters": []any{
						map[string]any{"MutableReference": map[string]any{
							"Struct": map[string]any{
								"address": "0xabc", "module": "admin", "name": "AdminCap",
								"typeArguments": []any{},
							},
						}},
						map[string]any{"Reference": map[string]any{
							"Struct": map[string]any{
								"address": "0x2", "module": "coin", "name": "Coin",
								"typeArguments": []any{map[string]any{"TypeParameter": 0}},
							},
						}},
						"U64",
					},
				},
			},
		}),
	}

	got := Extract(modules)
	require.Len(t, got.Functions, 1)
	params := got.Functions[0].Params
	require.Len(t, params, 3)

	require.Equal(t, artifact.ParamReference, params[0].Kind)
	require.True(t, params[0].Mutable)
	require.Equal(t, "0xabc::admin::AdminCap", params[0].Value)

	require.Equal(t, artifact.ParamReference, params[1].Kind)
	require.False(t, params[1].Mutable)
	require.Equal(t, "0x2::coin::Coin", params[1].Value)
	require.Len(t, params[1].TypeArgs, 1)

	require.Equal(t, artifact.ParamPrimitive, params[2].Kind)
	require.Equal(t, "u64", params[2].Value)

	require.Equal(t, []string{"0x2::coin::Coin", "0xabc::admin::AdminCap"}, got.StructIDs)
}

func TestExtract_VectorParam(t *testing.T) {
	modules := map[string]json.RawMessage{
		"m": mod(t, map[string]any{
			"exposedFunctions": map[string]any{
				"f": map[string]any{
					"visibility": "Public",
					"parameters": []any{map[string]any{"Vector": "U8"}},
				},
			},
		}),
	}
	got := Extract(modules)
	require.Len(t, got.Functions, 1)
	p := got.Functions[0].Params[0]
	require.Equal(t, artifact.ParamVector, p.Kind)
	require.Len(t, p.TypeArgs, 1)
	require.Equal(t, "u8", p.TypeArgs[0].Value)
}

func TestExtract_MalformedModuleIsSkipped(t *testing.T) {
	modules := map[string]json.RawMessage{
		"broken": json.RawMessage(`["not","a","module"]`),
		"ok": mod(t, map[string]any{
			"exposedFunctions": map[string]any{
				"f": map[string]any{"visibility": "Public", "parameters": []any{}},
			},
		}),
	}
	got := Extract(modules)
	require.Len(t, got.Functions, 1)
	require.Equal(t, "ok", got.Functions[0].Module)
}

func TestExtract_EmptyPackage(t *testing.T) {
	got := Extract(map[string]json.RawMessage{})
	require.Empty(t, got.Functions)
	require.Empty(t, got.StructIDs)
	require.Empty(t, got.Dependencies)
}
