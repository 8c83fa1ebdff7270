package suiclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NormalizedModule is one entry of the normalized-module map returned by the
// chain for a package.
type NormalizedModule struct {
	Name             string                        `json:"name"`
	Address          string                        `json:"address"`
	ExposedFunctions map[string]NormalizedFunction `json:"exposedFunctions"`
	Dependencies     []string                      `json:"dependencies"`
}

// NormalizedFunction is the callable-surface metadata for one function.
type NormalizedFunction struct {
	Visibility string     `json:"visibility"`
	IsEntry    bool       `json:"isEntry"`
	Parameters []MoveType `json:"parameters"`
}

// NormalizedStruct holds the field layout of one on-chain struct.
type NormalizedStruct struct {
	Fields []NormalizedField `json:"fields"`
}

// NormalizedField is a single named field of a normalized struct.
type NormalizedField struct {
	Name string   `json:"name"`
	Type MoveType `json:"type"`
}

// MoveStructTag identifies a struct type on chain.
type MoveStructTag struct {
	Address       string     `json:"address"`
	Module        string     `json:"module"`
	Name          string     `json:"name"`
	TypeArguments []MoveType `json:"typeArguments"`
}

// Identifier returns the fully qualified address::module::name form.
func (t MoveStructTag) Identifier() string {
	return t.Address + "::" + t.Module + "::" + t.Name
}

// MoveType mirrors the chain's normalized type encoding, which is either a
// bare string for primitives ("U64", "Address", ...) or a single-key object
// for composites. Exactly one member is set after unmarshalling.
type MoveType struct {
	Primitive        string
	Struct           *MoveStructTag
	Vector           *MoveType
	Reference        *MoveType
	MutableReference *MoveType
	TypeParameter    *int
}

func (t *MoveType) UnmarshalJSON(data []byte) error {
	var prim string
	if err := json.Unmarshal(data, &prim); err == nil {
		t.Primitive = prim
		return nil
	}
	var obj struct {
		Struct           *MoveStructTag `json:"Struct"`
		Vector           *MoveType      `json:"Vector"`
		Reference        *MoveType      `json:"Reference"`
		MutableReference *MoveType      `json:"MutableReference"`
		TypeParameter    *int           `json:"TypeParameter"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("suiclient: unexpected move type encoding: %w", err)
	}
	t.Struct = obj.Struct
	t.Vector = obj.Vector
	t.Reference = obj.Reference
	t.MutableReference = obj.MutableReference
	t.TypeParameter = obj.TypeParameter
	return nil
}

// String renders the type in Move surface syntax, used when struct fields
// are passed to the reasoning stages as evidence text.
func (t MoveType) String() string {
	switch {
	case t.Struct != nil:
		s := t.Struct.Identifier()
		if len(t.Struct.TypeArguments) > 0 {
			args := make([]string, len(t.Struct.TypeArguments))
			for i, a := range t.Struct.TypeArguments {
				args[i] = a.String()
			}
			s += "<" + strings.Join(args, ", ") + ">"
		}
		return s
	case t.Vector != nil:
		return "vector<" + t.Vector.String() + ">"
	case t.Reference != nil:
		return "&" + t.Reference.String()
	case t.MutableReference != nil:
		return "&mut " + t.MutableReference.String()
	case t.TypeParameter != nil:
		return fmt.Sprintf("T%d", *t.TypeParameter)
	default:
		return strings.ToLower(t.Primitive)
	}
}

// PublishEvent is a package-publish notification from the event stream.
type PublishEvent struct {
	PackageID   string `json:"packageId"`
	Sender      string `json:"sender"`
	TimestampMs string `json:"timestampMs"`
}
