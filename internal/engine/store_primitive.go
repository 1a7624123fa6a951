package engine

import (
	"encoding/json"

	"github.com/agrama/agrama/internal/agerr"
	"github.com/agrama/agrama/internal/store"
)

// semanticIndexThreshold is the value-length above which STORE reports
// "indexed": true in its result. STORE inserts nothing into the semantic
// index; every stored value is added to the lexical index only.
const semanticIndexThreshold = 50

// storePrimitive implements STORE {key, value, metadata?}.
type storePrimitive struct{}

func (storePrimitive) Metadata() Metadata {
	return Metadata{
		Name:        "store",
		Title:       "Store",
		Description: "Persists a value under a key, recording provenance and appending to the key's change history.",
		CompositionExamples: []string{
			`store({"key":"notes/design","value":"initial draft"})`,
		},
	}
}

func (storePrimitive) Validate(p Params) error {
	key, ok := p["key"].(string)
	if !ok {
		return agerr.MissingField("key")
	}
	if key == "" {
		return agerr.EmptyString("key")
	}
	if store.IsReserved(key) {
		return agerr.Withf(agerr.KindValidation, "ReservedKey", "key %q falls under a reserved namespace", key)
	}
	if _, ok := p["value"]; !ok {
		return agerr.MissingField("value")
	}
	if _, ok := p["value"].(string); !ok {
		return agerr.InvalidType("value", "string")
	}
	return nil
}

func (storePrimitive) Execute(ctx *Context, p Params) (Value, error) {
	key := p["key"].(string)
	value := p["value"].(string)

	ts, err := ctx.Store.Save(key, []byte(value))
	if err != nil {
		return nil, err
	}

	meta := map[string]any{
		"agent_id":   ctx.AgentID,
		"session_id": ctx.SessionID,
		"timestamp":  ts,
		"size":       len(value),
	}
	if m, ok := p["metadata"].(map[string]any); ok {
		for k, v := range m {
			meta[k] = v
		}
	}
	metaBytes, _ := json.Marshal(meta)
	if _, err := ctx.Store.Save(store.MetaKey(key), metaBytes); err != nil {
		return nil, err
	}

	if ctx.Lexical != nil {
		ctx.Lexical.Index(key, value)
	}

	indexed := len(value) > semanticIndexThreshold

	return Value{
		"success":   true,
		"key":       key,
		"timestamp": ts,
		"indexed":   indexed,
	}, nil
}
