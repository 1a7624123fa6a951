package engine

import (
	"encoding/json"

	"github.com/agrama/agrama/internal/agerr"
	"github.com/agrama/agrama/internal/store"
)

// retrievePrimitive implements RETRIEVE {key, include_history?}.
type retrievePrimitive struct{}

func (retrievePrimitive) Metadata() Metadata {
	return Metadata{
		Name:        "retrieve",
		Title:       "Retrieve",
		Description: "Reads the current value (and optionally full history) for a key. Absence is not an error.",
		CompositionExamples: []string{
			`retrieve({"key":"notes/design"})`,
			`retrieve({"key":"notes/design","include_history":true})`,
		},
	}
}

func (retrievePrimitive) Validate(p Params) error {
	key, ok := p["key"].(string)
	if !ok {
		return agerr.MissingField("key")
	}
	if key == "" {
		return agerr.EmptyString("key")
	}
	return nil
}

func (retrievePrimitive) Execute(ctx *Context, p Params) (Value, error) {
	key := p["key"].(string)

	value, err := ctx.Store.Get(key)
	if err != nil {
		if e := agerr.As(err); e != nil && e.Kind == agerr.KindNotFound {
			return Value{"exists": false, "key": key}, nil
		}
		return nil, err
	}

	result := Value{
		"exists": true,
		"key":    key,
		"value":  string(value),
	}

	if metaBytes, err := ctx.Store.Get(store.MetaKey(key)); err == nil {
		var meta map[string]any
		if json.Unmarshal(metaBytes, &meta) == nil {
			result["metadata"] = meta
		}
	}

	if includeHistory, _ := p["include_history"].(bool); includeHistory {
		records, err := ctx.Store.History(key, 0)
		if err != nil {
			return nil, err
		}
		hist := make([]map[string]any, len(records))
		for i, r := range records {
			hist[i] = map[string]any{
				"timestamp": r.Timestamp,
				"value":     string(r.Content),
			}
		}
		result["history"] = hist
	}

	return result, nil
}
