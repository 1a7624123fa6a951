// Package engine implements the primitive engine: validated,
// arena-scoped dispatch of the five primitives (store, retrieve, search,
// link, transform) over the temporal store and triple-hybrid search
// layer, plus session tracking and an optional result cache.
//
// Primitives follow a validate-then-execute call shape, dispatched through
// a PrimitiveKind-keyed map of the fixed five Primitive implementations
// built once in New, rather than a map[string]func registry open to
// arbitrary string keys: PrimitiveKind is a closed enum, so an unknown
// kind can only arise from ParseKind, never from a typo in a registered
// name.
package engine

import (
	"time"

	"github.com/agrama/agrama/internal/hybrid"
	"github.com/agrama/agrama/internal/lexical"
	"github.com/agrama/agrama/internal/poolmem"
	"github.com/agrama/agrama/internal/semantic"
	"github.com/agrama/agrama/internal/store"
)

// PrimitiveKind tags each of the five primitives. Dispatch in Engine.Call
// is a lookup in a map keyed by this type, not a string-keyed function map.
type PrimitiveKind int

const (
	KindStore PrimitiveKind = iota
	KindRetrieve
	KindSearch
	KindLink
	KindTransform
)

// String renders a PrimitiveKind as its wire name.
func (k PrimitiveKind) String() string {
	switch k {
	case KindStore:
		return "store"
	case KindRetrieve:
		return "retrieve"
	case KindSearch:
		return "search"
	case KindLink:
		return "link"
	case KindTransform:
		return "transform"
	default:
		return "unknown"
	}
}

// ParseKind maps a wire tool name to a PrimitiveKind. ok is false for any
// unrecognized name.
func ParseKind(name string) (PrimitiveKind, bool) {
	switch name {
	case "store":
		return KindStore, true
	case "retrieve":
		return KindRetrieve, true
	case "search":
		return KindSearch, true
	case "link":
		return KindLink, true
	case "transform":
		return KindTransform, true
	default:
		return 0, false
	}
}

// Params is the decoded JSON object passed to a primitive.
type Params map[string]any

// Value is the decoded JSON object a primitive returns on success.
type Value map[string]any

// Context carries everything a primitive's execute step may touch:
// allocator, indices, and caller identity. The engine constructs one per
// call and never shares it across goroutines.
type Context struct {
	Arena    *poolmem.Arena
	Store    *store.Store
	Semantic *semantic.Index
	Lexical  *lexical.Index
	Hybrid   *hybrid.Engine

	AgentID   string
	SessionID string
	Now       time.Time
}

// Metadata describes a primitive for the MCP tools/list surface, not for
// engine dispatch itself.
type Metadata struct {
	Name                 string
	Title                string
	Description          string
	CompositionExamples  []string
}

// Primitive is the validate/execute/metadata contract every primitive
// implements. The engine only calls Execute on a call that Validate
// already accepted.
type Primitive interface {
	Validate(p Params) error
	Execute(ctx *Context, p Params) (Value, error)
	Metadata() Metadata
}
