package engine

import (
	"time"

	"github.com/agrama/agrama/internal/hybrid"
	"github.com/agrama/agrama/internal/lexical"
	"github.com/agrama/agrama/internal/monitor"
	"github.com/agrama/agrama/internal/poolmem"
	"github.com/agrama/agrama/internal/semantic"
	"github.com/agrama/agrama/internal/store"
)

// Config configures an Engine at construction.
type Config struct {
	MaxHistoryPerKey int
	IdleSessionAfter time.Duration

	CacheEnabled bool
	CacheMaxSize int

	SemanticParams semantic.Params
	LexicalParams  lexical.Params

	AlertThresholds monitor.Thresholds

	Clock func() time.Time
}

// Engine wires the temporal store, the three sub-indices, the hybrid
// fusion layer, the memory-pool substrate, and agent sessions into a
// single validated-dispatch surface for the five primitives.
type Engine struct {
	store    *store.Store
	semantic *semantic.Index
	lexical  *lexical.Index
	hybrid   *hybrid.Engine
	arenas   *poolmem.ArenaManager

	sessions *sessionStore
	cache    *resultCache
	clock    func() time.Time
	monitor  *monitor.Monitor

	primitives map[PrimitiveKind]Primitive
}

// New builds an Engine from Config. Only the semantic dimension is
// required to be set via SemanticParams.Dim; every other field has a
// workable default.
func New(cfg Config) (*Engine, error) {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	s := store.New(
		store.WithMaxHistoryPerKey(cfg.MaxHistoryPerKey),
		store.WithClock(cfg.Clock),
	)

	sem, err := semantic.New(cfg.SemanticParams)
	if err != nil {
		return nil, err
	}

	lex := lexical.New(cfg.LexicalParams)
	hyb := hybrid.New(lex, sem, s)
	arenas := poolmem.NewArenaManager()

	e := &Engine{
		store:    s,
		semantic: sem,
		lexical:  lex,
		hybrid:   hyb,
		arenas:   arenas,
		sessions: newSessionStore(cfg.IdleSessionAfter),
		cache:    newResultCache(cfg.CacheEnabled, cfg.CacheMaxSize),
		clock:    cfg.Clock,
	}

	thresholds := cfg.AlertThresholds
	if thresholds == (monitor.Thresholds{}) {
		thresholds = monitor.DefaultThresholds()
	}
	e.monitor = monitor.New(
		monitor.WithClock(cfg.Clock),
		monitor.WithThresholds(thresholds),
		monitor.WithPoolStats(func() (int64, int64, int64) {
			stats := sem.PoolStats()
			blockBytes := int64(cfg.SemanticParams.Dim) * 4 // float32 per dimension
			return stats.Current * blockBytes, stats.Peak * blockBytes, arenas.OverheadSaved()
		}),
	)

	e.primitives = map[PrimitiveKind]Primitive{
		KindStore:     storePrimitive{},
		KindRetrieve:  retrievePrimitive{},
		KindSearch:    searchPrimitive{},
		KindLink:      linkPrimitive{},
		KindTransform: transformPrimitive{},
	}

	return e, nil
}

// Store exposes the underlying temporal store, e.g. for snapshot/restore
// wiring at process start.
func (e *Engine) Store() *store.Store { return e.store }

// Monitor exposes the engine's performance monitor, e.g. for the optional
// HTTP metrics export.
func (e *Engine) Monitor() *monitor.Monitor { return e.monitor }

// Call validates then executes one primitive on behalf of agentID,
// returning the primitive's Value plus wall-clock execution time in
// milliseconds. A validation failure never reaches execute. Cache hits
// bypass execute entirely for cacheable primitives.
func (e *Engine) Call(kind PrimitiveKind, agentID string, params Params) (Value, float64, error) {
	prim, ok := e.primitives[kind]
	if !ok {
		return nil, 0, nil
	}

	if err := prim.Validate(params); err != nil {
		return nil, 0, err
	}

	start := e.clock()

	var key string
	if cacheable[kind] && e.cache.enabled {
		key = fingerprint(kind, params, agentID)
		if cached, ok := e.cache.get(key); ok {
			elapsed := e.clock().Sub(start)
			e.sessions.touch(agentID, kind, e.clock())
			e.monitor.Record(kind.String(), elapsed, false)
			return cached, elapsed.Seconds() * 1000, nil
		}
	}

	arena := e.arenas.Acquire("primitive")
	defer arena.Release()

	ctx := &Context{
		Arena:     arena,
		Store:     e.store,
		Semantic:  e.semantic,
		Lexical:   e.lexical,
		Hybrid:    e.hybrid,
		AgentID:   agentID,
		SessionID: agentID,
		Now:       e.clock(),
	}

	result, err := prim.Execute(ctx, params)
	elapsed := e.clock().Sub(start)
	elapsedMs := elapsed.Seconds() * 1000

	e.sessions.touch(agentID, kind, e.clock())
	e.monitor.Record(kind.String(), elapsed, err != nil)

	if err != nil {
		return nil, elapsedMs, err
	}

	if cacheable[kind] && e.cache.enabled {
		e.cache.put(key, result)
	}

	result["execution_time_ms"] = elapsedMs
	return result, elapsedMs, nil
}

// BatchItem is one call within a Batch request.
type BatchItem struct {
	Kind    PrimitiveKind
	Params  Params
}

// BatchResult is one item's outcome: at most one of Value/Err is set.
type BatchResult struct {
	Value Value
	Err   error
}

// Batch executes each item sequentially, never aborting on a per-item
// failure; the i-th result corresponds to the i-th item.
func (e *Engine) Batch(agentID string, items []BatchItem) []BatchResult {
	out := make([]BatchResult, len(items))
	for i, it := range items {
		v, _, err := e.Call(it.Kind, agentID, it.Params)
		out[i] = BatchResult{Value: v, Err: err}
	}
	return out
}

// MaintenanceReport summarizes one maintenance tick.
type MaintenanceReport struct {
	IdleSessionsSwept int
	ArenaOverheadSaved int64
}

// Maintenance sweeps idle sessions and reports pool reuse. The engine does
// not schedule it; callers invoke it themselves. It never prunes the
// cache beyond its own size bound, which resultCache.put already
// enforces on every write.
func (e *Engine) Maintenance() MaintenanceReport {
	swept := e.sessions.sweepIdle(e.clock())
	return MaintenanceReport{
		IdleSessionsSwept:  swept,
		ArenaOverheadSaved: e.arenas.OverheadSaved(),
	}
}

// SessionCount reports the number of tracked agent sessions.
func (e *Engine) SessionCount() int { return e.sessions.count() }

// Session returns the current record for agentID, if any.
func (e *Engine) Session(agentID string) (Session, bool) { return e.sessions.get(agentID) }

// SessionStats reports every tracked agent's call counts and idle time, for
// a SEARCH-adjacent stats surface rather than a sixth primitive.
func (e *Engine) SessionStats() []SessionStat {
	return e.sessions.all(e.clock())
}

// Metadata returns every primitive's registry metadata, in a fixed order,
// for the MCP tools/list surface.
func (e *Engine) Metadata() []Metadata {
	order := []PrimitiveKind{KindStore, KindRetrieve, KindSearch, KindLink, KindTransform}
	out := make([]Metadata, len(order))
	for i, k := range order {
		out[i] = e.primitives[k].Metadata()
	}
	return out
}
