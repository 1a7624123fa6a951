package mcp

// toolDefinitions returns the tools/list surface: one entry per
// primitive, generated from the engine's registry metadata plus the
// fixed JSON-Schema shape each primitive's params require, never
// hard-coded independently of the engine.
func (s *Server) toolDefinitions() []Tool {
	metas := s.eng.Metadata()
	schemas := map[string]InputSchema{
		"store":     storeSchema,
		"retrieve":  retrieveSchema,
		"search":    searchSchema,
		"link":      linkSchema,
		"transform": transformSchema,
	}
	perf := map[string]string{
		"store":     "p50 < 1ms",
		"retrieve":  "p50 < 1ms",
		"search":    "p50 < 5ms",
		"link":      "p50 < 1ms",
		"transform": "varies by operation",
	}

	tools := make([]Tool, len(metas))
	for i, m := range metas {
		tools[i] = Tool{
			Name:                m.Name,
			Title:               m.Title,
			Description:         m.Description,
			InputSchema:         schemas[m.Name],
			Performance:         perf[m.Name],
			CompositionExamples: m.CompositionExamples,
		}
	}
	return tools
}

var storeSchema = InputSchema{
	Type: "object",
	Properties: map[string]Property{
		"key":      {Type: "string", Description: "Content-addressed key to write"},
		"value":    {Type: "string", Description: "Value to persist"},
		"metadata": {Type: "object", Description: "Optional provenance metadata merged into _meta:<key>"},
	},
	Required: []string{"key", "value"},
}

var retrieveSchema = InputSchema{
	Type: "object",
	Properties: map[string]Property{
		"key":             {Type: "string", Description: "Key to read"},
		"include_history": {Type: "boolean", Description: "Include the full change history", Default: false},
	},
	Required: []string{"key"},
}

var searchSchema = InputSchema{
	Type: "object",
	Properties: map[string]Property{
		"query":   {Type: "string", Description: "Query text (unused for pure graph/temporal searches)"},
		"type":    {Type: "string", Description: "Index to query", Enum: []string{"semantic", "lexical", "graph", "temporal", "hybrid"}},
		"options": {Type: "object", Description: "Per-type options: max_results, embedding, starting_nodes, max_hops, alpha, beta, gamma, key, start_time, end_time"},
	},
	Required: []string{"type"},
}

var linkSchema = InputSchema{
	Type: "object",
	Properties: map[string]Property{
		"from":     {Type: "string", Description: "Source key"},
		"to":       {Type: "string", Description: "Target key"},
		"relation": {Type: "string", Description: "Edge label"},
		"metadata": {Type: "object", Description: "Optional edge metadata"},
		"options":  {Type: "object", Description: "map_graph: true to include the bounded subgraph rooted at from"},
	},
	Required: []string{"from", "to", "relation"},
}

var transformSchema = InputSchema{
	Type: "object",
	Properties: map[string]Property{
		"operation": {
			Type:        "string",
			Description: "Whitelisted pure transform to run",
			Enum: []string{
				"parse_functions", "extract_imports", "generate_summary", "compress_text",
				"diff_content", "merge_content", "analyze_complexity", "extract_dependencies", "validate_syntax",
			},
		},
		"data":    {Type: "string", Description: "Input data for the operation"},
		"options": {Type: "object", Description: "Per-operation options, e.g. sentences, max_length, other"},
	},
	Required: []string{"operation", "data"},
}
