package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/agrama/agrama/internal/agerr"
)

// transformPrimitive implements TRANSFORM {operation, data, options?}: a
// pure-function registry with no side effects on the store or indices.
type transformPrimitive struct{}

func (transformPrimitive) Metadata() Metadata {
	return Metadata{
		Name:        "transform",
		Title:       "Transform",
		Description: "Runs a whitelisted pure transform over provided data.",
		CompositionExamples: []string{
			`transform({"operation":"generate_summary","data":"..."})`,
			`transform({"operation":"extract_imports","data":"package main\n\nimport \"fmt\""})`,
		},
	}
}

// transformOps whitelists every recognized operation.
var transformOps = map[string]func(data string, opts map[string]any) (string, error){
	"parse_functions":     parseFunctions,
	"extract_imports":      extractImports,
	"generate_summary":     generateSummary,
	"compress_text":        compressText,
	"diff_content":         diffContent,
	"merge_content":        mergeContent,
	"analyze_complexity":   analyzeComplexity,
	"extract_dependencies": extractDependencies,
	"validate_syntax":      validateSyntax,
}

func (transformPrimitive) Validate(p Params) error {
	op, ok := p["operation"].(string)
	if !ok {
		return agerr.MissingField("operation")
	}
	if _, ok := transformOps[op]; !ok {
		return agerr.UnsupportedOperation(op)
	}
	if _, ok := p["data"].(string); !ok {
		return agerr.MissingField("data")
	}
	return nil
}

func (transformPrimitive) Execute(ctx *Context, p Params) (Value, error) {
	op := p["operation"].(string)
	data := p["data"].(string)
	opts, _ := p["options"].(map[string]any)

	fn := transformOps[op]
	output, err := fn(data, opts)
	if err != nil {
		return nil, err
	}

	return Value{
		"success":     true,
		"operation":   op,
		"input_size":  len(data),
		"output_size": len(output),
		"output":      output,
	}, nil
}

var funcSigRe = regexp.MustCompile(`(?m)^\s*(pub\s+)?(func|fn|function)\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)\s*\(`)

// parseFunctions extracts top-level function declarations from Go, Rust, or
// JavaScript source text, one signature per line in "<keyword> name()" form
// (Rust's "pub" modifier is preserved; Go receivers are dropped from the
// signature).
func parseFunctions(data string, _ map[string]any) (string, error) {
	matches := funcSigRe.FindAllStringSubmatch(data, -1)
	sigs := make([]string, len(matches))
	for i, m := range matches {
		sigs[i] = m[1] + m[2] + " " + m[3] + "()"
	}
	return strings.Join(sigs, "\n"), nil
}

var importRe = regexp.MustCompile(`"([^"]+)"`)

// extractImports pulls quoted import paths out of a Go-like import block.
func extractImports(data string, _ map[string]any) (string, error) {
	start := strings.Index(data, "import")
	if start == -1 {
		return "", nil
	}
	section := data[start:]
	matches := importRe.FindAllStringSubmatch(section, -1)
	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = m[1]
	}
	return strings.Join(paths, "\n"), nil
}

// generateSummary returns the first N sentences of data (default 2),
// splitting on a simple sentence-boundary rule (terminal punctuation
// followed by whitespace).
func generateSummary(data string, opts map[string]any) (string, error) {
	n := optInt(opts, "sentences", 2)
	sentences := splitSentences(data)
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	return strings.Join(sentences, " "), nil
}

// compressText collapses runs of whitespace and truncates to max_length
// (default 200), the cheap complement to generate_summary for content too
// unstructured to summarize by sentence.
func compressText(data string, opts map[string]any) (string, error) {
	maxLen := optInt(opts, "max_length", 200)
	collapsed := strings.Join(strings.Fields(data), " ")
	if len(collapsed) <= maxLen {
		return collapsed, nil
	}
	return collapsed[:maxLen], nil
}

// diffContent returns a line-oriented diff between options.other and
// data: lines present in one but not the other, prefixed +/-.
func diffContent(data string, opts map[string]any) (string, error) {
	other, _ := opts["other"].(string)
	a := strings.Split(data, "\n")
	b := strings.Split(other, "\n")

	aSet := make(map[string]bool, len(a))
	for _, l := range a {
		aSet[l] = true
	}
	bSet := make(map[string]bool, len(b))
	for _, l := range b {
		bSet[l] = true
	}

	var out []string
	for _, l := range a {
		if !bSet[l] {
			out = append(out, "-"+l)
		}
	}
	for _, l := range b {
		if !aSet[l] {
			out = append(out, "+"+l)
		}
	}
	return strings.Join(out, "\n"), nil
}

// mergeContent concatenates data and options.other, deduplicating
// identical lines while preserving first-seen order.
func mergeContent(data string, opts map[string]any) (string, error) {
	other, _ := opts["other"].(string)
	seen := make(map[string]bool)
	var out []string
	for _, l := range append(strings.Split(data, "\n"), strings.Split(other, "\n")...) {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n"), nil
}

// analyzeComplexity reports a crude cyclomatic-complexity proxy: a count
// of branching keywords plus line count, formatted as a small report.
func analyzeComplexity(data string, _ map[string]any) (string, error) {
	branchWords := []string{"if ", "for ", "switch ", "case ", "&&", "||"}
	branches := 0
	for _, w := range branchWords {
		branches += strings.Count(data, w)
	}
	lines := strings.Count(data, "\n") + 1
	return fmt.Sprintf("lines=%d branches=%d estimated_complexity=%d", lines, branches, branches+1), nil
}

// extractDependencies is extractImports under a separate operation name,
// kept distinct because a caller may
// pass non-Go dependency manifests (e.g. a bare list of module paths) that
// extractImports' quoted-string heuristic would miss.
func extractDependencies(data string, opts map[string]any) (string, error) {
	if strings.Contains(data, "import") {
		return extractImports(data, opts)
	}
	var deps []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			deps = append(deps, line)
		}
	}
	sort.Strings(deps)
	return strings.Join(deps, "\n"), nil
}

// validateSyntax does a minimal brace/paren/bracket balance check,
// reporting "ok" or the first imbalance found.
func validateSyntax(data string, _ map[string]any) (string, error) {
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var stack []rune
	for i, r := range data {
		switch r {
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return fmt.Sprintf("unbalanced %q at byte %d", r, i), nil
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) != 0 {
		return fmt.Sprintf("unclosed %q", stack[len(stack)-1]), nil
	}
	return "ok", nil
}

func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder
	runes := []rune(content)
	for i, r := range runes {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i == len(runes)-1 || unicode.IsSpace(runes[i+1]) {
				s := strings.TrimSpace(current.String())
				if s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}
	if rem := strings.TrimSpace(current.String()); rem != "" {
		sentences = append(sentences, rem)
	}
	return sentences
}
