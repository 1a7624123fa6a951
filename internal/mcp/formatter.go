package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agrama/agrama/internal/agerr"
	"github.com/agrama/agrama/internal/engine"
)

// Formatter renders a primitive's raw Value into the text content block
// returned to MCP clients: a short human-readable summary line followed
// by the full JSON result, so a client can act on either.
type Formatter struct{}

// NewFormatter creates a new formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatResult renders a successful primitive result.
func (f *Formatter) FormatResult(toolName string, result engine.Value) string {
	var sb strings.Builder
	sb.WriteString(f.summary(toolName, result))
	sb.WriteString("\n\n")
	sb.WriteString(f.rawJSON(result))
	return sb.String()
}

// FormatError renders a failed primitive call.
func (f *Formatter) FormatError(toolName string, err error) string {
	if e := agerr.As(err); e != nil {
		return fmt.Sprintf("%s failed: [%s] %s", toolName, e.Code, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", toolName, err.Error())
}

func (f *Formatter) summary(toolName string, result engine.Value) string {
	switch toolName {
	case "store":
		return fmt.Sprintf("stored %v (indexed=%v)", result["key"], result["indexed"])
	case "retrieve":
		if exists, _ := result["exists"].(bool); !exists {
			return fmt.Sprintf("no value for %v", result["key"])
		}
		return fmt.Sprintf("retrieved %v", result["key"])
	case "search":
		return fmt.Sprintf("%v search for %q returned %v result(s)", result["type"], result["query"], result["count"])
	case "link":
		return fmt.Sprintf("linked %v --%v--> %v", result["from"], result["relation"], result["to"])
	case "transform":
		return fmt.Sprintf("%v: %v bytes -> %v bytes", result["operation"], result["input_size"], result["output_size"])
	default:
		return toolName
	}
}

func (f *Formatter) rawJSON(result engine.Value) string {
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return "```json\n" + string(b) + "\n```"
}
