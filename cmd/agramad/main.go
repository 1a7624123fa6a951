// Command agramad runs the Agrama temporal knowledge-graph substrate as
// an MCP server, with optional HTTP and metrics-export transports.
package main

func main() {
	Execute()
}
