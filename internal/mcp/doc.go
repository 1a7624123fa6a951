// Package mcp implements a Model Context Protocol server.
//
// Line-delimited JSON-RPC 2.0 over stdio, exposing the primitive engine's
// five tools (store, retrieve, search, link, transform) generated from
// its registry rather than hard-coded here.
package mcp
