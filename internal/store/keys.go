package store

import "strings"

// Reserved key prefixes used to namespace internal bookkeeping keys
// (link edges, metadata, operation logs) away from caller-supplied keys.
const (
	MetaPrefix = "_meta:"
	LinkPrefix = "_link:"
	OpsPrefix  = "_ops:"
)

// MetaKey builds the provenance sidecar key for key.
func MetaKey(key string) string {
	return MetaPrefix + key
}

// LinkKey builds the link-record key for a directed, labeled edge.
func LinkKey(from, rel, to string) string {
	return LinkPrefix + from + ":" + rel + ":" + to
}

// OpsKey builds an operation-log key.
func OpsKey(ts, op, agentID string) string {
	return OpsPrefix + ts + ":" + op + ":" + agentID
}

// ParseLinkKey extracts (from, rel, to) from a link key, reporting ok=false
// if key is not a well-formed _link: key. Relation and endpoint values
// themselves must not contain ':', which callers enforce at LINK validation
// time.
func ParseLinkKey(key string) (from, rel, to string, ok bool) {
	if !strings.HasPrefix(key, LinkPrefix) {
		return "", "", "", false
	}
	rest := key[len(LinkPrefix):]
	parts := strings.SplitN(rest, ":", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// IsReserved reports whether key falls under one of the reserved
// namespaces and so should not be directly writable via STORE.
func IsReserved(key string) bool {
	return strings.HasPrefix(key, MetaPrefix) ||
		strings.HasPrefix(key, LinkPrefix) ||
		strings.HasPrefix(key, OpsPrefix)
}
