package lattice

import "strings"

// DefaultNamespace is the bus namespace decision units listen under.
const DefaultNamespace = "wasmbus"

// RPCSubject returns the request subject for an actor key:
// "<namespace>.rpc.<prefix>.<key>", with an empty prefix read as "default".
func RPCSubject(namespace, prefix, key string) string {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "default"
	}
	return namespace + ".rpc." + prefix + "." + key
}
