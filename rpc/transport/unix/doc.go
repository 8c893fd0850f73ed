// Package unix implements the Unix domain socket transport for the lock manager's
// RPC system. It is meant for clients running on the same machine as their manager
// node, e.g. a local agent that acquires locks on behalf of scripts.
//
// The package only provides the connectors; connection handling, framing and
// request correlation come from the base package. Listen removes a stale socket
// file left behind by a previous run before binding.
package unix
