// Package cmd implements the command-line interface of dLock. It provides a
// hierarchical command structure with operations for running a manager node and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: starts a manager node (peers, hosted resources, metrics, audit log)
//   - lock: access operations (acquire, release) and the node status
//   - manage: administrative operations (enable, disable)
//   - audit: reading the persistent audit log of a stopped node
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set through an environment variable with the prefix DLOCK,
// e.g. DLOCK_NODE_ID or DLOCK_TRANSPORT_ENDPOINTS. Variables are also read from
// .env and .env.local in the working directory.
//
// See dlock -help for a list of all commands.
package cmd
