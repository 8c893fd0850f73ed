// Package common provides the data structures shared by the RPC client, the RPC
// server and the command line tools of the lock service.
//
// The package focuses on:
//   - Message protocol definition for client and peer communication
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with Dragonboat's logger package
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication. One flat struct is
//     used for requests, responses and peer-to-peer messages; which fields are set
//     depends on the MessageType. Factory functions create the individual messages.
//
//   - MessageType: Enumeration of all message kinds: access requests and their
//     replies, releases, management requests and their replies, the discovery
//     query and response exchanged between peers, and status requests.
//
//   - ServerConfig: Configuration of a manager node: its ID, peers, hosted resources,
//     transport settings, logging and observability.
//
//   - ClientConfig: Configuration for client components, controlling connection
//     parameters, timeouts, and retry behavior.
//
//   - Logger: Custom logging implementation that plugs into Dragonboat's logger
//     registry and provides consistent formatting across the application.
package common
