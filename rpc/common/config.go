package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Transport configuration
// --------------------------------------------------------------------------

// SocketConf holds socket options shared by stream transports
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int // 0 keeps the system default
}

// ServerTransportConfig configures the server side of a transport
type ServerTransportConfig struct {
	SocketConf
	TCPConf

	// Endpoint is the listen address (host:port or socket path)
	Endpoint string
	// WorkersPerConn limits the requests processed concurrently per connection
	WorkersPerConn int
	// BufferSize is the size of the pooled read buffers
	BufferSize int
}

// ClientTransportConfig configures the client side of a transport
type ClientTransportConfig struct {
	SocketConf
	TCPConf

	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// PeerConfig identifies another manager node
type PeerConfig struct {
	ID       string
	Endpoint string
}

// ServerConfig holds all configuration parameters of a manager node
type ServerConfig struct {
	// Node identity and cluster
	NodeID    string
	Peers     []PeerConfig
	Resources []string
	Users     []string

	// Timeout of a single peer send and of idle client connections
	TimeoutSecond int64

	// Logging configuration
	LogLevel string

	// Observability (empty disables)
	MetricsEndpoint string
	AuditDir        string

	// Transport settings
	Transport ServerTransportConfig
}

// PeerClientConfig returns the client configuration used to talk to one peer.
// Peer sends are retried by the caller, so the transport tries only once.
func (c *ServerConfig) PeerClientConfig(peer PeerConfig) ClientConfig {
	return ClientConfig{
		TimeoutSecond: int(c.TimeoutSecond),
		Transport: ClientTransportConfig{
			SocketConf:             c.Transport.SocketConf,
			TCPConf:                c.Transport.TCPConf,
			Endpoints:              []string{peer.Endpoint},
			RetryCount:             1,
			ConnectionsPerEndpoint: 1,
		},
	}
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	orNone := func(s string) string {
		if s == "" {
			return "(disabled)"
		}
		return s
	}

	// Node identity
	addSection("Node")
	addField("Node ID", c.NodeID)
	addField("Resources", strings.Join(c.Resources, ", "))
	addField("Users", strings.Join(c.Users, ", "))

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers Per Conn", strconv.Itoa(c.Transport.WorkersPerConn))
	addField("Buffer Size", strconv.Itoa(c.Transport.BufferSize))
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))

	// Logging and observability
	addSection("Logging")
	addField("Log Level", c.LogLevel)
	addField("Metrics Endpoint", orNone(c.MetricsEndpoint))
	addField("Audit Directory", orNone(c.AuditDir))

	// Peers
	addSection("Peers")
	if len(c.Peers) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, p := range c.Peers {
		addField(p.ID, p.Endpoint)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	TimeoutSecond int
	Transport     ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(max(1, c.Transport.ConnectionsPerEndpoint)))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
