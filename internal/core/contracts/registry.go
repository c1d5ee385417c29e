package contracts

// Registry is the process-wide map from user id to that user's single
// live connection. Implementations must be safe for concurrent use and
// must never perform transport I/O while holding their lock.
type Registry interface {
	// Register stores c for userID and returns the handle it replaced, if any.
	// The caller is responsible for closing the replaced handle.
	Register(userID string, c Client) (prev Client)
	// Unregister removes userID only while the stored handle is c.
	Unregister(userID string, c Client) bool
	// Get returns the live handle for userID.
	Get(userID string) (Client, bool)
	// Snapshot returns the ids currently registered.
	Snapshot() []string
	// Clients returns every live handle.
	Clients() []Client
	IsOnline(userID string) bool
}

// Client represents the minimal interface required for the Registry to
// communicate with an individual WebSocket connection.
type Client interface {
	UserID() string
	// Send enqueues data on the connection's outbound queue without
	// waiting for the transport.
	Send(data []byte) error
	Close()
}
