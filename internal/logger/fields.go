package logger

// Standard field keys for structured logging, kept consistent across NS, SS
// and client so log aggregation can correlate a single transaction across
// all three roles.
const (
	// KeyConnID is the per-connection correlation UUID (never sent on the wire).
	KeyConnID = "conn_id"
	// KeyRole distinguishes which process role emitted the line: ns, ss, client.
	KeyRole = "role"
	// KeyPeer is the remote address of the connection.
	KeyPeer = "peer"
	// KeyUser is the session's registered username.
	KeyUser = "user"
	// KeyVerb is the wire verb being processed (CREATE, READ, SS_UNDO, ...).
	KeyVerb = "verb"
	// KeyFile is the filename an operation targets.
	KeyFile = "file"
	// KeySSEndpoint is the "ip:port" of the storage server involved.
	KeySSEndpoint = "ss_endpoint"
	// KeyErrCode is the wire error code (e.g. 404, 409) attached to a failure.
	KeyErrCode = "err_code"
	// KeyOutcome is a short result tag (ack, error, timeout) for a transaction span.
	KeyOutcome = "outcome"
)
