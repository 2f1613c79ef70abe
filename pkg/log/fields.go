package log

// Shared structured field names so log lines stay greppable across packages.
const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Chat
	FieldConnID  = "conn_id"
	FieldRoom    = "room"
	FieldMsgID   = "message_id"
	FieldEvent   = "event"
	FieldReached = "reached"
)
