// Package logkeys defines some static logging keys for consistent structured logging output.
// Mostly exists as a mental aid when drafting log messages.
package logkeys

const (
	Message = "msg"
	Error   = "err"

	// service object and method names of a dispatch call.
	Object = "object"
	Method = "method"

	// unique ID of a single dispatch call.
	CallID = "call_id"

	// external key of a worklist entry.
	SerialNumber = "serial_number"

	// the identity a connection acts as (after any impersonation).
	User = "user"

	// the user a worklist entry is redirected to.
	TargetUser = "target_user"

	ActionName = "action_name"

	// failure classification of a dispatch call.
	FailureKind = "kind"

	// a context-dependent numerical count/length of something
	GenericCount = "count"
)
