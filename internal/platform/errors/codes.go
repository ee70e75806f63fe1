// Package errors provides coded errors shared by the shard components.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Invocation errors
	CodeInvokeUnreachable Code = "INVOKE_UNREACHABLE"
	CodeInvokeRemote      Code = "INVOKE_REMOTE"
	CodeInvokeProtocol    Code = "INVOKE_PROTOCOL"

	// Aggregate errors
	CodeAggregateConflict Code = "AGGREGATE_CONFLICT"
	CodeCommandRejected   Code = "COMMAND_REJECTED"

	// Configuration errors
	CodeConfigInvalid Code = "CONFIG_INVALID"
)

// Retryable reports whether an operation failing with this code may succeed
// on a later tick without operator intervention.
func (c Code) Retryable() bool {
	switch c {
	case CodeInvokeUnreachable, CodeInvokeRemote, CodeAggregateConflict:
		return true
	default:
		return false
	}
}
