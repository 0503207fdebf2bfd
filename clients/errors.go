package clients

import "fmt"

// ErrorKind classifies adapter failures. Only RPCError is transient and safe
// to retry; every other kind reflects the on-chain state of the transaction
// or a decoding invariant and will not change between attempts.
type ErrorKind string

const (
	// KindNotFound: the RPC returned no transaction for the reference, or no
	// qualifying transfer to the expected recipient was found in it.
	KindNotFound ErrorKind = "not_found"

	// KindRPCError: transient upstream failure (timeout, connection refused,
	// rate limit). Retryable.
	KindRPCError ErrorKind = "rpc_error"

	// KindUnconfirmed: the transaction exists but has no confirmed status yet.
	KindUnconfirmed ErrorKind = "unconfirmed"

	// KindReverted: the transaction executed and failed on-chain.
	KindReverted ErrorKind = "reverted"

	// KindMalformed: the receipt or transaction meta does not match the
	// expected shape (wrong topic count, wrong data width, missing balances).
	KindMalformed ErrorKind = "malformed"
)

// Retryable reports whether a failure of this kind may succeed on retry.
func (k ErrorKind) Retryable() bool {
	return k == KindRPCError
}

// AdapterError is the typed failure returned by chain adapters.
type AdapterError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

func errNotFound(format string, args ...interface{}) *AdapterError {
	return &AdapterError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func errRPC(msg string, err error) *AdapterError {
	return &AdapterError{Kind: KindRPCError, Message: msg, Err: err}
}

func errMalformed(format string, args ...interface{}) *AdapterError {
	return &AdapterError{Kind: KindMalformed, Message: fmt.Sprintf(format, args...)}
}
