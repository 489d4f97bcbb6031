package errors

import "fmt"

var (
	// Transport failures against the backend bus.
	ErrConnection = fmt.Errorf("backend endpoint unreachable")
	ErrTimeout    = fmt.Errorf("exchange deadline exceeded")
	ErrDelivery   = fmt.Errorf("push delivery failed")

	// Registry misuse. These indicate a broken caller, not a user mistake.
	ErrDuplicateSession = fmt.Errorf("session already registered")
	ErrUnknownSession   = fmt.Errorf("unknown session")

	ErrSinkFull   = fmt.Errorf("session buffer full")
	ErrSinkClosed = fmt.Errorf("session sink closed")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)
