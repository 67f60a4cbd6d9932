package modbus

// Result is the sum-typed outcome of a master transaction: exactly one of
// its fields carries the meaningful outcome, selected by Kind. A plain
// (int, error) pair can't distinguish "the slave replied with exception
// code 2" from "the transport died" from "nothing replied in time" without
// resorting to sentinel values smuggled through the int or the error —
// this type makes the three cases explicit instead.
type Result struct {
	Kind ResultKind

	// Count is valid when Kind == ResultOK: the number of registers/coils
	// read or written, depending on the call.
	Count int

	// Exception is valid when Kind == ResultException: the exception code
	// the slave returned (e.g. ExceptionIllegalDataAddress).
	Exception int

	// Err is valid when Kind == ResultTransportError or ResultFramingError:
	// the underlying error.
	Err error
}

// ResultKind tags which field of a Result carries the outcome.
type ResultKind int

const (
	ResultOK ResultKind = iota
	ResultTimeout
	ResultException
	ResultFramingError
	ResultTransportError
)

func okResult(count int) Result {
	return Result{Kind: ResultOK, Count: count}
}

func timeoutResult() Result {
	return Result{Kind: ResultTimeout}
}

func exceptionResult(code int) Result {
	return Result{Kind: ResultException, Exception: code}
}

func framingErrorResult(err error) Result {
	return Result{Kind: ResultFramingError, Err: err}
}

func transportErrorResult(err error) Result {
	return Result{Kind: ResultTransportError, Err: err}
}

// IsOK reports whether the transaction completed successfully.
func (r Result) IsOK() bool {
	return r.Kind == ResultOK
}
