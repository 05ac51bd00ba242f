/*
Package errors implements the error handling used by all lockpay packages.

Every error returned to a client wraps one of the root errors registered in
this package (or registered by an extension with Register). A root error
carries a stable numeric code, so clients can act on the kind of the
failure without parsing messages.

Create errors at the point of failure with ErrXyz.New("...") or
Wrap(err, "...") so that a stack trace is attached. Wrapping multiple times
records the stack trace only once.

Test for a kind of error with the Is method:

	if errors.ErrNotFound.Is(err) {
		...
	}

The stack trace recorded at the point of creation can be read with
StackTrace.
*/
package errors
