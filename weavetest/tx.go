package weavetest

import "github.com/iov-one/lockpay"

// Tx represents a single transaction carrying one message.
type Tx struct {
	// Msg is the message that is to be processed by this transaction.
	Msg lockpay.Msg
	// Err if set is returned by any method call.
	Err error
}

var _ lockpay.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (lockpay.Msg, error) {
	return tx.Msg, tx.Err
}

// Msg is a request routed by its path. Its validation result is
// controlled by the Err attribute.
type Msg struct {
	// Path returned by the path method, consumed by the router.
	RoutePath string
	// Err if set is returned by the Validate method.
	Err error
}

var _ lockpay.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Validate() error {
	return m.Err
}
