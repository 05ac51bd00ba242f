package escrow

import (
	"github.com/iov-one/lockpay/errors"
)

// escrow takes 1010-1020
var (
	ErrReceiverMismatch   = errors.Register(1010, "receiver mismatch")
	ErrAmountBelowMinimum = errors.Register(1011, "amount below minimum")
	ErrAlreadyClaimed     = errors.Register(1012, "vault already claimed")
)
