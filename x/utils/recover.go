package utils

import (
	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
)

// Recovery converts a panic raised further down the chain into an
// ErrPanic error tagged with the message path. The panic is logged.
type Recovery struct{}

var _ lockpay.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

func (r Recovery) Check(ctx lockpay.Context, store lockpay.KVStore, tx lockpay.Tx, next lockpay.Checker) (res *lockpay.CheckResult, err error) {
	defer recovered(ctx, tx, &err)
	return next.Check(ctx, store, tx)
}

func (r Recovery) Deliver(ctx lockpay.Context, store lockpay.KVStore, tx lockpay.Tx, next lockpay.Deliverer) (res *lockpay.DeliverResult, err error) {
	defer recovered(ctx, tx, &err)
	return next.Deliver(ctx, store, tx)
}

// recovered must be deferred directly, otherwise recover returns nil.
func recovered(ctx lockpay.Context, tx lockpay.Tx, err *error) {
	p := recover()
	if p == nil {
		return
	}
	path := pathOf(tx)
	lockpay.GetLogger(ctx).Error("panic", "path", path, "reason", p)
	*err = errors.Wrapf(errors.ErrPanic, "%s: %v", path, p)
}
