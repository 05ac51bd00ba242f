package weavetest

import "github.com/iov-one/lockpay"

// Decorator is a counting lockpay.Decorator mock. When CheckErr or
// DeliverErr is set the call fails with it and the next handler is not
// called. Failed calls are counted as well.
type Decorator struct {
	CheckErr   error
	DeliverErr error

	checks   int
	delivers int
}

var _ lockpay.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx, next lockpay.Checker) (*lockpay.CheckResult, error) {
	d.checks++
	if d.CheckErr != nil {
		return &lockpay.CheckResult{}, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx, next lockpay.Deliverer) (*lockpay.DeliverResult, error) {
	d.delivers++
	if d.DeliverErr != nil {
		return &lockpay.DeliverResult{}, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

func (d *Decorator) CheckCallCount() int   { return d.checks }
func (d *Decorator) DeliverCallCount() int { return d.delivers }
func (d *Decorator) CallCount() int        { return d.checks + d.delivers }
