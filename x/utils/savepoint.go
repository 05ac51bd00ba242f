package utils

import (
	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
)

// Savepoint runs the rest of the chain in a cache wrap. The wrap is
// written only if the chain succeeds, so a failed settlement never
// leaves a half updated vault behind.
//
// A savepoint does nothing unless enabled with OnCheck or OnDeliver.
type Savepoint struct {
	onCheck   bool
	onDeliver bool
}

var _ lockpay.Decorator = Savepoint{}

func NewSavepoint() Savepoint {
	return Savepoint{}
}

// OnCheck enables the savepoint for Check.
func (s Savepoint) OnCheck() Savepoint {
	s.onCheck = true
	return s
}

// OnDeliver enables the savepoint for Deliver.
func (s Savepoint) OnDeliver() Savepoint {
	s.onDeliver = true
	return s
}

func (s Savepoint) Check(ctx lockpay.Context, store lockpay.KVStore, tx lockpay.Tx, next lockpay.Checker) (res *lockpay.CheckResult, err error) {
	if !s.onCheck {
		return next.Check(ctx, store, tx)
	}
	err = isolate(store, func(db lockpay.KVStore) error {
		res, err = next.Check(ctx, db, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s Savepoint) Deliver(ctx lockpay.Context, store lockpay.KVStore, tx lockpay.Tx, next lockpay.Deliverer) (res *lockpay.DeliverResult, err error) {
	if !s.onDeliver {
		return next.Deliver(ctx, store, tx)
	}
	err = isolate(store, func(db lockpay.KVStore) error {
		res, err = next.Deliver(ctx, db, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// isolate calls fn with a cache wrap of store and writes the wrap back
// when fn succeeds. Stores that cannot be wrapped are passed through.
func isolate(store lockpay.KVStore, fn func(lockpay.KVStore) error) error {
	cstore, ok := store.(lockpay.CacheableKVStore)
	if !ok {
		return fn(store)
	}
	cache := cstore.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "writing savepoint")
	}
	return nil
}
