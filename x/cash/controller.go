package cash

import (
	"math"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/orm"
)

// Controller is the functionality needed by other extensions to move
// funds. It is the only way balances are modified.
type Controller interface {
	// Balance returns the balance of given account. Missing accounts
	// have zero balance.
	Balance(lockpay.ReadOnlyKVStore, lockpay.Address) (uint64, error)

	// MoveCoins moves the given amount from src to dest. If src doesn't
	// exist, or doesn't have sufficient funds, it fails and nothing is
	// changed.
	MoveCoins(db lockpay.KVStore, src, dest lockpay.Address, amount uint64) error

	// IssueCoins adds the given amount to the destination account. Fails
	// if it overflows the balance.
	IssueCoins(db lockpay.KVStore, dest lockpay.Address, amount uint64) error
}

// BaseController is the Controller implementation backed by a wallet bucket.
type BaseController struct {
	bucket orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a basic controller implementation
func NewController(bucket orm.ModelBucket) BaseController {
	return BaseController{bucket: bucket}
}

// Balance returns the balance of given account.
func (c BaseController) Balance(db lockpay.ReadOnlyKVStore, addr lockpay.Address) (uint64, error) {
	w, err := c.load(db, addr)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// MoveCoins moves the given amount from src to dest.
func (c BaseController) MoveCoins(db lockpay.KVStore, src, dest lockpay.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "non-positive amount")
	}
	if err := src.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}

	sender, err := c.load(db, src)
	if err != nil {
		return err
	}
	if sender.Balance < amount {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s has %d, need %d", src, sender.Balance, amount)
	}
	if src.Equals(dest) {
		return nil
	}
	recipient, err := c.load(db, dest)
	if err != nil {
		return err
	}
	if recipient.Balance > math.MaxUint64-amount {
		return errors.Wrapf(errors.ErrOverflow, "balance of %s", dest)
	}

	sender.Balance -= amount
	recipient.Balance += amount
	if err := c.save(db, src, sender); err != nil {
		return err
	}
	return c.save(db, dest, recipient)
}

// IssueCoins attempts to add the given amount of coins to
// the destination address. Fails if it overflows the wallet.
func (c BaseController) IssueCoins(db lockpay.KVStore, dest lockpay.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "non-positive amount")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	w, err := c.load(db, dest)
	if err != nil {
		return err
	}
	if w.Balance > math.MaxUint64-amount {
		return errors.Wrapf(errors.ErrOverflow, "balance of %s", dest)
	}
	w.Balance += amount
	return c.save(db, dest, w)
}

func (c BaseController) load(db lockpay.ReadOnlyKVStore, addr lockpay.Address) (*Wallet, error) {
	var w Wallet
	switch err := c.bucket.One(db, addr, &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return &Wallet{}, nil
	default:
		return nil, errors.Wrapf(err, "wallet %s", addr)
	}
}

// save removes the wallet once it holds nothing.
func (c BaseController) save(db lockpay.KVStore, addr lockpay.Address, w *Wallet) error {
	if w.Balance == 0 {
		err := c.bucket.Delete(db, addr)
		if err != nil && !errors.ErrNotFound.Is(err) {
			return err
		}
		return nil
	}
	return c.bucket.Put(db, addr, w)
}
