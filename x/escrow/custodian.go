package escrow

import (
	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/orm"
	"github.com/iov-one/lockpay/x/cash"
)

// Authority is the capability to move funds out of the custodian. It can
// only be obtained through loadAuthority, after the custodian passed the
// ownership and derivation checks.
type Authority struct {
	address lockpay.Address
	bank    cash.Controller
}

// Address returns the custodian address.
func (a *Authority) Address() lockpay.Address {
	return a.address
}

// Transfer moves amount from the custodian to dest. Either the whole
// amount is moved or nothing is.
func (a *Authority) Transfer(db lockpay.KVStore, dest lockpay.Address, amount uint64) error {
	if err := a.bank.MoveCoins(db, a.address, dest, amount); err != nil {
		return errors.Wrap(err, "custodian transfer")
	}
	return nil
}

// loadAuthority checks that the custodian stored under given address is
// the one derived by this extension and owned by it.
func loadAuthority(db lockpay.ReadOnlyKVStore, custodians orm.ModelBucket, bank cash.Controller, addr lockpay.Address) (*Authority, error) {
	var c Custodian
	if err := loadCustodian(db, custodians, addr, &c); err != nil {
		return nil, err
	}
	return &Authority{address: addr, bank: bank}, nil
}

// loadCustodian loads the custodian into dest and validates it. The
// address must be the derived custodian address.
func loadCustodian(db lockpay.ReadOnlyKVStore, custodians orm.ModelBucket, addr lockpay.Address, dest *Custodian) error {
	want, _, err := CustodianAddress()
	if err != nil {
		return err
	}
	if !want.Equals(addr) {
		return errors.Wrapf(errors.ErrInvalidState, "custodian %s is not the derived authority", addr)
	}
	switch err := custodians.One(db, addr, dest); {
	case errors.ErrNotFound.Is(err):
		return errors.Wrap(errors.ErrInvalidState, "custodian does not exist")
	case err != nil:
		return errors.Wrap(err, "cannot load custodian")
	}
	if !dest.Owner.Equals(ProgramCondition.Address()) {
		return errors.Wrapf(errors.ErrInvalidState, "custodian owned by %s", dest.Owner)
	}
	c, err := CreateCondition(dest.Bump, authoritySeed)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidState, "custodian bump")
	}
	if !c.Address().Equals(addr) {
		return errors.Wrap(errors.ErrInvalidState, "custodian bump does not derive its address")
	}
	return nil
}
