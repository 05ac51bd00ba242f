package escrow

import (
	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/x/cash"
)

// LoadVault returns the live vault of given pair together with its
// address. It returns ErrNotFound if the pair has no live vault.
func LoadVault(db lockpay.ReadOnlyKVStore, sender, receiver lockpay.Address) (lockpay.Address, *Vault, error) {
	addr, _, err := VaultAddress(sender, receiver)
	if err != nil {
		return nil, nil, err
	}
	var v Vault
	if err := NewVaultBucket().One(db, addr, &v); err != nil {
		return nil, nil, err
	}
	return addr, &v, nil
}

// ForEachVault calls fn for every live vault, ordered by the vault
// address. Iteration stops at the first error returned by fn.
func ForEachVault(db lockpay.ReadOnlyKVStore, fn func(addr lockpay.Address, v *Vault) error) error {
	var v Vault
	return NewVaultBucket().ForEach(db, &v, func(key []byte) error {
		c := v
		return fn(lockpay.Address(key).Clone(), &c)
	})
}

// Audit is the result of comparing the vaults with the custodian balance.
type Audit struct {
	Vaults  int    `json:"vaults"`
	Locked  uint64 `json:"locked"`
	Balance uint64 `json:"balance"`
	Reserve uint64 `json:"reserve"`
}

// Solvent returns true if the custodian holds exactly its reserve and
// the funds locked by live vaults.
func (a Audit) Solvent() bool {
	return a.Balance >= a.Reserve && a.Balance-a.Reserve == a.Locked
}

// RunAudit sums the amounts of all live vaults and reads the custodian
// balance. Before the first vault is created there is no custodian and
// the audit is empty.
func RunAudit(db lockpay.ReadOnlyKVStore, bank cash.Controller) (*Audit, error) {
	var a Audit
	err := ForEachVault(db, func(_ lockpay.Address, v *Vault) error {
		next, err := add(a.Locked, v.Amount)
		if err != nil {
			return err
		}
		a.Locked = next
		a.Vaults++
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "vaults")
	}

	addr, _, err := CustodianAddress()
	if err != nil {
		return nil, err
	}
	custodians := NewCustodianBucket()
	switch err := custodians.Has(db, addr); {
	case err == nil:
		var c Custodian
		if err := loadCustodian(db, custodians, addr, &c); err != nil {
			return nil, err
		}
		a.Reserve = c.Reserve
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	if a.Balance, err = bank.Balance(db, addr); err != nil {
		return nil, errors.Wrap(err, "custodian balance")
	}
	return &a, nil
}
