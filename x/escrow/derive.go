package escrow

import (
	"filippo.io/edwards25519"
	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
)

const (
	// ConditionExt and ConditionType mark conditions derived by this
	// extension.
	ConditionExt  = "escrow"
	ConditionType = "pda"

	maxSeeds   = 16
	maxSeedLen = 32
)

var (
	vaultSeed     = []byte("vault")
	authoritySeed = []byte("vault_authority")

	// ProgramCondition identifies this extension as the owner of the
	// custodian account.
	ProgramCondition = lockpay.NewCondition(ConditionExt, "program", []byte("lockpay"))
)

// Derive finds the derived condition for given seeds. Bump values are
// tried from 255 down to 0 and the first one producing an off curve
// digest is returned together with the condition.
func Derive(seeds ...[]byte) (lockpay.Condition, uint8, error) {
	if err := validateSeeds(seeds); err != nil {
		return nil, 0, err
	}
	for bump := 255; bump >= 0; bump-- {
		c := derivedCondition(uint8(bump), seeds)
		if !onCurve(c) {
			return c, uint8(bump), nil
		}
	}
	return nil, 0, errors.Wrap(errors.ErrInvalidState, "no viable bump")
}

// CreateCondition derives the condition for given seeds using an already
// known bump. It fails if the result lies on the curve, because such a
// condition could be controlled by a private key.
func CreateCondition(bump uint8, seeds ...[]byte) (lockpay.Condition, error) {
	if err := validateSeeds(seeds); err != nil {
		return nil, err
	}
	c := derivedCondition(bump, seeds)
	if onCurve(c) {
		return nil, errors.Wrapf(errors.ErrInvalidState, "bump %d produces an on curve address", bump)
	}
	return c, nil
}

func derivedCondition(bump uint8, seeds [][]byte) lockpay.Condition {
	var data []byte
	for _, s := range seeds {
		data = append(data, s...)
	}
	data = append(data, bump)
	return lockpay.NewCondition(ConditionExt, ConditionType, data)
}

func validateSeeds(seeds [][]byte) error {
	if len(seeds) > maxSeeds {
		return errors.Wrapf(errors.ErrInvalidInput, "too many seeds: %d", len(seeds))
	}
	for i, s := range seeds {
		if len(s) > maxSeedLen {
			return errors.Wrapf(errors.ErrInvalidInput, "seed %d too long", i)
		}
	}
	return nil
}

// onCurve returns true if the digest of the condition decodes to a valid
// ed25519 point.
func onCurve(c lockpay.Condition) bool {
	digest := c.Digest()
	_, err := new(edwards25519.Point).SetBytes(digest[:])
	return err == nil
}

func vaultSeeds(sender, receiver lockpay.Address) [][]byte {
	return [][]byte{vaultSeed, sender, receiver}
}

// VaultAddress returns the address of the vault for given pair and the
// bump that derives it.
func VaultAddress(sender, receiver lockpay.Address) (lockpay.Address, uint8, error) {
	c, bump, err := Derive(vaultSeeds(sender, receiver)...)
	if err != nil {
		return nil, 0, err
	}
	return c.Address(), bump, nil
}

// CustodianAddress returns the address of the custodian and the bump that
// derives it.
func CustodianAddress() (lockpay.Address, uint8, error) {
	c, bump, err := Derive(authoritySeed)
	if err != nil {
		return nil, 0, err
	}
	return c.Address(), bump, nil
}
