package weavetest

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/crypto"
	"github.com/stellar/go/exp/crypto/derivation"
)

// NewKey returns a random ed25519 private key.
func NewKey() crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns a signature condition of a random key.
func NewCondition() lockpay.Condition {
	return NewKey().PublicKey().Condition()
}

// RandomAddr returns the address of a random signature condition.
func RandomAddr(t testing.TB) lockpay.Address {
	t.Helper()
	addr := NewCondition().Address()
	if err := addr.Validate(); err != nil {
		t.Fatalf("invalid address: %s", err)
	}
	return addr
}

// SeedKey derives a deterministic key for given index. The same index
// always produces the same key, so tests can refer to well known signers.
func SeedKey(t testing.TB, index uint32) crypto.PrivateKey {
	t.Helper()
	seed := sha256.Sum256([]byte("lockpay test seed"))
	path := fmt.Sprintf("m/44'/234'/%d'", index)
	k, err := derivation.DeriveForPath(path, seed[:])
	if err != nil {
		t.Fatalf("cannot derive key using path=%q: %s", path, err)
	}
	return crypto.PrivKeyEd25519FromSeed(k.Key)
}

// SeedCondition returns the signature condition of the key derived for
// given index.
func SeedCondition(t testing.TB, index uint32) lockpay.Condition {
	t.Helper()
	return SeedKey(t, index).PublicKey().Condition()
}
