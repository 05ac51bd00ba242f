package x

import (
	"context"

	"github.com/iov-one/lockpay"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of
// handlers, so we can plug in another authentication system,
// rather than hard-coding signature checks for all extensions.
type Authenticator interface {
	// GetConditions reveals all Conditions fulfilled,
	// you may want GetAddresses helper
	GetConditions(lockpay.Context) []lockpay.Condition
	// HasAddress checks if any condition matches this address
	HasAddress(lockpay.Context, lockpay.Address) bool
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all Conditions from all Authenticators
func (m MultiAuth) GetConditions(ctx lockpay.Context) []lockpay.Condition {
	var res []lockpay.Condition
	for _, impl := range m.impls {
		add := impl.GetConditions(ctx)
		if len(add) > 0 {
			res = append(res, add...)
		}
	}
	return res
}

// HasAddress returns true iff any Authenticator support this
func (m MultiAuth) HasAddress(ctx lockpay.Context, addr lockpay.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// GetAddresses wraps the GetConditions method of any Authenticator
func GetAddresses(ctx lockpay.Context, auth Authenticator) []lockpay.Address {
	perms := auth.GetConditions(ctx)
	addrs := make([]lockpay.Address, len(perms))
	for i, p := range perms {
		addrs[i] = p.Address()
	}
	return addrs
}

// MainSigner returns the first permission if any, otherwise nil
func MainSigner(ctx lockpay.Context, auth Authenticator) lockpay.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// HasAllAddresses returns true if all elements in required are
// also in context.
func HasAllAddresses(ctx lockpay.Context, auth Authenticator, required []lockpay.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}

type contextKey int

const contextKeySigners contextKey = iota

// WithSigners returns a context carrying the signers verified by the host.
// Only the component that verified signatures may call it. Conditions
// already present in the context are replaced.
func WithSigners(ctx lockpay.Context, signers ...lockpay.Condition) lockpay.Context {
	copied := make([]lockpay.Condition, len(signers))
	copy(copied, signers)
	return context.WithValue(ctx, contextKeySigners, copied)
}

// ContextAuth authenticates the signers stored in the context with
// WithSigners.
type ContextAuth struct{}

var _ Authenticator = ContextAuth{}

// GetConditions returns the signers stored in the context. It may be empty.
func (ContextAuth) GetConditions(ctx lockpay.Context) []lockpay.Condition {
	val, _ := ctx.Value(contextKeySigners).([]lockpay.Condition)
	return val
}

// HasAddress returns true if any of the context signers has given address.
func (a ContextAuth) HasAddress(ctx lockpay.Context, addr lockpay.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
