package escrow

import (
	"context"
	"math/rand"
	"testing"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/store"
	"github.com/iov-one/lockpay/weavetest"
	"github.com/iov-one/lockpay/x/cash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	minAmount = 20000000
	deposit   = 1461600
	reserve   = 890880
)

type routes map[string]lockpay.Handler

func (r routes) Handle(path string, h lockpay.Handler) {
	r[path] = h
}

type fixture struct {
	t      *testing.T
	db     lockpay.CacheableKVStore
	bank   cash.Controller
	auth   *weavetest.Auth
	routes routes
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		t:      t,
		db:     store.MemStore(),
		bank:   cash.NewController(cash.NewBucket()),
		auth:   &weavetest.Auth{},
		routes: make(routes),
	}
	RegisterRoutes(f.routes, f.auth, f.bank)
	return f
}

func (f *fixture) fund(addr lockpay.Address, amount uint64) {
	f.t.Helper()
	require.NoError(f.t, f.bank.IssueCoins(f.db, addr, amount))
}

func (f *fixture) balance(addr lockpay.Address) uint64 {
	f.t.Helper()
	b, err := f.bank.Balance(f.db, addr)
	require.NoError(f.t, err)
	return b
}

// deliver checks and delivers msg signed by signer. State changes are
// written only if both succeed.
func (f *fixture) deliver(signer lockpay.Condition, msg lockpay.Msg) (*lockpay.DeliverResult, error) {
	f.auth.Signer = signer
	h, ok := f.routes[msg.Path()]
	require.True(f.t, ok, "no handler for %s", msg.Path())

	ctx := context.Background()
	tx := &weavetest.Tx{Msg: msg}

	check := f.db.CacheWrap()
	_, err := h.Check(ctx, check, tx)
	check.Discard()
	if err != nil {
		return nil, err
	}

	cache := f.db.CacheWrap()
	res, err := h.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	require.NoError(f.t, cache.Write())
	return res, nil
}

func (f *fixture) claimMsg(s, r lockpay.Address) *ClaimMsg {
	msg, err := NewClaimMsg(s, r)
	require.NoError(f.t, err)
	return msg
}

func (f *fixture) cancelMsg(s, r lockpay.Address) *CancelMsg {
	msg, err := NewCancelMsg(s, r)
	require.NoError(f.t, err)
	return msg
}

func (f *fixture) assertSolvent() {
	f.t.Helper()
	a, err := RunAudit(f.db, f.bank)
	require.NoError(f.t, err)
	assert.True(f.t, a.Solvent(), "custodian %d, reserve %d, locked %d", a.Balance, a.Reserve, a.Locked)
}

func custodianAddr(t *testing.T) lockpay.Address {
	addr, _, err := CustodianAddress()
	require.NoError(t, err)
	return addr
}

func TestInitializeThenClaim(t *testing.T) {
	f := newFixture(t)
	s := weavetest.SeedCondition(t, 1)
	r := weavetest.SeedCondition(t, 2)
	f.fund(s.Address(), 100000000)
	custodian := custodianAddr(t)
	amount := uint64(minAmount + 1)

	res, err := f.deliver(s, NewInitializeMsg(r.Address(), amount))
	require.NoError(t, err)
	vault, _, err := VaultAddress(s.Address(), r.Address())
	require.NoError(t, err)
	assert.Equal(t, []byte(vault), res.Data)

	assert.Equal(t, uint64(reserve+amount), f.balance(custodian))
	assert.Equal(t, uint64(deposit), f.balance(vault))
	assert.Equal(t, uint64(100000000-amount-deposit-reserve), f.balance(s.Address()))
	f.assertSolvent()

	_, stored, err := LoadVault(f.db, s.Address(), r.Address())
	require.NoError(t, err)
	assert.Equal(t, amount, stored.Amount)
	assert.False(t, stored.Claimed)

	_, err = f.deliver(r, f.claimMsg(s.Address(), r.Address()))
	require.NoError(t, err)

	assert.Equal(t, amount, f.balance(r.Address()))
	assert.Equal(t, uint64(reserve), f.balance(custodian))
	assert.Equal(t, uint64(0), f.balance(vault))
	assert.Equal(t, uint64(100000000-amount-reserve), f.balance(s.Address()))
	f.assertSolvent()

	_, _, err = LoadVault(f.db, s.Address(), r.Address())
	assert.True(t, errors.ErrNotFound.Is(err), "%+v", err)

	// The vault is gone, nothing can be settled twice.
	_, err = f.deliver(r, f.claimMsg(s.Address(), r.Address()))
	assert.True(t, errors.ErrNotFound.Is(err), "%+v", err)
	_, err = f.deliver(s, f.cancelMsg(s.Address(), r.Address()))
	assert.True(t, errors.ErrNotFound.Is(err), "%+v", err)
	assert.Equal(t, amount, f.balance(r.Address()))
	f.assertSolvent()
}

func TestInitializeThenCancel(t *testing.T) {
	f := newFixture(t)
	s := weavetest.SeedCondition(t, 1)
	r := weavetest.SeedCondition(t, 2)
	f.fund(s.Address(), 100000000)
	f.fund(r.Address(), 5)
	amount := uint64(30000000)

	_, err := f.deliver(s, NewInitializeMsg(r.Address(), amount))
	require.NoError(t, err)
	_, err = f.deliver(s, f.cancelMsg(s.Address(), r.Address()))
	require.NoError(t, err)

	// Only the custodian reserve is not returned.
	assert.Equal(t, uint64(100000000-reserve), f.balance(s.Address()))
	assert.Equal(t, uint64(5), f.balance(r.Address()))
	f.assertSolvent()

	_, err = f.deliver(r, f.claimMsg(s.Address(), r.Address()))
	assert.True(t, errors.ErrNotFound.Is(err), "%+v", err)
}

func TestReinitializeAfterSettlement(t *testing.T) {
	f := newFixture(t)
	s := weavetest.SeedCondition(t, 1)
	r := weavetest.SeedCondition(t, 2)
	f.fund(s.Address(), 100000000)

	_, err := f.deliver(s, NewInitializeMsg(r.Address(), minAmount))
	require.NoError(t, err)
	_, err = f.deliver(s, NewInitializeMsg(r.Address(), minAmount))
	require.True(t, errors.ErrDuplicate.Is(err), "%+v", err)

	_, err = f.deliver(s, f.cancelMsg(s.Address(), r.Address()))
	require.NoError(t, err)

	// The custodian exists already, so no reserve is charged again.
	before := f.balance(s.Address())
	_, err = f.deliver(s, NewInitializeMsg(r.Address(), minAmount))
	require.NoError(t, err)
	assert.Equal(t, before-minAmount-deposit, f.balance(s.Address()))
	f.assertSolvent()
}

func TestCheckDoesNotModifyState(t *testing.T) {
	f := newFixture(t)
	s := weavetest.SeedCondition(t, 1)
	r := weavetest.SeedCondition(t, 2)
	f.fund(s.Address(), 100000000)

	h := f.routes[pathInitializeMsg]
	f.auth.Signer = s
	tx := &weavetest.Tx{Msg: NewInitializeMsg(r.Address(), minAmount)}
	_, err := h.Check(context.Background(), f.db, tx)
	require.NoError(t, err)

	assert.Equal(t, uint64(100000000), f.balance(s.Address()))
	_, _, err = LoadVault(f.db, s.Address(), r.Address())
	assert.True(t, errors.ErrNotFound.Is(err), "%+v", err)
}

func TestHandlerErrors(t *testing.T) {
	s := weavetest.SeedCondition(t, 1)
	r := weavetest.SeedCondition(t, 2)
	stranger := weavetest.SeedCondition(t, 3)

	// live creates a vault between s and r.
	live := func(t *testing.T, f *fixture) {
		_, err := f.deliver(s, NewInitializeMsg(r.Address(), minAmount))
		require.NoError(t, err)
	}

	cases := map[string]struct {
		prepare func(t *testing.T, f *fixture)
		signer  lockpay.Condition
		msg     func(f *fixture) lockpay.Msg
		wantErr *errors.Error
	}{
		"initialize without signer": {
			msg:     func(*fixture) lockpay.Msg { return NewInitializeMsg(r.Address(), minAmount) },
			wantErr: errors.ErrUnauthorized,
		},
		"initialize with mismatched receiver": {
			signer: s,
			msg: func(*fixture) lockpay.Msg {
				return &InitializeMsg{Receiver: r.Address(), ReceiverRef: stranger.Address(), Amount: minAmount}
			},
			wantErr: ErrReceiverMismatch,
		},
		"initialize below minimum": {
			signer:  s,
			msg:     func(*fixture) lockpay.Msg { return NewInitializeMsg(r.Address(), minAmount-1) },
			wantErr: ErrAmountBelowMinimum,
		},
		"initialize zero amount": {
			signer:  s,
			msg:     func(*fixture) lockpay.Msg { return NewInitializeMsg(r.Address(), 0) },
			wantErr: ErrAmountBelowMinimum,
		},
		"initialize a live pair": {
			prepare: live,
			signer:  s,
			msg:     func(*fixture) lockpay.Msg { return NewInitializeMsg(r.Address(), minAmount) },
			wantErr: errors.ErrDuplicate,
		},
		"initialize without funds": {
			signer:  stranger,
			msg:     func(*fixture) lockpay.Msg { return NewInitializeMsg(r.Address(), minAmount) },
			wantErr: errors.ErrInsufficientAmount,
		},
		"initialize with an amount overflowing the deposit": {
			signer:  s,
			msg:     func(*fixture) lockpay.Msg { return NewInitializeMsg(r.Address(), ^uint64(0)) },
			wantErr: errors.ErrOverflow,
		},
		"initialize with invalid message": {
			signer:  s,
			msg:     func(*fixture) lockpay.Msg { return &InitializeMsg{Amount: minAmount} },
			wantErr: errors.ErrInvalidInput,
		},
		"claim by stranger": {
			prepare: live,
			signer:  stranger,
			msg:     func(f *fixture) lockpay.Msg { return f.claimMsg(s.Address(), r.Address()) },
			wantErr: errors.ErrUnauthorized,
		},
		"claim by sender": {
			prepare: live,
			signer:  s,
			msg:     func(f *fixture) lockpay.Msg { return f.claimMsg(s.Address(), r.Address()) },
			wantErr: errors.ErrUnauthorized,
		},
		"cancel by receiver": {
			prepare: live,
			signer:  r,
			msg:     func(f *fixture) lockpay.Msg { return f.cancelMsg(s.Address(), r.Address()) },
			wantErr: errors.ErrUnauthorized,
		},
		"claim missing vault": {
			signer:  r,
			msg:     func(f *fixture) lockpay.Msg { return f.claimMsg(s.Address(), r.Address()) },
			wantErr: errors.ErrNotFound,
		},
		"claim with spoofed custodian address": {
			prepare: live,
			signer:  r,
			msg: func(f *fixture) lockpay.Msg {
				msg := f.claimMsg(s.Address(), r.Address())
				msg.Custodian = stranger.Address()
				return msg
			},
			wantErr: errors.ErrInvalidState,
		},
		"claim with custodian owned by someone else": {
			prepare: func(t *testing.T, f *fixture) {
				live(t, f)
				spoofed := Custodian{Owner: stranger.Address(), Bump: 255, Reserve: reserve}
				require.NoError(t, NewCustodianBucket().Put(f.db, custodianAddr(t), &spoofed))
			},
			signer:  r,
			msg:     func(f *fixture) lockpay.Msg { return f.claimMsg(s.Address(), r.Address()) },
			wantErr: errors.ErrInvalidState,
		},
		"cancel with tampered custodian bump": {
			prepare: func(t *testing.T, f *fixture) {
				live(t, f)
				var c Custodian
				require.NoError(t, NewCustodianBucket().One(f.db, custodianAddr(t), &c))
				c.Bump--
				require.NoError(t, NewCustodianBucket().Put(f.db, custodianAddr(t), &c))
			},
			signer:  s,
			msg:     func(f *fixture) lockpay.Msg { return f.cancelMsg(s.Address(), r.Address()) },
			wantErr: errors.ErrInvalidState,
		},
		"claim vault stored under a foreign address": {
			prepare: func(t *testing.T, f *fixture) {
				live(t, f)
				addr, v, err := LoadVault(f.db, s.Address(), r.Address())
				require.NoError(t, err)
				require.NoError(t, NewVaultBucket().Delete(f.db, addr))
				require.NoError(t, NewVaultBucket().Put(f.db, stranger.Address(), v))
			},
			signer: r,
			msg: func(f *fixture) lockpay.Msg {
				msg := f.claimMsg(s.Address(), r.Address())
				msg.Vault = stranger.Address()
				return msg
			},
			wantErr: errors.ErrInvalidState,
		},
		"claim settled vault": {
			prepare: func(t *testing.T, f *fixture) {
				live(t, f)
				addr, v, err := LoadVault(f.db, s.Address(), r.Address())
				require.NoError(t, err)
				v.Claimed = true
				v.Amount = 0
				require.NoError(t, NewVaultBucket().Put(f.db, addr, v))
			},
			signer:  r,
			msg:     func(f *fixture) lockpay.Msg { return f.claimMsg(s.Address(), r.Address()) },
			wantErr: ErrAlreadyClaimed,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			f.fund(s.Address(), 100000000)
			if tc.prepare != nil {
				tc.prepare(t, f)
			}
			watched := []lockpay.Address{s.Address(), r.Address(), stranger.Address(), custodianAddr(t)}
			before := make([]uint64, len(watched))
			for i, a := range watched {
				before[i] = f.balance(a)
			}

			_, err := f.deliver(tc.signer, tc.msg(f))
			require.True(t, tc.wantErr.Is(err), "want %q, got %+v", tc.wantErr, err)

			for i, a := range watched {
				assert.Equal(t, before[i], f.balance(a), "balance of %s changed", a)
			}
		})
	}
}

// TestSolvencyUnderRandomOperations runs a random sequence of operations
// between a few parties and checks that the custodian always holds
// exactly the locked funds and its reserve.
func TestSolvencyUnderRandomOperations(t *testing.T) {
	f := newFixture(t)
	parties := make([]lockpay.Condition, 4)
	for i := range parties {
		parties[i] = weavetest.SeedCondition(t, uint32(10+i))
		f.fund(parties[i].Address(), 500000000)
	}

	var total uint64
	for _, p := range parties {
		total += f.balance(p.Address())
	}

	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		s := parties[rnd.Intn(len(parties))]
		r := parties[rnd.Intn(len(parties))]
		var signer lockpay.Condition
		var msg lockpay.Msg
		switch rnd.Intn(3) {
		case 0:
			signer = s
			msg = NewInitializeMsg(r.Address(), minAmount+uint64(rnd.Intn(1000)))
		case 1:
			signer = parties[rnd.Intn(len(parties))]
			msg = f.claimMsg(s.Address(), r.Address())
		case 2:
			signer = parties[rnd.Intn(len(parties))]
			msg = f.cancelMsg(s.Address(), r.Address())
		}
		// Failures are expected, they must leave no trace.
		_, _ = f.deliver(signer, msg)
		f.assertSolvent()
	}

	// Funds are only moved, never created or destroyed.
	sum := f.balance(custodianAddr(t))
	for _, p := range parties {
		sum += f.balance(p.Address())
	}
	err := ForEachVault(f.db, func(addr lockpay.Address, _ *Vault) error {
		sum += f.balance(addr)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, total, sum)
}
