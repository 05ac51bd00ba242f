package app

import (
	"testing"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/store/iavl"
	"github.com/iov-one/lockpay/x/cash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countInit struct {
	called int
}

func (c *countInit) FromGenesis(opts lockpay.Options, kv lockpay.KVStore) error {
	c.called++
	return nil
}

func TestLoadGenesis(t *testing.T) {
	cases := map[string]struct {
		file         string
		wantParseErr bool
		wantInitErr  bool
		wantChain    string
		wantCalled   int
		wantBalance  uint64
	}{
		"no such file": {
			file:         "testdata/missing.json",
			wantParseErr: true,
		},
		"proper genesis": {
			file:        "testdata/genesis.json",
			wantChain:   "test-chain-67",
			wantCalled:  1,
			wantBalance: 100000000,
		},
		"bad application state": {
			file:        "testdata/bad_genesis.json",
			wantInitErr: true,
		},
	}

	addr, err := lockpay.ParseAddress("E28AE9A6EB94FC88B73EB7CBD6B87BF93EB9BEF0")
	require.NoError(t, err)

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			gen, err := LoadGenesis(tc.file)
			if tc.wantParseErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			c := new(countInit)
			init := ChainInitializers(cash.Initializer{}, c)

			exec, err := NewExecutor(iavl.NewMemCommitStore(), NewRouter(), nil, nil)
			require.NoError(t, err)
			assert.Equal(t, "", exec.ChainID())

			err = exec.InitGenesis(gen, init)
			if tc.wantInitErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantChain, exec.ChainID())
			assert.Equal(t, tc.wantCalled, c.called)

			bank := cash.NewController(cash.NewBucket())
			err = exec.Query(func(db lockpay.ReadOnlyKVStore) error {
				balance, err := bank.Balance(db, addr)
				assert.Equal(t, tc.wantBalance, balance)
				return err
			})
			assert.NoError(t, err)
		})
	}
}

func TestGenesisLoadedOnce(t *testing.T) {
	gen, err := LoadGenesis("testdata/genesis.json")
	require.NoError(t, err)

	exec, err := NewExecutor(iavl.NewMemCommitStore(), NewRouter(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, exec.InitGenesis(gen, ChainInitializers()))

	err = exec.InitGenesis(gen, ChainInitializers())
	assert.True(t, errors.ErrDuplicate.Is(err), "%+v", err)
}

func TestChainID(t *testing.T) {
	db := iavl.NewMemCommitStore().CacheWrap()

	id, err := loadChainID(db)
	require.NoError(t, err)
	assert.Equal(t, "", id)

	err = saveChainID(db, "bad chain id")
	assert.True(t, errors.ErrInvalidInput.Is(err), "%+v", err)

	require.NoError(t, saveChainID(db, "lockpay-test"))
	err = saveChainID(db, "lockpay-other")
	assert.True(t, errors.ErrDuplicate.Is(err), "%+v", err)

	id, err = loadChainID(db)
	require.NoError(t, err)
	assert.Equal(t, "lockpay-test", id)
}
