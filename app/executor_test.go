package app

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/store/bolt"
	"github.com/iov-one/lockpay/store/iavl"
	"github.com/iov-one/lockpay/weavetest"
	"github.com/iov-one/lockpay/x"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodePath builds a transaction whose message path is the raw content.
func decodePath(raw []byte) (lockpay.Tx, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty transaction")
	}
	return &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: string(raw)}}, nil
}

// writeHandler stores the message path under the main signer address. It
// fails after writing if fail is set.
type writeHandler struct {
	fail bool
}

func (h writeHandler) Check(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx) (*lockpay.CheckResult, error) {
	if x.MainSigner(ctx, x.ContextAuth{}) == nil {
		return nil, errors.ErrUnauthorized
	}
	return &lockpay.CheckResult{}, db.Set([]byte("check"), []byte("x"))
}

func (h writeHandler) Deliver(ctx lockpay.Context, db lockpay.KVStore, tx lockpay.Tx) (*lockpay.DeliverResult, error) {
	signer := x.MainSigner(ctx, x.ContextAuth{})
	if signer == nil {
		return nil, errors.ErrUnauthorized
	}
	if err := db.Set(signer.Address(), []byte(lockpay.GetPath(tx))); err != nil {
		return nil, err
	}
	if h.fail {
		return nil, errors.ErrInvalidState
	}
	return &lockpay.DeliverResult{Data: signer.Address()}, nil
}

func newTestExecutor(t *testing.T, store lockpay.CommitKVStore) *Executor {
	t.Helper()
	r := NewRouter()
	r.Handle("write", writeHandler{})
	r.Handle("fail", writeHandler{fail: true})
	exec, err := NewExecutor(store, ChainDecorators().WithHandler(r), decodePath, nil)
	require.NoError(t, err)
	return exec
}

func readKey(t *testing.T, exec *Executor, key []byte) []byte {
	t.Helper()
	var val []byte
	err := exec.Query(func(db lockpay.ReadOnlyKVStore) error {
		v, err := db.Get(key)
		val = v
		return err
	})
	require.NoError(t, err)
	return val
}

func TestExecutorRequiresGenesis(t *testing.T) {
	exec := newTestExecutor(t, iavl.NewMemCommitStore())
	signer := weavetest.SeedCondition(t, 1)

	_, err := exec.Deliver([]byte("write"), signer)
	assert.True(t, errors.ErrInvalidState.Is(err), "%+v", err)
}

func TestExecutorDeliver(t *testing.T) {
	exec := newTestExecutor(t, iavl.NewMemCommitStore())
	require.NoError(t, exec.InitGenesis(Genesis{ChainID: "lockpay-test"}, ChainInitializers()))
	signer := weavetest.SeedCondition(t, 1)

	start, err := exec.LatestVersion()
	require.NoError(t, err)

	_, err = exec.Check([]byte("write"), signer)
	require.NoError(t, err)
	assert.Nil(t, readKey(t, exec, []byte("check")))

	_, err = exec.Deliver([]byte("write"))
	assert.True(t, errors.ErrUnauthorized.Is(err), "%+v", err)

	_, err = exec.Deliver([]byte("fail"), signer)
	assert.True(t, errors.ErrInvalidState.Is(err), "%+v", err)
	assert.Nil(t, readKey(t, exec, signer.Address()))

	_, err = exec.Deliver(nil, signer)
	assert.True(t, errors.ErrInvalidInput.Is(err), "%+v", err)

	version, err := exec.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, start.Version, version.Version, "failed transactions must not commit")

	res, err := exec.Deliver([]byte("write"), signer)
	require.NoError(t, err)
	assert.Equal(t, []byte(signer.Address()), res.Data)
	assert.Equal(t, []byte("write"), readKey(t, exec, signer.Address()))
	assert.Nil(t, readKey(t, exec, []byte("check")))

	version, err = exec.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, start.Version+1, version.Version)
}

func TestExecutorReopen(t *testing.T) {
	dir, err := ioutil.TempDir("", "executor")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "state.db")

	db, err := bolt.NewCommitStore(path)
	require.NoError(t, err)
	exec := newTestExecutor(t, db)
	require.NoError(t, exec.InitGenesis(Genesis{ChainID: "lockpay-test"}, ChainInitializers()))
	signer := weavetest.SeedCondition(t, 1)
	_, err = exec.Deliver([]byte("write"), signer)
	require.NoError(t, err)
	require.NoError(t, exec.Close())

	db, err = bolt.NewCommitStore(path)
	require.NoError(t, err)
	exec = newTestExecutor(t, db)
	defer exec.Close()

	assert.Equal(t, "lockpay-test", exec.ChainID())
	assert.Equal(t, []byte("write"), readKey(t, exec, signer.Address()))
}

// failingCommitStore fails the next commit without writing anything.
type failingCommitStore struct {
	lockpay.CommitKVStore
	failNext bool
}

func (s *failingCommitStore) Commit() (lockpay.CommitID, error) {
	if s.failNext {
		s.failNext = false
		return lockpay.CommitID{}, errors.Wrap(errors.ErrDatabase, "disk full")
	}
	return s.CommitKVStore.Commit()
}

func TestExecutorFailedCommitLeavesNoTrace(t *testing.T) {
	dir, err := ioutil.TempDir("", "executor")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	db, err := bolt.NewCommitStore(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	failing := &failingCommitStore{CommitKVStore: db}
	exec := newTestExecutor(t, failing)
	defer exec.Close()
	require.NoError(t, exec.InitGenesis(Genesis{ChainID: "lockpay-test"}, ChainInitializers()))

	alice := weavetest.SeedCondition(t, 1)
	bob := weavetest.SeedCondition(t, 2)

	start, err := exec.LatestVersion()
	require.NoError(t, err)

	failing.failNext = true
	_, err = exec.Deliver([]byte("write"), alice)
	assert.True(t, errors.ErrDatabase.Is(err), "%+v", err)
	assert.Nil(t, readKey(t, exec, alice.Address()))

	_, err = exec.Deliver([]byte("write"), bob)
	require.NoError(t, err)
	assert.Equal(t, []byte("write"), readKey(t, exec, bob.Address()))

	// the failed write was not carried into the next commit
	assert.Nil(t, readKey(t, exec, alice.Address()))
	val, err := db.Get(alice.Address())
	require.NoError(t, err)
	assert.Nil(t, val)

	version, err := exec.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, start.Version+1, version.Version)
}
