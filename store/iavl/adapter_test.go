package iavl

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/lockpay/store"
	"github.com/stretchr/testify/require"
)

// makeBase returns the base layer
//
// If you want to test a different kvstore implementation
// you can copy most of these tests and change makeBase.
// Once that passes, customize and extend as you wish
func makeBase() (store.CacheableKVStore, func()) {
	commit, close := makeCommitStore()
	return commit.Adapter(), close
}

func makeCommitStore() (*CommitStore, func()) {
	tmpDir, err := ioutil.TempDir("", "iavl-adapter-")
	if err != nil {
		panic(err)
	}
	commit, err := NewCommitStore(tmpDir, "base")
	if err != nil {
		panic(err)
	}
	close := func() {
		commit.Close()
		os.RemoveAll(tmpDir)
	}
	return commit, close
}

var suite = store.NewTestSuite(makeBase)

func TestCacheWrap(t *testing.T) { suite.Run(t) }

// TestCommitOverwrite commits two versions. Cache wraps taken between
// the commits read the latest committed state plus the flushed writes.
func TestCommitOverwrite(t *testing.T) {
	var (
		vault     = []byte("vault:7")
		custodian = []byte("custodian:7")
		receiver  = []byte("receiver:7")
	)

	commit, close := makeCommitStore()
	defer close()

	id, err := commit.LatestVersion()
	require.NoError(t, err)
	require.Equal(t, int64(0), id.Version)
	require.Empty(t, id.Hash)

	initialize := commit.CacheWrap()
	require.NoError(t, initialize.Set(vault, []byte("locked")))
	require.NoError(t, initialize.Set(custodian, []byte("pda")))
	require.NoError(t, initialize.Write())
	first, err := commit.Commit()
	require.NoError(t, err)
	require.Equal(t, int64(1), first.Version)
	require.NotEmpty(t, first.Hash)

	claim := commit.CacheWrap()
	side := commit.CacheWrap()
	require.NoError(t, claim.Set(vault, []byte("claimed")))
	require.NoError(t, claim.Delete(custodian))
	require.NoError(t, claim.Set(receiver, []byte("paid")))

	suite.AssertGetHas(t, claim, vault, []byte("claimed"), true)
	suite.AssertGetHas(t, claim, custodian, nil, false)
	suite.AssertGetHas(t, side, vault, []byte("locked"), true)
	suite.AssertGetHas(t, side, receiver, nil, false)

	require.NoError(t, claim.Write())
	suite.AssertGetHas(t, side, vault, []byte("claimed"), true)
	suite.AssertGetHas(t, side, custodian, nil, false)
	suite.AssertGetHas(t, side, receiver, []byte("paid"), true)

	second, err := commit.Commit()
	require.NoError(t, err)
	require.Equal(t, int64(2), second.Version)
	require.NotEqual(t, first.Hash, second.Hash)
}

func TestReloadCommittedState(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "iavl-reload-")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	commit, err := NewCommitStore(tmpDir, "state")
	require.NoError(t, err)
	cache := commit.CacheWrap()
	require.NoError(t, cache.Set([]byte("vault"), []byte("locked")))
	require.NoError(t, cache.Write())
	want, err := commit.Commit()
	require.NoError(t, err)

	// uncommitted changes must be lost
	cache = commit.CacheWrap()
	require.NoError(t, cache.Set([]byte("other"), []byte("lost")))
	require.NoError(t, cache.Write())
	require.NoError(t, commit.Close())

	reopened, err := NewCommitStore(tmpDir, "state")
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.LoadLatestVersion())

	got, err := reopened.LatestVersion()
	require.NoError(t, err)
	require.Equal(t, want, got)

	val, err := reopened.Get([]byte("vault"))
	require.NoError(t, err)
	require.Equal(t, []byte("locked"), val)
	val, err = reopened.Get([]byte("other"))
	require.NoError(t, err)
	if val != nil {
		t.Fatalf("uncommitted value found: %q", val)
	}
}

func TestMemCommitStore(t *testing.T) {
	commit := NewMemCommitStore()
	defer commit.Close()

	cache := commit.CacheWrap()
	require.NoError(t, cache.Set([]byte("a"), []byte("A")))
	require.NoError(t, cache.Write())

	// working state is visible only after a commit
	val, err := commit.Get([]byte("a"))
	require.NoError(t, err)
	if val != nil {
		t.Fatal("working state leaked before commit")
	}
	_, err = commit.Commit()
	require.NoError(t, err)
	val, err = commit.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("A"), val)
}
