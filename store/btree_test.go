package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makeBase() (CacheableKVStore, func()) {
	// devnull is a black hole... just to keep our types proper
	devnull := BTreeCacheable{EmptyKVStore{}}
	// base is the root of our data, we can layer on top and
	// all queries should work
	base := devnull.CacheWrap()
	return base, func() {}
}

var suite = NewTestSuite(makeBase)

func TestBTreeCacheWrap(t *testing.T) { suite.Run(t) }

func TestLogableStoreRecordsOps(t *testing.T) {
	kv, ops := LogableStore()
	require.NoError(t, kv.Set([]byte("a"), []byte("A")))
	require.NoError(t, kv.Delete([]byte("b")))

	got := ops.ShowOps()
	require.Equal(t, 2, len(got))
	require.Equal(t, true, got[0].IsSetOp())
	require.Equal(t, []byte("a"), got[0].Key())
	require.Equal(t, []byte("A"), got[0].Value())
	require.Equal(t, false, got[1].IsSetOp())
	require.Equal(t, []byte("b"), got[1].Key())
}

func TestDiscardDropsChanges(t *testing.T) {
	base := MemStore()
	cache := base.CacheWrap()
	require.NoError(t, cache.Set([]byte("k"), []byte("v")))
	cache.Discard()

	suite.AssertGetHas(t, base, []byte("k"), nil, false)
}
