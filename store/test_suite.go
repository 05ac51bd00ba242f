package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/iov-one/lockpay/errors"
	"github.com/stretchr/testify/require"
)

// TestSuite runs the same set of checks against any CacheableKVStore.
// Each check opens a fresh store using the constructor and releases it
// with the returned cleanup function.
type TestSuite struct {
	open TestStoreConstructor
}

type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{open: constructor}
}

// Run executes all checks as subtests.
func (s *TestSuite) Run(t *testing.T) {
	t.Run("layering", s.Layering)
	t.Run("iteration", s.Iteration)
	t.Run("random iteration", s.RandomIteration)
}

// layerCase applies base ops, then child ops in a cache wrap. Reads are
// checked on the child, on the base before the child is written and on
// the base after the child is written (or discarded).
type layerCase struct {
	base    []Op
	child   []Op
	discard bool

	wantChild  []Model
	wantBefore []Model
	wantAfter  []Model
}

// Layering checks that a cache wrap shadows its parent and that writing
// or discarding it has the expected effect. A nil Value in a wanted
// model means the key must be absent.
func (s *TestSuite) Layering(t *testing.T) {
	var (
		vault     = []byte("vault:1")
		custodian = []byte("custodian:1")
		receiver  = []byte("receiver:1")
		locked    = []byte("locked")
		claimed   = []byte("claimed")
		seed      = []byte("seed")
	)

	cases := map[string]layerCase{
		"child writes become visible after write": {
			child:      []Op{SetOp(vault, locked)},
			wantChild:  []Model{Pair(vault, locked)},
			wantBefore: []Model{Pair(vault, nil)},
			wantAfter:  []Model{Pair(vault, locked)},
		},
		"discarded child leaves no trace": {
			base:       []Op{SetOp(vault, locked)},
			child:      []Op{SetOp(custodian, seed), DelOp(vault)},
			discard:    true,
			wantChild:  []Model{Pair(vault, nil), Pair(custodian, seed)},
			wantBefore: []Model{Pair(vault, locked), Pair(custodian, nil)},
			wantAfter:  []Model{Pair(vault, locked), Pair(custodian, nil)},
		},
		"overwrite delete and add in one child": {
			base:       []Op{SetOp(vault, locked), SetOp(custodian, seed)},
			child:      []Op{SetOp(vault, claimed), DelOp(custodian), SetOp(receiver, claimed)},
			wantChild:  []Model{Pair(vault, claimed), Pair(custodian, nil), Pair(receiver, claimed)},
			wantBefore: []Model{Pair(vault, locked), Pair(custodian, seed), Pair(receiver, nil)},
			wantAfter:  []Model{Pair(vault, claimed), Pair(custodian, nil), Pair(receiver, claimed)},
		},
		"delete then set again in the child": {
			base:       []Op{SetOp(vault, locked)},
			child:      []Op{DelOp(vault), SetOp(vault, claimed)},
			wantChild:  []Model{Pair(vault, claimed)},
			wantBefore: []Model{Pair(vault, locked)},
			wantAfter:  []Model{Pair(vault, claimed)},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.open()
			defer cleanup()

			applyOps(t, base, tc.base)
			child := base.CacheWrap()
			applyOps(t, child, tc.child)

			s.assertModels(t, child, tc.wantChild)
			s.assertModels(t, base, tc.wantBefore)

			if tc.discard {
				child.Discard()
			} else {
				require.NoError(t, child.Write())
			}
			s.assertModels(t, base, tc.wantAfter)

			// A second wrap reads what the first one left behind.
			s.assertModels(t, base.CacheWrap(), tc.wantAfter)
		})
	}
}

// iterCase applies base ops to the store, child ops to a cache wrap and
// runs the range queries on the wrap.
type iterCase struct {
	base    []Op
	child   []Op
	queries []rangeQuery
}

type rangeQuery struct {
	start, end []byte
	want       []Model
}

// Iteration covers merging the cached writes with the parent content,
// including overwrites and deletes on both sides of the range limits.
func (s *TestSuite) Iteration(t *testing.T) {
	a := Pair([]byte("a"), []byte("A"))
	a2 := Pair([]byte("a"), []byte("A2"))
	b := Pair([]byte("b"), []byte("B"))
	b2 := Pair([]byte("b"), []byte("B2"))
	c := Pair([]byte("c"), []byte("C"))
	d := Pair([]byte("d"), []byte("D"))

	s.runIter(t, map[string]iterCase{
		"only child": {
			child: setOps(a, b, c),
			queries: []rangeQuery{
				{nil, nil, []Model{a, b, c}},
				{b.Key, c.Key, []Model{b}},
			},
		},
		"only parent": {
			base: setOps(a, b, c),
			queries: []rangeQuery{
				{nil, nil, []Model{a, b, c}},
				{b.Key, nil, []Model{b, c}},
			},
		},
		"parent and child are merged": {
			base:  setOps(a, c),
			child: setOps(b, d),
			queries: []rangeQuery{
				{nil, nil, []Model{a, b, c, d}},
				{nil, c.Key, []Model{a, b}},
			},
		},
		"child values shadow the parent": {
			base:  setOps(a, b, c),
			child: setOps(a2, b2, d),
			queries: []rangeQuery{
				{nil, nil, []Model{a2, b2, c, d}},
				{b.Key, d.Key, []Model{b2, c}},
			},
		},
		"child deletes hide the parent": {
			base:  setOps(a, c, d),
			child: delOps(a, b, d),
			queries: []rangeQuery{
				{nil, nil, []Model{c}},
				{nil, c.Key, nil},
				{d.Key, nil, nil},
			},
		},
	})
}

// RandomIteration iterates over random keys written to the parent and
// the child, with random deletes of keys that were never written.
func (s *TestSuite) RandomIteration(t *testing.T) {
	const size = 40

	child := randModels(size, 8, 32)
	parent := randModels(size, 8, 32)
	onlyChild := sortModels(child)
	both := sortModels(append(append([]Model{}, child...), parent...))
	childOps := append(setOps(child...), delOps(randModels(10, 8, 0)...)...)

	s.runIter(t, map[string]iterCase{
		"empty parent": {
			child: childOps,
			queries: []rangeQuery{
				{nil, nil, onlyChild},
				{onlyChild[5].Key, nil, onlyChild[5:]},
				{nil, onlyChild[size-5].Key, onlyChild[:size-5]},
				{onlyChild[10].Key, onlyChild[30].Key, onlyChild[10:30]},
			},
		},
		"filled parent": {
			base:  append(setOps(parent...), delOps(randModels(10, 8, 0)...)...),
			child: childOps,
			queries: []rangeQuery{
				{nil, nil, both},
				{both[20].Key, nil, both[20:]},
				{nil, both[60].Key, both[:60]},
				{both[15].Key, both[45].Key, both[15:45]},
			},
		},
	})
}

func (s *TestSuite) runIter(t *testing.T, cases map[string]iterCase) {
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.open()
			defer cleanup()

			applyOps(t, base, tc.base)
			child := base.CacheWrap()
			applyOps(t, child, tc.child)

			for _, q := range tc.queries {
				it, err := child.Iterator(q.start, q.end)
				require.NoError(t, err)
				for i, want := range q.want {
					key, value, err := it.Next()
					require.NoError(t, err, "item %d", i)
					require.Equal(t, want.Key, key, "item %d", i)
					require.Equal(t, want.Value, value, "item %d", i)
				}
				_, _, err = it.Next()
				require.True(t, errors.ErrIteratorDone.Is(err), "want end of iteration, got %+v", err)
				it.Release()
			}
		})
	}
}

// AssertGetHas checks both read methods for a single key.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	require.NoError(t, err)
	require.Equal(t, val, got)
	exists, err := kv.Has(key)
	require.NoError(t, err)
	require.Equal(t, has, exists)
}

func (s *TestSuite) assertModels(t testing.TB, kv ReadOnlyKVStore, want []Model) {
	t.Helper()
	for _, m := range want {
		s.AssertGetHas(t, kv, m.Key, m.Value, m.Value != nil)
	}
}

func applyOps(t testing.TB, kv SetDeleter, ops []Op) {
	t.Helper()
	for _, op := range ops {
		require.NoError(t, op.Apply(kv))
	}
}

// randModels returns models with random keys. Keys are long enough to
// never collide in practice.
func randModels(count, keySize, valueSize int) []Model {
	models := make([]Model, count)
	for i := range models {
		models[i] = Pair(randBytes(keySize), randBytes(valueSize))
	}
	return models
}

func randBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// sortModels returns a copy of the models sorted by key
func sortModels(models []Model) []Model {
	res := append([]Model(nil), models...)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func setOps(ms ...Model) []Op {
	ops := make([]Op, len(ms))
	for i, m := range ms {
		ops[i] = SetOp(m.Key, m.Value)
	}
	return ops
}

func delOps(ms ...Model) []Op {
	ops := make([]Op, len(ms))
	for i, m := range ms {
		ops[i] = DelOp(m.Key)
	}
	return ops
}
