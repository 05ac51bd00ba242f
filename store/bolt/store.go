package bolt

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/store"
	"go.etcd.io/bbolt"
)

var (
	bucketState = []byte("state")
	bucketMeta  = []byte("meta")

	keyCommitID = []byte("commit_id")
)

// CommitStore keeps the state in a bbolt database. All changes written
// through the cache wraps are kept in memory until Commit, which writes
// them together with the new version in a single database transaction.
type CommitStore struct {
	db *bbolt.DB

	// working holds the changes since the last commit
	working store.BTreeCacheWrap
	pending *pendingBatch
	id      store.CommitID
}

var _ store.CommitKVStore = (*CommitStore)(nil)

// NewCommitStore opens or creates the bbolt database at path. The parent
// directory is created if it does not exist.
func NewCommitStore(path string) (*CommitStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "create directory: %s", err)
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open bolt db: %s", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketState, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(errors.ErrDatabase, "create bucket %q: %s", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &CommitStore{db: db}
	s.reset()
	if err := s.LoadLatestVersion(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *CommitStore) reset() {
	s.pending = &pendingBatch{}
	s.working = store.NewBTreeCacheWrap(reader{db: s.db}, s.pending, nil)
}

// Get returns the value at last committed state
// returns nil iff key doesn't exist.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	return reader{db: s.db}.Get(key)
}

// CacheWrap returns a cache on top of all changes made since the last
// commit.
func (s *CommitStore) CacheWrap() store.KVCacheWrap {
	return s.working.CacheWrap()
}

// Adapter exposes the uncommitted working state as a KVStore.
func (s *CommitStore) Adapter() store.CacheableKVStore {
	return s.working
}

// Commit writes all pending changes and the next version to disk in a
// single transaction. If the transaction fails nothing is written and the
// changes stay pending. Call LoadLatestVersion to drop them.
func (s *CommitStore) Commit() (store.CommitID, error) {
	next := store.CommitID{
		Version: s.id.Version + 1,
		Hash:    chainHash(s.id.Hash, s.pending.ops),
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		state := tx.Bucket(bucketState)
		for _, op := range s.pending.ops {
			var err error
			if op.IsSetOp() {
				err = state.Put(op.Key(), op.Value())
			} else {
				err = state.Delete(op.Key())
			}
			if err != nil {
				return err
			}
		}
		return tx.Bucket(bucketMeta).Put(keyCommitID, encodeCommitID(next))
	})
	if err != nil {
		return store.CommitID{}, errors.Wrapf(errors.ErrDatabase, "commit: %s", err)
	}
	s.id = next
	s.working.Discard()
	s.reset()
	return next, nil
}

// LoadLatestVersion drops all uncommitted changes and reads the last
// committed version.
func (s *CommitStore) LoadLatestVersion() error {
	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketMeta).Get(keyCommitID); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "load version: %s", err)
	}
	id, err := decodeCommitID(raw)
	if err != nil {
		return err
	}
	s.id = id
	s.working.Discard()
	s.reset()
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s *CommitStore) LatestVersion() (store.CommitID, error) {
	return s.id, nil
}

// Close closes the underlying database.
func (s *CommitStore) Close() error {
	return s.db.Close()
}

// chainHash links the previous commit hash with all changes of the
// next version.
func chainHash(prev []byte, ops []store.Op) []byte {
	h := sha256.New()
	h.Write(prev)
	for _, op := range ops {
		var size [8]byte
		if op.IsSetOp() {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
		binary.BigEndian.PutUint64(size[:], uint64(len(op.Key())))
		h.Write(size[:])
		h.Write(op.Key())
		binary.BigEndian.PutUint64(size[:], uint64(len(op.Value())))
		h.Write(size[:])
		h.Write(op.Value())
	}
	return h.Sum(nil)
}

func encodeCommitID(id store.CommitID) []byte {
	raw := make([]byte, 8, 8+len(id.Hash))
	binary.BigEndian.PutUint64(raw, uint64(id.Version))
	return append(raw, id.Hash...)
}

func decodeCommitID(raw []byte) (store.CommitID, error) {
	if len(raw) == 0 {
		return store.CommitID{}, nil
	}
	if len(raw) < 8 {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, "malformed commit id")
	}
	return store.CommitID{
		Version: int64(binary.BigEndian.Uint64(raw)),
		Hash:    append([]byte(nil), raw[8:]...),
	}, nil
}

// pendingBatch collects the changes written to the working cache.
// They are flushed to disk by Commit.
type pendingBatch struct {
	ops []store.Op
}

var _ store.Batch = (*pendingBatch)(nil)

func (b *pendingBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, store.SetOp(key, value))
	return nil
}

func (b *pendingBatch) Delete(key []byte) error {
	b.ops = append(b.ops, store.DelOp(key))
	return nil
}

// Write is a noop, the operations are written on commit.
func (b *pendingBatch) Write() error {
	return nil
}

// reader provides read access to the committed state.
type reader struct {
	db *bbolt.DB
}

var _ store.ReadOnlyKVStore = reader{}

func (r reader) Get(key []byte) ([]byte, error) {
	var val []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketState).Get(key); v != nil {
			// bolt memory is valid only during the transaction
			val = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "get: %s", err)
	}
	return val, nil
}

func (r reader) Has(key []byte) (bool, error) {
	val, err := r.Get(key)
	return val != nil, err
}

// Iterator loads all values of the [start, end) range.
func (r reader) Iterator(start, end []byte) (store.Iterator, error) {
	var res []store.Model
	err := r.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketState).Cursor()
		var k, v []byte
		if start == nil {
			k, v = c.First()
		} else {
			k, v = c.Seek(start)
		}
		for ; k != nil; k, v = c.Next() {
			if end != nil && bytes.Compare(k, end) >= 0 {
				break
			}
			res = append(res, store.Pair(
				append([]byte(nil), k...),
				append([]byte(nil), v...),
			))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "iterate: %s", err)
	}
	return store.NewSliceIterator(res), nil
}
