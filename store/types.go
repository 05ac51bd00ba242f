// nolint
package store

import "github.com/iov-one/lockpay"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = lockpay.ReadOnlyKVStore
type SetDeleter = lockpay.SetDeleter
type KVStore = lockpay.KVStore
type Batch = lockpay.Batch
type Iterator = lockpay.Iterator
type CacheableKVStore = lockpay.CacheableKVStore
type KVCacheWrap = lockpay.KVCacheWrap
type CommitKVStore = lockpay.CommitKVStore
type CommitID = lockpay.CommitID

// Model groups together key and value to return
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return Model{
		Key:   key,
		Value: value,
	}
}
