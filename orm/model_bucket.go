package orm

import (
	"reflect"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
)

// Model is impelemented by any entity that can be stored using ModelBucket.
type Model interface {
	lockpay.Persistent
	Validate() error
}

// ModelBucket stores models of a single type under a name prefix. All
// lookups are done by the primary key.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity,
	// ErrInvalidType is returned.
	One(db lockpay.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key value exists. It
	// returns ErrNotFound if no entity can be found.
	Has(db lockpay.ReadOnlyKVStore, key []byte) error

	// Put saves given model in the database.
	Put(db lockpay.KVStore, key []byte, m Model) error

	// Create saves given model in the database. It returns ErrDuplicate
	// if an entity with the same key already exists.
	Create(db lockpay.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db lockpay.KVStore, key []byte) error

	// ForEach loads every stored entity, in key order, into dest and
	// calls fn with its primary key. Iteration stops at the first error
	// returned by fn.
	ForEach(db lockpay.ReadOnlyKVStore, dest Model, fn func(key []byte) error) error
}

// NewModelBucket returns a ModelBucket instance storing models of the
// same type as given prototype under the bucket name.
func NewModelBucket(name string, m Model) ModelBucket {
	tp := reflect.TypeOf(m)
	if tp.Kind() != reflect.Ptr {
		panic("model must be a pointer")
	}
	return &modelBucket{
		name:   name,
		prefix: bucketPrefix(name),
		model:  tp,
	}
}

type modelBucket struct {
	name   string
	prefix []byte
	model  reflect.Type
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) checkType(dest Model) error {
	if reflect.TypeOf(dest) != mb.model {
		return errors.Wrapf(errors.ErrInvalidType, "%T cannot be represented as %s", dest, mb.model)
	}
	return nil
}

func (mb *modelBucket) One(db lockpay.ReadOnlyKVStore, key []byte, dest Model) error {
	if err := mb.checkType(dest); err != nil {
		return err
	}
	raw, err := db.Get(prefixedKey(mb.prefix, key))
	if err != nil {
		return errors.Wrap(err, "cannot get from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "cannot unmarshal %s %X", mb.name, key)
	}
	return nil
}

func (mb *modelBucket) Has(db lockpay.ReadOnlyKVStore, key []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrNotFound, "zero length key")
	}
	ok, err := db.Has(prefixedKey(mb.prefix, key))
	if err != nil {
		return errors.Wrap(err, "cannot query the database")
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	return nil
}

func (mb *modelBucket) Put(db lockpay.KVStore, key []byte, m Model) error {
	if err := mb.checkType(m); err != nil {
		return err
	}
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := m.Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot serialize model")
	}
	if err := db.Set(prefixedKey(mb.prefix, key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Create(db lockpay.KVStore, key []byte, m Model) error {
	switch err := mb.Has(db, key); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "%s %X", mb.name, key)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	return mb.Put(db, key, m)
}

func (mb *modelBucket) Delete(db lockpay.KVStore, key []byte) error {
	if err := mb.Has(db, key); err != nil {
		return err
	}
	if err := db.Delete(prefixedKey(mb.prefix, key)); err != nil {
		return errors.Wrap(err, "cannot delete from the database")
	}
	return nil
}

func (mb *modelBucket) ForEach(db lockpay.ReadOnlyKVStore, dest Model, fn func(key []byte) error) error {
	if err := mb.checkType(dest); err != nil {
		return err
	}
	start, end := prefixRange(mb.prefix)
	it, err := db.Iterator(start, end)
	if err != nil {
		return errors.Wrap(err, "cannot create iterator")
	}
	defer it.Release()

	for {
		key, value, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "iterator")
		}
		if err := dest.Unmarshal(value); err != nil {
			return errors.Wrapf(err, "cannot unmarshal %s %X", mb.name, key)
		}
		if err := fn(key[len(mb.prefix):]); err != nil {
			return err
		}
	}
}
