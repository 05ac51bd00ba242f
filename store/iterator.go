package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/lockpay/errors"
)

// ascendBtree collects all cached items in the [start, end) range.
// A cache wrap lives for a single operation so the copy is small.
func ascendBtree(bt *btree.BTree, start, end []byte) []entry {
	var items []entry
	insert := func(item btree.Item) bool {
		items = append(items, item.(entry))
		return true
	}

	if start == nil && end == nil {
		bt.Ascend(insert)
	} else if start == nil { // end != nil
		bt.AscendLessThan(entry{key: end}, insert)
	} else if end == nil { // start != nil
		bt.AscendGreaterOrEqual(entry{key: start}, insert)
	} else { // both != nil
		bt.AscendRange(entry{key: start}, entry{key: end}, insert)
	}
	return items
}

// itemIter combines the cached items with the iterator of the parent
// store, taking into consideration overwrites and deletes.
type itemIter struct {
	ours []entry

	parent Iterator
	// next parent value, read ahead so we can compare keys
	parentKey   []byte
	parentValue []byte
	parentDone  bool
	parentErr   error
}

var _ Iterator = (*itemIter)(nil)

func newItemIter(ours []entry, parent Iterator) *itemIter {
	i := &itemIter{
		ours:   ours,
		parent: parent,
	}
	i.advanceParent()
	return i
}

func (i *itemIter) advanceParent() {
	if i.parentDone {
		return
	}
	key, value, err := i.parent.Next()
	if err != nil {
		i.parentDone = true
		i.parentKey, i.parentValue = nil, nil
		if !errors.ErrIteratorDone.Is(err) {
			i.parentErr = err
		}
		return
	}
	i.parentKey, i.parentValue = key, value
}

// Next returns the lowest key of both sources. Keys deleted in the
// cache are skipped, keys set in the cache shadow the parent values.
func (i *itemIter) Next() ([]byte, []byte, error) {
	for {
		if i.parentErr != nil {
			return nil, nil, i.parentErr
		}
		if len(i.ours) == 0 {
			if i.parentDone {
				return nil, nil, errors.ErrIteratorDone
			}
			key, value := i.parentKey, i.parentValue
			i.advanceParent()
			return key, value, nil
		}

		item := i.ours[0]
		if !i.parentDone {
			switch cmp := bytes.Compare(i.parentKey, item.key); {
			case cmp < 0:
				key, value := i.parentKey, i.parentValue
				i.advanceParent()
				return key, value, nil
			case cmp == 0:
				// shadowed by our own value
				i.advanceParent()
			}
		}

		i.ours = i.ours[1:]
		if !item.deleted {
			return item.key, item.value, nil
		}
	}
}

// Release releases the Iterator.
func (i *itemIter) Release() {
	i.parent.Release()
	i.ours = nil
}
