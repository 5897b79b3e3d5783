// Package kvdbmem is an in-process KVDB engine kept in a left-leaning red-black tree.
//
// Data does not survive a restart; it serves single-process deployments and tests.
package kvdbmem

import (
	"io"

	"github.com/cogoffice/battlezone/engine/kvdb/types"
	"github.com/petar/GoLLRB/llrb"
)

type memItem struct {
	key string
	val string
}

func (it *memItem) Less(_other llrb.Item) bool {
	return it.key < _other.(*memItem).key
}

type memKVDB struct {
	tree *llrb.LLRB
}

// OpenMemKVDB creates an empty in-memory KVDB engine
func OpenMemKVDB() (kvdbtypes.Engine, error) {
	return &memKVDB{
		tree: llrb.New(),
	}, nil
}

func (db *memKVDB) Get(key string) (string, error) {
	item := db.tree.Get(&memItem{key: key})
	if item == nil {
		return "", nil
	}
	return item.(*memItem).val, nil
}

func (db *memKVDB) Put(key string, val string) error {
	db.tree.ReplaceOrInsert(&memItem{key: key, val: val})
	return nil
}

func (db *memKVDB) PutIfAbsent(key string, val string) (string, error) {
	if old := db.tree.Get(&memItem{key: key}); old != nil {
		return old.(*memItem).val, nil
	}
	db.tree.InsertNoReplace(&memItem{key: key, val: val})
	return "", nil
}

type memKVDBIterator struct {
	items []kvdbtypes.Item
}

func (it *memKVDBIterator) Next() (kvdbtypes.Item, error) {
	if len(it.items) == 0 {
		return kvdbtypes.Item{}, io.EOF
	}
	item := it.items[0]
	it.items = it.items[1:]
	return item, nil
}

// Find snapshots the range so that later puts do not disturb the iteration
func (db *memKVDB) Find(beginKey string, endKey string) (kvdbtypes.Iterator, error) {
	var items []kvdbtypes.Item
	db.tree.AscendRange(&memItem{key: beginKey}, &memItem{key: endKey}, func(i llrb.Item) bool {
		mi := i.(*memItem)
		items = append(items, kvdbtypes.Item{Key: mi.key, Val: mi.val})
		return true
	})
	return &memKVDBIterator{items: items}, nil
}

func (db *memKVDB) Close() {
}

func (db *memKVDB) IsConnectionError(err error) bool {
	return false
}
