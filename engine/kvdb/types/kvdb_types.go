// Package kvdbtypes holds what the KVDB frontend and its storage engines share.
package kvdbtypes

// Engine is a KVDB storage engine. Values are strings and "" means no value.
//
// Engines are only called from the KVDB routine and need no locking of their own. PutIfAbsent must be atomic on the
// store itself: the reward ledger relies on it when several processes share one store.
type Engine interface {
	Get(key string) (val string, err error)
	Put(key string, val string) error
	// PutIfAbsent stores val unless key has a value, which is returned instead. old is "" when val was stored.
	PutIfAbsent(key string, val string) (old string, err error)
	Find(beginKey string, endKey string) (Iterator, error)
	Close()
	IsConnectionError(err error) bool
}

// Iterator walks the items of a Find in key order. Next returns io.EOF after the last item.
type Iterator interface {
	Next() (Item, error)
}

// Item is a key and its value
type Item struct {
	Key string
	Val string
}
