// Package kvdbredis keeps KVDB items in one redis database under a key namespace.
package kvdbredis

import (
	"io"
	"strings"

	"github.com/cogoffice/battlezone/engine/kvdb/types"
	"github.com/garyburd/redigo/redis"
	"github.com/petar/GoLLRB/llrb"
	"github.com/pkg/errors"
)

// Namespace prefixes every key the backend writes
const Namespace = "bz:kv:"

const scanCount = 1000

// indexKey orders the keys of the namespace for Find
type indexKey string

func (k indexKey) Less(other llrb.Item) bool {
	return k < other.(indexKey)
}

type redisKVDB struct {
	c     redis.Conn
	index *llrb.LLRB
}

// OpenRedisKVDB selects the database of dbindex on host
//
// The keys of the namespace are scanned once so that Find can walk key ranges in order.
func OpenRedisKVDB(host string, dbindex int) (kvdbtypes.Engine, error) {
	c, err := redis.Dial("tcp", host, redis.DialDatabase(dbindex))
	if err != nil {
		return nil, errors.Wrapf(err, "redis dial %s", host)
	}

	db := &redisKVDB{
		c:     c,
		index: llrb.New(),
	}
	if err := db.loadIndex(); err != nil {
		c.Close()
		return nil, errors.Wrap(err, "redis scan keys")
	}
	return db, nil
}

func (db *redisKVDB) loadIndex() error {
	cursor := 0
	for {
		r, err := redis.Values(db.c.Do("SCAN", cursor, "MATCH", Namespace+"*", "COUNT", scanCount))
		if err != nil {
			return err
		}
		var keys []string
		if _, err := redis.Scan(r, &cursor, &keys); err != nil {
			return err
		}
		for _, key := range keys {
			db.index.ReplaceOrInsert(indexKey(strings.TrimPrefix(key, Namespace)))
		}
		if cursor == 0 {
			return nil
		}
	}
}

func (db *redisKVDB) Get(key string) (string, error) {
	val, err := redis.String(db.c.Do("GET", Namespace+key))
	if err == redis.ErrNil {
		return "", nil
	}
	return val, err
}

func (db *redisKVDB) Put(key string, val string) error {
	if _, err := db.c.Do("SET", Namespace+key, val); err != nil {
		return err
	}
	db.index.ReplaceOrInsert(indexKey(key))
	return nil
}

// PutIfAbsent uses SETNX. Values are never deleted, so the GET after a refused SETNX sees the winner.
func (db *redisKVDB) PutIfAbsent(key string, val string) (string, error) {
	set, err := redis.Bool(db.c.Do("SETNX", Namespace+key, val))
	if err != nil {
		return "", err
	}
	db.index.ReplaceOrInsert(indexKey(key))
	if set {
		return "", nil
	}
	return db.Get(key)
}

type redisKVDBIterator struct {
	db   *redisKVDB
	keys []string
}

func (it *redisKVDBIterator) Next() (kvdbtypes.Item, error) {
	for len(it.keys) > 0 {
		key := it.keys[0]
		it.keys = it.keys[1:]
		val, err := it.db.Get(key)
		if err != nil {
			return kvdbtypes.Item{}, err
		}
		if val != "" {
			return kvdbtypes.Item{Key: key, Val: val}, nil
		}
	}
	return kvdbtypes.Item{}, io.EOF
}

// Find snapshots the keys of the range. Keys another process put after the open are not seen.
func (db *redisKVDB) Find(beginKey string, endKey string) (kvdbtypes.Iterator, error) {
	var keys []string
	db.index.AscendRange(indexKey(beginKey), indexKey(endKey), func(i llrb.Item) bool {
		keys = append(keys, string(i.(indexKey)))
		return true
	})
	return &redisKVDBIterator{db: db, keys: keys}, nil
}

func (db *redisKVDB) Close() {
	db.c.Close()
}

func (db *redisKVDB) IsConnectionError(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF || db.c.Err() != nil
}
