// Package kvdbrediscluster keeps KVDB items on a redis cluster. Find is not supported.
package kvdbrediscluster

import (
	"io"
	"time"

	"github.com/chasex/redis-go-cluster"
	"github.com/cogoffice/battlezone/engine/kvdb/backend/kvdbredis"
	"github.com/cogoffice/battlezone/engine/kvdb/types"
	"github.com/pkg/errors"
)

// ErrFindNotSupported is returned by Find: the keys of a range are spread over the nodes
var ErrFindNotSupported = errors.New("find is not supported on redis cluster")

type redisClusterKVDB struct {
	c redis.Cluster
}

// OpenRedisKVDB connects the cluster through its start nodes
func OpenRedisKVDB(startNodes []string) (kvdbtypes.Engine, error) {
	c, err := redis.NewCluster(&redis.Options{
		StartNodes:   startNodes,
		ConnTimeout:  5 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		KeepAlive:    4,
		AliveTime:    10 * time.Minute,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "redis cluster %v", startNodes)
	}
	return &redisClusterKVDB{c: c}, nil
}

func (db *redisClusterKVDB) Get(key string) (string, error) {
	r, err := db.c.Do("GET", kvdbredis.Namespace+key)
	if err != nil || r == nil {
		return "", err
	}
	return redis.String(r, nil)
}

func (db *redisClusterKVDB) Put(key string, val string) error {
	_, err := db.c.Do("SET", kvdbredis.Namespace+key, val)
	return err
}

func (db *redisClusterKVDB) PutIfAbsent(key string, val string) (string, error) {
	set, err := redis.Int(db.c.Do("SETNX", kvdbredis.Namespace+key, val))
	if err != nil {
		return "", err
	}
	if set == 1 {
		return "", nil
	}
	return db.Get(key)
}

func (db *redisClusterKVDB) Find(beginKey string, endKey string) (kvdbtypes.Iterator, error) {
	return nil, ErrFindNotSupported
}

// Close is a no-op: the cluster client keeps its node connections alive on its own
func (db *redisClusterKVDB) Close() {
}

func (db *redisClusterKVDB) IsConnectionError(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
