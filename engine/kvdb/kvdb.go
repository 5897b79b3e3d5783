// Package kvdb is the asynchronous key-value store used for reward ledgers and quest progress.
//
// Operations are queued to a dedicated routine that owns the backend connection. Callbacks are posted back to the
// game routine, so game code never blocks on the database and never sees a callback run concurrently with a tick.
package kvdb

import (
	"io"
	"strconv"
	"sync/atomic"

	"github.com/cogoffice/battlezone/engine/config"
	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/kvdb/backend/kvdbmem"
	"github.com/cogoffice/battlezone/engine/kvdb/backend/kvdbmongo"
	"github.com/cogoffice/battlezone/engine/kvdb/backend/kvdbredis"
	"github.com/cogoffice/battlezone/engine/kvdb/backend/kvdbrediscluster"
	"github.com/cogoffice/battlezone/engine/kvdb/backend/kvdbsqlite"
	"github.com/cogoffice/battlezone/engine/kvdb/types"
	"github.com/cogoffice/battlezone/engine/opmon"
	"github.com/cogoffice/battlezone/engine/post"
	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
)

// KVDBGetCallback is type of KVDB Get callback
type KVDBGetCallback func(val string, err error)

// KVDBPutCallback is type of KVDB Put callback
type KVDBPutCallback func(err error)

// KVDBGetOrPutCallback is type of KVDB GetOrPut callback. oldVal is "" if the value was put.
type KVDBGetOrPutCallback func(oldVal string, err error)

// KVDBGetRangeCallback is type of KVDB GetRange callback
type KVDBGetRangeCallback func(items []kvdbtypes.Item, err error)

// OpenFunc connects a backend. It is called on the KVDB routine, again after every connection error.
type OpenFunc func() (kvdbtypes.Engine, error)

// Opener returns the OpenFunc of the configured backend
func Opener(cfg *config.KVDBConfig) (OpenFunc, error) {
	switch cfg.Type {
	case "mem":
		return kvdbmem.OpenMemKVDB, nil
	case "mongodb":
		return func() (kvdbtypes.Engine, error) {
			return kvdbmongo.OpenMongoKVDB(cfg.Url, cfg.DB, cfg.Collection)
		}, nil
	case "redis":
		dbindex, err := strconv.Atoi(cfg.DB)
		if err != nil {
			return nil, errors.Wrap(err, "redis db must be integer")
		}
		return func() (kvdbtypes.Engine, error) {
			return kvdbredis.OpenRedisKVDB(cfg.Url, dbindex)
		}, nil
	case "redis_cluster":
		startNodes := cfg.StartNodes.ToList()
		return func() (kvdbtypes.Engine, error) {
			return kvdbrediscluster.OpenRedisKVDB(startNodes)
		}, nil
	case "sqlite":
		return func() (kvdbtypes.Engine, error) {
			return kvdbsqlite.OpenSQLiteKVDB(cfg.Url)
		}, nil
	}
	return nil, errors.Errorf("KVDB type %s is not implemented", cfg.Type)
}

// KVDB queues operations to one backend connection
type KVDB struct {
	open       OpenFunc
	engine     kvdbtypes.Engine
	poster     post.Poster
	opQueue    *xnsyncutil.SyncQueue
	terminated *xnsyncutil.OneTimeCond
	closed     atomic.Bool

	recentWarnedQueueLen int
}

// New starts the KVDB routine. Callbacks are posted to poster.
func New(open OpenFunc, poster post.Poster) *KVDB {
	db := &KVDB{
		open:       open,
		poster:     poster,
		opQueue:    xnsyncutil.NewSyncQueue(),
		terminated: xnsyncutil.NewOneTimeCond(),
	}
	go db.routine()
	return db
}

type getReq struct {
	key      string
	callback KVDBGetCallback
}

type putReq struct {
	key      string
	val      string
	callback KVDBPutCallback
}

type getOrPutReq struct {
	key      string
	val      string
	callback KVDBGetOrPutCallback
}

type getRangeReq struct {
	beginKey string
	endKey   string
	callback KVDBGetRangeCallback
}

// Get reads the value of key, "" if not found
func (db *KVDB) Get(key string, callback KVDBGetCallback) {
	db.push(&getReq{
		key, callback,
	})
}

// Put writes the value of key
func (db *KVDB) Put(key string, val string, callback KVDBPutCallback) {
	db.push(&putReq{
		key, val, callback,
	})
}

// GetOrPut puts val only if key has no value yet, and returns the previous value
//
// The engine puts atomically, so two GetOrPut of the same key never both see "", even from two processes.
func (db *KVDB) GetOrPut(key string, val string, callback KVDBGetOrPutCallback) {
	db.push(&getOrPutReq{
		key, val, callback,
	})
}

// GetRange reads all items with beginKey <= key < endKey, ordered by key
func (db *KVDB) GetRange(beginKey string, endKey string, callback KVDBGetRangeCallback) {
	db.push(&getRangeReq{
		beginKey, endKey, callback,
	})
}

// NextLargerKey returns the smallest key larger than key
func NextLargerKey(key string) string {
	return key + "\x00" // the next string that is larger than key, but smaller than any other keys > key
}

// Close stops accepting operations. Queued operations still run.
func (db *KVDB) Close() {
	if db.closed.CompareAndSwap(false, true) {
		db.opQueue.Close()
	}
}

// WaitTerminated waits until all queued operations are done and the backend is closed
func (db *KVDB) WaitTerminated() {
	db.terminated.Wait()
}

func (db *KVDB) push(req interface{}) {
	if db.closed.Load() {
		gwlog.Errorf("KVDB is closed, dropping %T", req)
		return
	}
	db.opQueue.Push(req)
	db.checkOperationQueueLen()
}

func (db *KVDB) checkOperationQueueLen() {
	qlen := db.opQueue.Len()
	if qlen > 100 && qlen%100 == 0 && db.recentWarnedQueueLen != qlen {
		gwlog.Warnf("KVDB operation queue length = %d", qlen)
		db.recentWarnedQueueLen = qlen
	}
}

func (db *KVDB) assureEngineReady() (err error) {
	if db.engine != nil { // connection is valid
		return
	}
	db.engine, err = db.open()
	if err != nil {
		db.engine = nil
	}
	return
}

func (db *KVDB) routine() {
	for {
		req := db.opQueue.Pop()
		if req == nil { // queue is closed, returning nil
			break
		}

		if err := db.assureEngineReady(); err != nil {
			gwlog.Errorf("KVDB engine is not ready: %s", err)
			db.fail(req, err)
			continue
		}

		var op *opmon.Operation
		switch r := req.(type) {
		case *getReq:
			op = opmon.StartOperation("kvdb.get")
			db.handleGetReq(r)
		case *putReq:
			op = opmon.StartOperation("kvdb.put")
			db.handlePutReq(r)
		case *getOrPutReq:
			op = opmon.StartOperation("kvdb.getOrPut")
			db.handleGetOrPutReq(r)
		case *getRangeReq:
			op = opmon.StartOperation("kvdb.getRange")
			db.handleGetRangeReq(r)
		default:
			gwlog.Panicf("unknown kvdb request: %T", req)
		}
		op.Finish(consts.KVDB_OP_TIMEOUT_WARN)
	}

	if db.engine != nil {
		db.engine.Close()
		db.engine = nil
	}
	db.terminated.Signal()
}

func (db *KVDB) fail(req interface{}, err error) {
	switch r := req.(type) {
	case *getReq:
		db.post(r.callback != nil, func() { r.callback("", err) })
	case *putReq:
		db.post(r.callback != nil, func() { r.callback(err) })
	case *getOrPutReq:
		db.post(r.callback != nil, func() { r.callback("", err) })
	case *getRangeReq:
		db.post(r.callback != nil, func() { r.callback(nil, err) })
	}
}

func (db *KVDB) post(hasCallback bool, f post.PostCallback) {
	if hasCallback {
		db.poster.Post(f)
	}
}

func (db *KVDB) checkConnection(err error) {
	if err != nil && db.engine.IsConnectionError(err) {
		db.engine.Close()
		db.engine = nil
	}
}

func (db *KVDB) handleGetReq(getReq *getReq) {
	val, err := db.engine.Get(getReq.key)
	db.post(getReq.callback != nil, func() {
		getReq.callback(val, err)
	})
	db.checkConnection(err)
}

func (db *KVDB) handlePutReq(putReq *putReq) {
	err := db.engine.Put(putReq.key, putReq.val)
	db.post(putReq.callback != nil, func() {
		putReq.callback(err)
	})
	db.checkConnection(err)
}

func (db *KVDB) handleGetOrPutReq(req *getOrPutReq) {
	oldVal, err := db.engine.PutIfAbsent(req.key, req.val)
	db.post(req.callback != nil, func() {
		req.callback(oldVal, err)
	})
	db.checkConnection(err)
}

func (db *KVDB) handleGetRangeReq(getRangeReq *getRangeReq) {
	it, err := db.engine.Find(getRangeReq.beginKey, getRangeReq.endKey)
	if err != nil {
		db.post(getRangeReq.callback != nil, func() {
			getRangeReq.callback(nil, err)
		})
		db.checkConnection(err)
		return
	}

	var items []kvdbtypes.Item
	for {
		item, err := it.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			db.post(getRangeReq.callback != nil, func() {
				getRangeReq.callback(nil, err)
			})
			db.checkConnection(err)
			return
		}

		items = append(items, item)
	}

	db.post(getRangeReq.callback != nil, func() {
		getRangeReq.callback(items, nil)
	})
}
