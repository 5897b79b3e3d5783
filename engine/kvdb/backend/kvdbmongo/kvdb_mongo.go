// Package kvdbmongo keeps KVDB items in a mongodb collection, one document per key.
package kvdbmongo

import (
	"io"

	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/kvdb/types"
	"github.com/pkg/errors"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

const defaultDBName = "battlezone"

// kvDoc is the document of a key
type kvDoc struct {
	Key string `bson:"_id"`
	Val string `bson:"v"`
}

type mongoKVDB struct {
	s *mgo.Session
	c *mgo.Collection
}

// OpenMongoKVDB dials url and uses collectionName of dbname, or of the battlezone database when dbname is empty
func OpenMongoKVDB(url string, dbname string, collectionName string) (kvdbtypes.Engine, error) {
	gwlog.Debugf("kvdb: dialing mongodb %s", url)
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, errors.Wrapf(err, "mongodb dial %s", url)
	}

	session.SetMode(mgo.Strong, true)
	session.SetSafe(&mgo.Safe{WMode: "majority"})
	if dbname == "" {
		dbname = defaultDBName
	}
	return &mongoKVDB{
		s: session,
		c: session.DB(dbname).C(collectionName),
	}, nil
}

func (db *mongoKVDB) Get(key string) (string, error) {
	var doc kvDoc
	err := db.c.FindId(key).One(&doc)
	if err == mgo.ErrNotFound {
		return "", nil
	}
	return doc.Val, err
}

func (db *mongoKVDB) Put(key string, val string) error {
	_, err := db.c.UpsertId(key, bson.M{"$set": bson.M{"v": val}})
	return err
}

// PutIfAbsent relies on the unique _id index: the second insert of a key fails as a duplicate
func (db *mongoKVDB) PutIfAbsent(key string, val string) (string, error) {
	err := db.c.Insert(&kvDoc{Key: key, Val: val})
	if err == nil {
		return "", nil
	}
	if !mgo.IsDup(err) {
		return "", err
	}
	return db.Get(key)
}

type mongoKVDBIterator struct {
	it *mgo.Iter
}

func (it *mongoKVDBIterator) Next() (kvdbtypes.Item, error) {
	var doc kvDoc
	if it.it.Next(&doc) {
		return kvdbtypes.Item{Key: doc.Key, Val: doc.Val}, nil
	}
	if err := it.it.Close(); err != nil {
		return kvdbtypes.Item{}, err
	}
	return kvdbtypes.Item{}, io.EOF
}

func (db *mongoKVDB) Find(beginKey string, endKey string) (kvdbtypes.Iterator, error) {
	q := db.c.Find(bson.M{"_id": bson.M{"$gte": beginKey, "$lt": endKey}}).Sort("_id")
	return &mongoKVDBIterator{it: q.Iter()}, nil
}

func (db *mongoKVDB) Close() {
	db.s.Close()
}

func (db *mongoKVDB) IsConnectionError(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF || db.s.Ping() != nil
}
