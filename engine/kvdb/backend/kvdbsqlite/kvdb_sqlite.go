// Package kvdbsqlite stores KVDB items in a single-file SQLite database through the pure Go modernc driver.
package kvdbsqlite

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/cogoffice/battlezone/engine/kvdb/types"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

type sqliteKVDB struct {
	path string
	db   *sql.DB
}

// OpenSQLiteKVDB opens or creates the database file for KVDB backend
func OpenSQLiteKVDB(path string) (kvdbtypes.Engine, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	db.SetMaxOpenConns(1) // only the KVDB routine uses the connection

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}

	// try to create the __kv__ table if not exists
	_, err = db.Exec("CREATE TABLE IF NOT EXISTS __kv__(key TEXT NOT NULL PRIMARY KEY, val TEXT NOT NULL)")
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create __kv__ table")
	}

	return &sqliteKVDB{
		path: path,
		db:   db,
	}, nil
}

func (kvdb *sqliteKVDB) String() string {
	return fmt.Sprintf("sqlite<%s>", kvdb.path)
}

func (kvdb *sqliteKVDB) Get(key string) (val string, err error) {
	row := kvdb.db.QueryRow("SELECT val FROM __kv__ WHERE key = ?", key)
	err = row.Scan(&val)
	if err == sql.ErrNoRows {
		err = nil // not found, use default val ""
	}
	return
}

func (kvdb *sqliteKVDB) Put(key string, val string) (err error) {
	_, err = kvdb.db.Exec("INSERT INTO __kv__(key, val) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET val = excluded.val", key, val)
	return
}

func (kvdb *sqliteKVDB) PutIfAbsent(key string, val string) (string, error) {
	res, err := kvdb.db.Exec("INSERT INTO __kv__(key, val) VALUES(?, ?) ON CONFLICT(key) DO NOTHING", key, val)
	if err != nil {
		return "", err
	}
	n, err := res.RowsAffected()
	if err != nil || n == 1 {
		return "", err
	}
	return kvdb.Get(key)
}

type sqliteKVDBIterator struct {
	rows *sql.Rows
}

func (it *sqliteKVDBIterator) Next() (kvdbtypes.Item, error) {
	if it.rows.Next() {
		var item kvdbtypes.Item
		err := it.rows.Scan(&item.Key, &item.Val)
		return item, err
	}
	err := it.rows.Err()
	it.rows.Close()
	if err != nil {
		return kvdbtypes.Item{}, err
	}
	return kvdbtypes.Item{}, io.EOF
}

func (kvdb *sqliteKVDB) Find(beginKey string, endKey string) (kvdbtypes.Iterator, error) {
	rows, err := kvdb.db.Query("SELECT key, val FROM __kv__ WHERE key >= ? AND key < ? ORDER BY key", beginKey, endKey)
	if err != nil {
		return nil, err
	}
	return &sqliteKVDBIterator{rows: rows}, nil
}

func (kvdb *sqliteKVDB) Close() {
	kvdb.db.Close()
}

func (kvdb *sqliteKVDB) IsConnectionError(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF || err == sql.ErrConnDone
}
