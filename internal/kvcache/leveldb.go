package kvcache

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDB keeps entries in a LevelDB database directory.
type LevelDB struct {
	conn *leveldb.DB
}

// NewLevelDB opens (or creates) a LevelDB instance at the given path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelDB{conn: db}, nil
}

func (l *LevelDB) Get(key string) ([]byte, bool, error) {
	v, err := l.conn.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (l *LevelDB) Set(key string, value []byte) error {
	return l.conn.Put([]byte(key), value, nil)
}

func (l *LevelDB) Delete(key string) error {
	return l.conn.Delete([]byte(key), nil)
}

func (l *LevelDB) Close() error {
	return l.conn.Close()
}
