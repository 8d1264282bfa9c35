// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db

import (
	"bytes"
	"path"
	"strconv"

	"github.com/dgraph-io/badger"
	log "github.com/inconshreveable/log15"
)

var blog = log.New("module", "db.gobadgerdb")

func init() {
	dbCreator := func(name string, dir string, cache int) (DB, error) {
		return NewGoBadgerDB(name, dir, cache)
	}
	registerDBCreator(GoBadgerDBBackendStr, dbCreator, false)
}

// GoBadgerDB badger 后端
type GoBadgerDB struct {
	TransactionDB
	db *badger.DB
}

// NewGoBadgerDB 打开数据库
func NewGoBadgerDB(name string, dir string, cache int) (*GoBadgerDB, error) {
	dbPath := path.Join(dir, name+".db")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		blog.Error("NewGoBadgerDB", "error", err)
		return nil, err
	}
	return &GoBadgerDB{db: db}, nil
}

// Get 读 key，不存在返回 ErrNotFoundInDb
func (db *GoBadgerDB) Get(key []byte) ([]byte, error) {
	var val []byte
	err := db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, ErrNotFoundInDb
		}
		blog.Error("Get", "error", err)
		return nil, err
	}
	return val, nil
}

// Set 写 key
func (db *GoBadgerDB) Set(key []byte, value []byte) error {
	err := db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		blog.Error("Set", "error", err)
		return err
	}
	return nil
}

// SetSync 同步写，badger 事务提交本身落盘
func (db *GoBadgerDB) SetSync(key []byte, value []byte) error {
	return db.Set(key, value)
}

// Delete 删 key
func (db *GoBadgerDB) Delete(key []byte) error {
	err := db.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		blog.Error("Delete", "error", err)
		return err
	}
	return nil
}

// DeleteSync 同步删
func (db *GoBadgerDB) DeleteSync(key []byte) error {
	return db.Delete(key)
}

// DB 取底层 badger 句柄
func (db *GoBadgerDB) DB() *badger.DB {
	return db.db
}

// Close 关闭数据库
func (db *GoBadgerDB) Close() {
	err := db.db.Close()
	if err != nil {
		blog.Error("Close", "error", err)
	}
}

// Print 打印全部键值，调试用
func (db *GoBadgerDB) Print() {
	err := db.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			blog.Info("Print", "key", string(item.Key()), "value", string(val))
		}
		return nil
	})
	if err != nil {
		blog.Error("Print", "error", err)
	}
}

// Stats 数据库统计
func (db *GoBadgerDB) Stats() map[string]string {
	stats := make(map[string]string)
	lsm, vlog := db.db.Size()
	stats["badger.lsm_size"] = strconv.FormatInt(lsm, 10)
	stats["badger.vlog_size"] = strconv.FormatInt(vlog, 10)
	return stats
}

// Iterator 创建范围迭代器，end 为 nil 时按 start 前缀迭代
func (db *GoBadgerDB) Iterator(start []byte, end []byte, reverse bool) Iterator {
	if end == nil {
		end = bytesPrefix(start)
	}
	txn := db.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.Reverse = reverse
	it := txn.NewIterator(opts)
	return &goBadgerDBIt{itBase{start, end, reverse}, txn, it, nil}
}

type goBadgerDBIt struct {
	itBase
	txn *badger.Txn
	it  *badger.Iterator
	err error
}

// Rewind 定位到迭代起点，反向时为上界前最后一个 key
func (dbit *goBadgerDBIt) Rewind() bool {
	if dbit.reverse {
		// 反向 Seek 落在不大于目标的最近一条，上界本身不在范围内
		dbit.it.Seek(dbit.end)
		if dbit.it.Valid() && bytes.Compare(dbit.it.Item().Key(), dbit.end) >= 0 {
			dbit.it.Next()
		}
	} else {
		dbit.it.Seek(dbit.start)
	}
	return dbit.Valid()
}

// Seek 定位到 key，badger 的 Seek 自带方向语义
func (dbit *goBadgerDBIt) Seek(key []byte) bool {
	dbit.it.Seek(key)
	return dbit.Valid()
}

// Next 前进一条，方向由 reverse 决定
func (dbit *goBadgerDBIt) Next() bool {
	dbit.it.Next()
	return dbit.Valid()
}

// Valid 当前位置是否有效
func (dbit *goBadgerDBIt) Valid() bool {
	return dbit.it.Valid() && dbit.checkKey(dbit.Key())
}

// Key 当前 key
func (dbit *goBadgerDBIt) Key() []byte {
	if !dbit.it.Valid() {
		return nil
	}
	return dbit.it.Item().Key()
}

// Value 当前 value
func (dbit *goBadgerDBIt) Value() []byte {
	if !dbit.it.Valid() {
		return nil
	}
	val, err := dbit.it.Item().ValueCopy(nil)
	if err != nil {
		dbit.err = err
		return nil
	}
	return val
}

// ValueCopy 当前 value 的拷贝
func (dbit *goBadgerDBIt) ValueCopy() []byte {
	return dbit.Value()
}

// Error 迭代错误
func (dbit *goBadgerDBIt) Error() error {
	return dbit.err
}

// Close 释放迭代器与只读事务
func (dbit *goBadgerDBIt) Close() {
	dbit.it.Close()
	dbit.txn.Discard()
}

type goBadgerDBBatch struct {
	db     *GoBadgerDB
	writes []kvPair
	size   int
	len    int
}

// NewBatch 创建批量写
func (db *GoBadgerDB) NewBatch(sync bool) Batch {
	return &goBadgerDBBatch{db: db}
}

func (mBatch *goBadgerDBBatch) Set(key, value []byte) {
	mBatch.writes = append(mBatch.writes, kvPair{cloneByte(key), cloneByte(value), false})
	mBatch.size += len(key)
	mBatch.size += len(value)
	mBatch.len += len(value)
}

func (mBatch *goBadgerDBBatch) Delete(key []byte) {
	mBatch.writes = append(mBatch.writes, kvPair{cloneByte(key), nil, true})
	mBatch.size += len(key)
	mBatch.len++
}

// Write 单事务提交全部条目
func (mBatch *goBadgerDBBatch) Write() error {
	err := mBatch.db.db.Update(func(txn *badger.Txn) error {
		for _, pair := range mBatch.writes {
			if pair.delete {
				if err := txn.Delete(pair.key); err != nil {
					return err
				}
				continue
			}
			if err := txn.Set(pair.key, pair.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		blog.Error("Write", "error", err)
		return err
	}
	return nil
}

func (mBatch *goBadgerDBBatch) ValueSize() int {
	return mBatch.size
}

func (mBatch *goBadgerDBBatch) ValueLen() int {
	return mBatch.len
}

func (mBatch *goBadgerDBBatch) Reset() {
	mBatch.writes = mBatch.writes[:0]
	mBatch.size = 0
	mBatch.len = 0
}

func (mBatch *goBadgerDBBatch) UpdateWriteSync(sync bool) {}
