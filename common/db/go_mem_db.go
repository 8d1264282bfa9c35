// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db

import (
	"sort"
	"sync"

	log "github.com/inconshreveable/log15"
)

var mlog = log.New("module", "db.memdb")

func init() {
	dbCreator := func(name string, dir string, cache int) (DB, error) {
		return NewGoMemDB(name, dir, cache)
	}
	registerDBCreator(MemDBBackendStr, dbCreator, false)
}

// GoMemDB 内存后端，测试与一次性工具用
type GoMemDB struct {
	TransactionDB
	mtx sync.RWMutex
	db  map[string][]byte
}

// NewGoMemDB 创建内存数据库
func NewGoMemDB(name string, dir string, cache int) (*GoMemDB, error) {
	return &GoMemDB{db: make(map[string][]byte)}, nil
}

// Get 读 key，不存在返回 ErrNotFoundInDb
func (db *GoMemDB) Get(key []byte) ([]byte, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	value, ok := db.db[string(key)]
	if !ok {
		return nil, ErrNotFoundInDb
	}
	return cloneByte(value), nil
}

// Set 写 key
func (db *GoMemDB) Set(key []byte, value []byte) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	db.db[string(key)] = cloneByte(value)
	return nil
}

// SetSync 同步写，内存后端与 Set 等价
func (db *GoMemDB) SetSync(key []byte, value []byte) error {
	return db.Set(key, value)
}

// Delete 删 key
func (db *GoMemDB) Delete(key []byte) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	delete(db.db, string(key))
	return nil
}

// DeleteSync 同步删，内存后端与 Delete 等价
func (db *GoMemDB) DeleteSync(key []byte) error {
	return db.Delete(key)
}

// Close 释放数据
func (db *GoMemDB) Close() {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	db.db = make(map[string][]byte)
}

// Print 打印全部键值，调试用
func (db *GoMemDB) Print() {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	for key, value := range db.db {
		mlog.Info("Print", "key", key, "value", string(value))
	}
}

// Stats 数据库统计
func (db *GoMemDB) Stats() map[string]string {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	stats := make(map[string]string)
	stats["database.type"] = "memdb"
	return stats
}

// Iterator 创建迭代器，内部为创建时刻的快照
func (db *GoMemDB) Iterator(start []byte, end []byte, reverse bool) Iterator {
	if end == nil {
		end = bytesPrefix(start)
	}
	base := itBase{start, end, reverse}

	db.mtx.RLock()
	var keys []string
	for k := range db.db {
		if base.checkKey([]byte(k)) {
			keys = append(keys, k)
		}
	}
	values := make(map[string][]byte, len(keys))
	for _, k := range keys {
		values[k] = cloneByte(db.db[k])
	}
	db.mtx.RUnlock()

	sort.Strings(keys)
	return &goMemDBIt{base, keys, values, -1}
}

type goMemDBIt struct {
	itBase
	keys   []string
	values map[string][]byte
	index  int
}

// Rewind 定位到迭代起点
func (dbit *goMemDBIt) Rewind() bool {
	if dbit.reverse {
		dbit.index = len(dbit.keys) - 1
	} else {
		dbit.index = 0
	}
	return dbit.Valid()
}

// Seek 定位到 key。反向迭代时落到不大于 key 的最近一条
func (dbit *goMemDBIt) Seek(key []byte) bool {
	pos := sort.SearchStrings(dbit.keys, string(key))
	if dbit.reverse {
		if pos < len(dbit.keys) && dbit.keys[pos] == string(key) {
			dbit.index = pos
		} else {
			dbit.index = pos - 1
		}
	} else {
		dbit.index = pos
	}
	return dbit.Valid()
}

// Next 前进一条，方向由 reverse 决定
func (dbit *goMemDBIt) Next() bool {
	if dbit.reverse {
		dbit.index--
	} else {
		dbit.index++
	}
	return dbit.Valid()
}

// Valid 当前位置是否有效
func (dbit *goMemDBIt) Valid() bool {
	return dbit.index >= 0 && dbit.index < len(dbit.keys)
}

// Key 当前 key
func (dbit *goMemDBIt) Key() []byte {
	if !dbit.Valid() {
		return nil
	}
	return []byte(dbit.keys[dbit.index])
}

// Value 当前 value
func (dbit *goMemDBIt) Value() []byte {
	if !dbit.Valid() {
		return nil
	}
	return dbit.values[dbit.keys[dbit.index]]
}

// ValueCopy 当前 value 的拷贝
func (dbit *goMemDBIt) ValueCopy() []byte {
	return cloneByte(dbit.Value())
}

// Error 迭代错误，快照实现恒为 nil
func (dbit *goMemDBIt) Error() error { return nil }

// Close 释放迭代器
func (dbit *goMemDBIt) Close() {
	dbit.keys = nil
	dbit.values = nil
	dbit.index = -1
}

type memBatch struct {
	db     *GoMemDB
	writes []kvPair
	size   int
	len    int
}

type kvPair struct {
	key    []byte
	value  []byte
	delete bool
}

// NewBatch 创建批量写
func (db *GoMemDB) NewBatch(sync bool) Batch {
	return &memBatch{db: db}
}

func (mBatch *memBatch) Set(key, value []byte) {
	mBatch.writes = append(mBatch.writes, kvPair{cloneByte(key), cloneByte(value), false})
	mBatch.size += len(key)
	mBatch.size += len(value)
	mBatch.len += len(value)
}

func (mBatch *memBatch) Delete(key []byte) {
	mBatch.writes = append(mBatch.writes, kvPair{cloneByte(key), nil, true})
	mBatch.size += len(key)
	mBatch.len++
}

// Write 一次加锁写全部条目，对读方整体可见
func (mBatch *memBatch) Write() error {
	mBatch.db.mtx.Lock()
	defer mBatch.db.mtx.Unlock()
	for _, pair := range mBatch.writes {
		if pair.delete {
			delete(mBatch.db.db, string(pair.key))
			continue
		}
		mBatch.db.db[string(pair.key)] = pair.value
	}
	return nil
}

func (mBatch *memBatch) ValueSize() int {
	return mBatch.size
}

func (mBatch *memBatch) ValueLen() int {
	return mBatch.len
}

func (mBatch *memBatch) Reset() {
	mBatch.writes = mBatch.writes[:0]
	mBatch.size = 0
	mBatch.len = 0
}

func (mBatch *memBatch) UpdateWriteSync(sync bool) {}
