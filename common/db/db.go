// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db 统一的 KV 存储抽象，支持 leveldb、badger、pegasus 与内存后端
package db

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrNotFoundInDb key 不存在
var ErrNotFoundInDb = errors.New("ErrNotFoundInDb")

// 后端名称
const (
	LevelDBBackendStr     = "leveldb"
	GoBadgerDBBackendStr  = "gobadgerdb"
	GoPegasusDbBackendStr = "pegasus"
	MemDBBackendStr       = "memdb"
)

// IteratorPageSize 分页迭代的单页条数
const IteratorPageSize = 10240

// KV 基本读写接口
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key []byte, value []byte) (err error)
	Begin()
	Commit() error
	Rollback()
}

// IteratorDB 范围迭代接口。end 为 nil 时按 start 的前缀迭代
type IteratorDB interface {
	Iterator(start []byte, end []byte, reverse bool) Iterator
}

// Iterator 迭代器
type Iterator interface {
	Rewind() bool
	Seek(key []byte) bool
	Next() bool
	Valid() bool
	Key() []byte
	Value() []byte
	ValueCopy() []byte
	Error() error
	Close()
}

// Batch 批量写，Write 调用前不落盘
type Batch interface {
	Set(key, value []byte)
	Delete(key []byte)
	Write() error
	ValueSize() int
	ValueLen() int
	Reset()
	UpdateWriteSync(sync bool)
}

// DB 完整的存储后端接口
type DB interface {
	KV
	IteratorDB
	SetSync([]byte, []byte) error
	Delete([]byte) error
	DeleteSync([]byte) error
	Close()
	NewBatch(sync bool) Batch
	Print()
	Stats() map[string]string
}

// TransactionDB 事务接口的空实现，后端按需覆盖
type TransactionDB struct{}

// Begin 空实现
func (db *TransactionDB) Begin() {}

// Commit 空实现
func (db *TransactionDB) Commit() error { return nil }

// Rollback 空实现
func (db *TransactionDB) Rollback() {}

type dbCreator func(name string, dir string, cache int) (DB, error)

var backends = map[string]dbCreator{}

func registerDBCreator(backend string, creator dbCreator, force bool) {
	_, ok := backends[backend]
	if !force && ok {
		return
	}
	backends[backend] = creator
}

// NewDB 按名称创建后端，失败直接 panic
func NewDB(name string, backend string, dir string, cache int32) DB {
	dbCreator, ok := backends[backend]
	if !ok {
		fmt.Printf("Error initializing DB: %v\n", backend)
		panic("initializing DB error")
	}
	db, err := dbCreator(name, dir, int(cache))
	if err != nil {
		fmt.Printf("Error initializing DB: %v\n", err)
		panic("initializing DB error")
	}
	return db
}

// itBase 迭代范围判定的公共部分
type itBase struct {
	start   []byte
	end     []byte
	reverse bool
}

func (it *itBase) checkKey(key []byte) bool {
	if it.end == nil {
		return bytes.HasPrefix(key, it.start)
	}
	if it.start != nil && bytes.Compare(key, it.start) < 0 {
		return false
	}
	if bytes.Compare(key, it.end) >= 0 {
		return false
	}
	return true
}

// bytesPrefix 前缀的右开边界
func bytesPrefix(prefix []byte) []byte {
	var limit []byte
	for i := len(prefix) - 1; i >= 0; i-- {
		c := prefix[i]
		if c < 0xff {
			limit = make([]byte, i+1)
			copy(limit, prefix)
			limit[i] = c + 1
			break
		}
	}
	return limit
}

func cloneByte(v []byte) []byte {
	value := make([]byte, len(v))
	copy(value, v)
	return value
}
