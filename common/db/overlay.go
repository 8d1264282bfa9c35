// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db

// Overlay 叠在底层存储上的内存写缓冲，一次操作一个。
// 写只进缓冲，读优先命中缓冲，因此操作内部能看到自己的中间状态；
// 缓冲本身从不落盘，操作成功后由调用方把回执里的 KV 集合批量写入底层，
// 失败时直接丢弃整个 Overlay，底层不会留下半截状态。
type Overlay struct {
	TransactionDB
	db    DB
	cache map[string][]byte
	keys  []string
}

// NewOverlay 在底层存储上创建空缓冲
func NewOverlay(db DB) *Overlay {
	return &Overlay{
		db:    db,
		cache: make(map[string][]byte),
	}
}

// Get 读 key，缓冲优先。缓冲中值为 nil 表示本次操作已删除该 key
func (o *Overlay) Get(key []byte) ([]byte, error) {
	if value, ok := o.cache[string(key)]; ok {
		if value == nil {
			return nil, ErrNotFoundInDb
		}
		return cloneByte(value), nil
	}
	return o.db.Get(key)
}

// Set 写入缓冲，value 为 nil 表示删除
func (o *Overlay) Set(key []byte, value []byte) error {
	skey := string(key)
	if _, ok := o.cache[skey]; !ok {
		o.keys = append(o.keys, skey)
	}
	if value == nil {
		o.cache[skey] = nil
		return nil
	}
	o.cache[skey] = cloneByte(value)
	return nil
}

// GetSetKeys 写过的键，按首次写入顺序
func (o *Overlay) GetSetKeys() []string {
	return o.keys
}

// Reset 丢弃全部缓冲
func (o *Overlay) Reset() {
	o.cache = make(map[string][]byte)
	o.keys = nil
}
