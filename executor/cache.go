// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"github.com/33cn/bountypot/types"
	farm "github.com/dgryski/go-farm"
	lru "github.com/hashicorp/golang-lru"
)

// recordCache 热点记录缓存。key 取 farm 哈希，值存解码后的记录，
// 查询路径省一次反序列化。写入路径在落库后按写集失效。
type recordCache struct {
	lru *lru.Cache
}

func newRecordCache(size int) *recordCache {
	c, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return &recordCache{lru: c}
}

func cacheKey(key []byte) uint64 {
	return farm.Hash64(key)
}

func (c *recordCache) getPot(key []byte) (*types.Pot, bool) {
	value, ok := c.lru.Get(cacheKey(key))
	if !ok {
		return nil, false
	}
	pot, ok := value.(*types.Pot)
	if !ok {
		return nil, false
	}
	cp := *pot
	return &cp, true
}

func (c *recordCache) setPot(key []byte, pot *types.Pot) {
	cp := *pot
	c.lru.Add(cacheKey(key), &cp)
}

func (c *recordCache) getAttempt(key []byte) (*types.Attempt, bool) {
	value, ok := c.lru.Get(cacheKey(key))
	if !ok {
		return nil, false
	}
	attempt, ok := value.(*types.Attempt)
	if !ok {
		return nil, false
	}
	cp := *attempt
	return &cp, true
}

func (c *recordCache) setAttempt(key []byte, attempt *types.Attempt) {
	cp := *attempt
	c.lru.Add(cacheKey(key), &cp)
}

// invalidate 按写集逐 key 失效
func (c *recordCache) invalidate(kvs []*types.KeyValue) {
	for _, kv := range kvs {
		c.lru.Remove(cacheKey(kv.Key))
	}
}
