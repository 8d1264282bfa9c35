// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"strconv"

	"github.com/33cn/bountypot/types"
)

// execLocal 从回执日志派生本地索引和事件流水。
// 索引只由日志驱动，重放同一份日志得到同一份索引。
// 返回的 KV 跟随主写集同批落库。
func (e *Engine) execLocal(receipt *types.Receipt) ([]*types.KeyValue, []*types.PotEvent) {
	if receipt == nil || len(receipt.Logs) == 0 {
		return nil, nil
	}
	var kvs []*types.KeyValue
	var events []*types.PotEvent
	seq := readCount(e.store, eventCountKey())
	for _, lg := range receipt.Logs {
		seq++
		event := &types.PotEvent{Seq: seq, Ty: lg.Ty, Log: lg.Log}
		kvs = append(kvs, &types.KeyValue{Key: calcEventSeqKey(seq), Value: types.Encode(event)})
		events = append(events, event)
		kvs = append(kvs, e.indexKV(lg)...)
	}
	kvs = append(kvs, &types.KeyValue{
		Key:   eventCountKey(),
		Value: []byte(strconv.FormatInt(seq, 10)),
	})
	return kvs, events
}

func (e *Engine) indexKV(lg *types.ReceiptLog) []*types.KeyValue {
	switch lg.Ty {
	case types.TyLogPotCreated:
		var r types.ReceiptPotCreated
		if err := types.Decode(lg.Log, &r); err != nil || r.Pot == nil {
			elog.Error("indexKV decode", "ty", lg.Ty, "err", err)
			return nil
		}
		return []*types.KeyValue{
			addPotStatusIndex(types.PotStatusActive, r.Pot.PotId),
			addPotCreatorIndex(r.Pot.Creator, r.Pot.PotId),
		}
	case types.TyLogPotAttempted:
		var r types.ReceiptPotAttempted
		if err := types.Decode(lg.Log, &r); err != nil || r.Attempt == nil {
			elog.Error("indexKV decode", "ty", lg.Ty, "err", err)
			return nil
		}
		return []*types.KeyValue{
			addHunterIndex(r.Attempt.Hunter, r.Attempt.AttemptId, r.Attempt.PotId),
			addPotAttemptIndex(r.Attempt.PotId, r.Attempt.AttemptId),
		}
	case types.TyLogPotSolved:
		var r types.ReceiptPotSolved
		if err := types.Decode(lg.Log, &r); err != nil || r.Pot == nil {
			elog.Error("indexKV decode", "ty", lg.Ty, "err", err)
			return nil
		}
		return []*types.KeyValue{
			delPotStatusIndex(types.PotStatusActive, r.Pot.PotId),
			addPotStatusIndex(types.PotStatusSolved, r.Pot.PotId),
		}
	case types.TyLogPotExpired:
		var r types.ReceiptPotExpired
		if err := types.Decode(lg.Log, &r); err != nil || r.Pot == nil {
			elog.Error("indexKV decode", "ty", lg.Ty, "err", err)
			return nil
		}
		return []*types.KeyValue{
			delPotStatusIndex(types.PotStatusActive, r.Pot.PotId),
			addPotStatusIndex(types.PotStatusExpired, r.Pot.PotId),
		}
	}
	// 失败回执、配置变更和账户日志只进事件流水
	return nil
}

func addPotStatusIndex(status int32, potId int64) *types.KeyValue {
	return &types.KeyValue{
		Key:   calcPotStatusIndexKey(status, potId),
		Value: types.Encode(&types.PotRecord{PotId: potId}),
	}
}

// 删除用 nil value 标记，落库时转成 batch.Delete
func delPotStatusIndex(status int32, potId int64) *types.KeyValue {
	return &types.KeyValue{Key: calcPotStatusIndexKey(status, potId)}
}

func addPotCreatorIndex(addr string, potId int64) *types.KeyValue {
	return &types.KeyValue{
		Key:   calcPotCreatorIndexKey(addr, potId),
		Value: types.Encode(&types.PotRecord{PotId: potId}),
	}
}

func addHunterIndex(addr string, attemptId, potId int64) *types.KeyValue {
	return &types.KeyValue{
		Key:   calcHunterIndexKey(addr, attemptId),
		Value: types.Encode(&types.AttemptRecord{AttemptId: attemptId, PotId: potId}),
	}
}

func addPotAttemptIndex(potId, attemptId int64) *types.KeyValue {
	return &types.KeyValue{
		Key:   calcPotAttemptIndexKey(potId, attemptId),
		Value: types.Encode(&types.AttemptRecord{AttemptId: attemptId, PotId: potId}),
	}
}
