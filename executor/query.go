// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	dbm "github.com/33cn/bountypot/common/db"
	"github.com/33cn/bountypot/types"
)

// 分页默认值
const (
	defaultListCount  = int32(20)
	maxListCount      = int32(100)
	defaultEventCount = int32(100)
	maxEventCount     = int32(1000)
)

// Query 统一查询入口，funcName 路由到具体查询
func (e *Engine) Query(funcName string, payload []byte) (interface{}, error) {
	switch funcName {
	case "GetPot":
		var req types.ReqPot
		if err := types.Decode(payload, &req); err != nil {
			return nil, types.ErrInvalidParam
		}
		return e.GetPot(&req)
	case "GetPots":
		var req types.ReqPotList
		if err := types.Decode(payload, &req); err != nil {
			return nil, types.ErrInvalidParam
		}
		return e.GetPots(&req)
	case "GetActivePots":
		var req types.ReqPotList
		if len(payload) > 0 {
			if err := types.Decode(payload, &req); err != nil {
				return nil, types.ErrInvalidParam
			}
		}
		req.Status = types.PotStatusActive
		return e.GetPots(&req)
	case "GetAttempt":
		var req types.ReqAttempt
		if err := types.Decode(payload, &req); err != nil {
			return nil, types.ErrInvalidParam
		}
		return e.GetAttempt(&req)
	case "GetPotAttempts":
		var req types.ReqPotAttempts
		if err := types.Decode(payload, &req); err != nil {
			return nil, types.ErrInvalidParam
		}
		return e.GetPotAttempts(&req)
	case "GetBalance":
		var req types.ReqAddr
		if err := types.Decode(payload, &req); err != nil {
			return nil, types.ErrInvalidParam
		}
		return e.GetBalance(&req)
	case "GetEvents":
		var req types.ReqEvents
		if err := types.Decode(payload, &req); err != nil {
			return nil, types.ErrInvalidParam
		}
		return e.GetEvents(&req)
	case "GetStatus":
		return e.GetStatus()
	default:
		return nil, types.ErrActionNotSupport
	}
}

// loadPot 读奖池，优先走缓存
func (e *Engine) loadPot(id int64) (*types.Pot, error) {
	key := PotKey(id)
	if pot, ok := e.cache.getPot(key); ok {
		return pot, nil
	}
	value, err := e.store.Get(key)
	if err != nil {
		if err == dbm.ErrNotFoundInDb {
			return nil, types.ErrPotNotFound
		}
		return nil, err
	}
	var pot types.Pot
	if err := types.Decode(value, &pot); err != nil {
		return nil, err
	}
	e.cache.setPot(key, &pot)
	return &pot, nil
}

func (e *Engine) loadAttempt(id int64) (*types.Attempt, error) {
	key := AttemptKey(id)
	if attempt, ok := e.cache.getAttempt(key); ok {
		return attempt, nil
	}
	value, err := e.store.Get(key)
	if err != nil {
		if err == dbm.ErrNotFoundInDb {
			return nil, types.ErrAttemptNotFound
		}
		return nil, err
	}
	var attempt types.Attempt
	if err := types.Decode(value, &attempt); err != nil {
		return nil, err
	}
	e.cache.setAttempt(key, &attempt)
	return &attempt, nil
}

// GetPot 按编号查询奖池
func (e *Engine) GetPot(req *types.ReqPot) (*types.ReplyPot, error) {
	pot, err := e.loadPot(req.PotId)
	if err != nil {
		return nil, err
	}
	return &types.ReplyPot{Pot: pot}, nil
}

// GetAttempt 按编号查询尝试
func (e *Engine) GetAttempt(req *types.ReqAttempt) (*types.ReplyAttempt, error) {
	attempt, err := e.loadAttempt(req.AttemptId)
	if err != nil {
		return nil, err
	}
	return &types.ReplyAttempt{Attempt: attempt}, nil
}

func normalizeCount(count, def, max int32) int32 {
	if count <= 0 {
		return def
	}
	if count > max {
		return max
	}
	return count
}

// GetPots 分页列奖池。Status 为 0 时直接扫状态库，
// 否则走本地状态索引。Index 是上一页最后一条的编号，翻页游标。
func (e *Engine) GetPots(req *types.ReqPotList) (*types.ReplyPotList, error) {
	count := normalizeCount(req.Count, defaultListCount, maxListCount)
	helper := dbm.NewListHelper(e.store)
	reply := &types.ReplyPotList{}
	if req.Status == 0 {
		var key []byte
		if req.Index > 0 {
			key = PotKey(req.Index)
		}
		values := helper.List(PotKeyPrefix(), key, count, req.Direction)
		for _, value := range values {
			var pot types.Pot
			if err := types.Decode(value, &pot); err != nil {
				elog.Error("GetPots decode", "err", err)
				continue
			}
			reply.Pots = append(reply.Pots, &pot)
		}
		return reply, nil
	}
	var key []byte
	if req.Index > 0 {
		key = calcPotStatusIndexKey(req.Status, req.Index)
	}
	values := helper.List(calcPotStatusPrefix(req.Status), key, count, req.Direction)
	for _, value := range values {
		var record types.PotRecord
		if err := types.Decode(value, &record); err != nil {
			elog.Error("GetPots decode index", "err", err)
			continue
		}
		pot, err := e.loadPot(record.PotId)
		if err != nil {
			elog.Error("GetPots load", "potId", record.PotId, "err", err)
			continue
		}
		reply.Pots = append(reply.Pots, pot)
	}
	return reply, nil
}

// GetPotAttempts 列某个奖池下的尝试，最新的在前
func (e *Engine) GetPotAttempts(req *types.ReqPotAttempts) (*types.ReplyAttemptList, error) {
	count := normalizeCount(req.Count, defaultListCount, maxListCount)
	helper := dbm.NewListHelper(e.store)
	var key []byte
	if req.Index > 0 {
		key = calcPotAttemptIndexKey(req.PotId, req.Index)
	}
	values := helper.List(calcPotAttemptPrefix(req.PotId), key, count, dbm.ListDESC)
	reply := &types.ReplyAttemptList{}
	for _, value := range values {
		var record types.AttemptRecord
		if err := types.Decode(value, &record); err != nil {
			elog.Error("GetPotAttempts decode index", "err", err)
			continue
		}
		attempt, err := e.loadAttempt(record.AttemptId)
		if err != nil {
			elog.Error("GetPotAttempts load", "attemptId", record.AttemptId, "err", err)
			continue
		}
		reply.Attempts = append(reply.Attempts, attempt)
	}
	return reply, nil
}

// GetBalance 查询地址余额
func (e *Engine) GetBalance(req *types.ReqAddr) (*types.Account, error) {
	if req.Addr == "" {
		return nil, types.ErrInvalidParam
	}
	symbol := e.symbol
	if cfg, err := readLedgerConfig(e.store); err == nil && cfg.Initialized && cfg.Symbol != "" {
		symbol = cfg.Symbol
	}
	escrow, err := e.opener(e.store, symbol, e.decimals)
	if err != nil {
		return nil, err
	}
	return &types.Account{Addr: req.Addr, Balance: escrow.Balance(req.Addr)}, nil
}

// GetEvents 拉取事件流水，Seq 游标之后的事件按序返回
func (e *Engine) GetEvents(req *types.ReqEvents) (*types.ReplyEvents, error) {
	count := normalizeCount(req.Count, defaultEventCount, maxEventCount)
	helper := dbm.NewListHelper(e.store)
	var key []byte
	if req.Seq > 0 {
		key = calcEventSeqKey(req.Seq)
	}
	values := helper.List(calcEventSeqPrefix(), key, count, dbm.ListASC)
	reply := &types.ReplyEvents{}
	for _, value := range values {
		var event types.PotEvent
		if err := types.Decode(value, &event); err != nil {
			elog.Error("GetEvents decode", "err", err)
			continue
		}
		reply.Events = append(reply.Events, &event)
	}
	return reply, nil
}

// GetStatus 账本总览：配置、托管余额和各类计数
func (e *Engine) GetStatus() (*types.ReplyStatus, error) {
	cfg, err := readLedgerConfig(e.store)
	if err != nil {
		return nil, err
	}
	symbol := e.symbol
	if cfg.Initialized && cfg.Symbol != "" {
		symbol = cfg.Symbol
	}
	escrow, err := e.opener(e.store, symbol, e.decimals)
	if err != nil {
		return nil, err
	}
	return &types.ReplyStatus{
		Initialized:    cfg.Initialized,
		Symbol:         symbol,
		Oracle:         cfg.Oracle,
		CustodyAddr:    e.execaddr,
		CustodyBalance: escrow.Balance(e.execaddr),
		PotCount:       readCount(e.store, potCountKey()),
		AttemptCount:   readCount(e.store, attemptCountKey()),
		EventCount:     readCount(e.store, eventCountKey()),
	}, nil
}
