// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"strconv"

	"github.com/33cn/bountypot/common/address"
	dbm "github.com/33cn/bountypot/common/db"
	"github.com/33cn/bountypot/types"
)

// Escrow 资金托管能力。账户层以接口注入，便于在测试里替换实现。
type Escrow interface {
	Transfer(from, to string, amount int64) (*types.Receipt, error)
	CheckTransfer(from, to string, amount int64) error
	Balance(addr string) int64
	Symbol() string
	Decimals() int32
}

// EscrowOpener 按交易上下文打开托管账户
type EscrowOpener func(kv dbm.KV, symbol string, decimals int32) (Escrow, error)

// Action 单次操作的执行上下文。db 是本次操作的覆盖写缓冲，
// 所有状态变更只进 receipt.KV，由引擎统一落库。
type Action struct {
	escrow    Escrow
	db        dbm.KV
	fromaddr  string
	blocktime int64
	execaddr  string
	owner     string
}

func (action *Action) readPot(id int64) (*types.Pot, error) {
	value, err := action.db.Get(PotKey(id))
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
	return &pot, nil
}

func (action *Action) readAttempt(id int64) (*types.Attempt, error) {
	value, err := action.db.Get(AttemptKey(id))
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
	return &attempt, nil
}

// readLedgerConfig 读账本配置，没有记录时返回零值而不报错
func readLedgerConfig(kv dbm.KV) (*types.LedgerConfig, error) {
	value, err := kv.Get(ConfigKey())
	if err != nil {
		if err == dbm.ErrNotFoundInDb {
			return &types.LedgerConfig{}, nil
		}
		return nil, err
	}
	var cfg types.LedgerConfig
	if err := types.Decode(value, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (action *Action) readConfig() (*types.LedgerConfig, error) {
	return readLedgerConfig(action.db)
}

// requireInit 除 Init 外所有写操作的共同前置
func (action *Action) requireInit() (*types.LedgerConfig, error) {
	cfg, err := action.readConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Initialized {
		return nil, types.ErrNotInitialized
	}
	return cfg, nil
}

func readCount(db dbm.KV, key []byte) int64 {
	value, err := db.Get(key)
	if err != nil {
		return 0
	}
	count, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil {
		return 0
	}
	return count
}

// nextID 分配下一个编号并推进计数器。编号从 0 递增且永不复用，
// 计数器本身存的是已分配的数量。
func (action *Action) nextID(key []byte) (int64, *types.KeyValue) {
	id := readCount(action.db, key)
	kv := &types.KeyValue{Key: key, Value: []byte(strconv.FormatInt(id+1, 10))}
	action.db.Set(kv.Key, kv.Value)
	return id, kv
}

func (action *Action) savePot(pot *types.Pot) *types.KeyValue {
	kv := &types.KeyValue{Key: PotKey(pot.PotId), Value: types.Encode(pot)}
	action.db.Set(kv.Key, kv.Value)
	return kv
}

func (action *Action) saveAttempt(attempt *types.Attempt) *types.KeyValue {
	kv := &types.KeyValue{Key: AttemptKey(attempt.AttemptId), Value: types.Encode(attempt)}
	action.db.Set(kv.Key, kv.Value)
	return kv
}

func (action *Action) saveConfig(cfg *types.LedgerConfig) *types.KeyValue {
	kv := &types.KeyValue{Key: ConfigKey(), Value: types.Encode(cfg)}
	action.db.Set(kv.Key, kv.Value)
	return kv
}

// PotInit 初始化账本，指定计价符号和预言机地址。只有 owner 能执行，且只能执行一次。
func (action *Action) PotInit(init *types.PotInit) (*types.Receipt, error) {
	if action.fromaddr != action.owner {
		elog.Error("PotInit", "addr", action.fromaddr, "owner", action.owner, "err", types.ErrUnauthorized)
		return nil, types.ErrUnauthorized
	}
	cfg, err := action.readConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Initialized {
		elog.Error("PotInit", "addr", action.fromaddr, "err", types.ErrAlreadyInitialized)
		return nil, types.ErrAlreadyInitialized
	}
	if init.Symbol == "" {
		return nil, types.ErrInvalidParam
	}
	if err := address.CheckAddress(init.Oracle); err != nil {
		elog.Error("PotInit", "oracle", init.Oracle, "err", err)
		return nil, types.ErrInvalidParam
	}
	cfg = &types.LedgerConfig{
		Symbol:      init.Symbol,
		Oracle:      init.Oracle,
		Initialized: true,
	}
	var logs []*types.ReceiptLog
	var kv []*types.KeyValue
	logs = append(logs, &types.ReceiptLog{
		Ty:  types.TyLogPotInit,
		Log: types.Encode(&types.ReceiptPotInit{Config: cfg}),
	})
	kv = append(kv, action.saveConfig(cfg))
	return &types.Receipt{Ty: types.ExecOk, KV: kv, Logs: logs}, nil
}

// PotUpdateOracle 轮换预言机地址，owner 专用
func (action *Action) PotUpdateOracle(update *types.PotUpdateOracle) (*types.Receipt, error) {
	if action.fromaddr != action.owner {
		elog.Error("PotUpdateOracle", "addr", action.fromaddr, "owner", action.owner, "err", types.ErrUnauthorized)
		return nil, types.ErrUnauthorized
	}
	cfg, err := action.requireInit()
	if err != nil {
		return nil, err
	}
	if err := address.CheckAddress(update.Oracle); err != nil {
		elog.Error("PotUpdateOracle", "oracle", update.Oracle, "err", err)
		return nil, types.ErrInvalidParam
	}
	prev := cfg.Oracle
	cfg.Oracle = update.Oracle
	var logs []*types.ReceiptLog
	var kv []*types.KeyValue
	logs = append(logs, &types.ReceiptLog{
		Ty:  types.TyLogOracleUpdated,
		Log: types.Encode(&types.ReceiptOracleUpdated{Prev: prev, Oracle: update.Oracle}),
	})
	kv = append(kv, action.saveConfig(cfg))
	return &types.Receipt{Ty: types.ExecOk, KV: kv, Logs: logs}, nil
}

// PotCreate 创建奖池：锁定 totalAmount 到托管账户，设定入场费和到期时间。
// 所有校验在资金移动之前完成。
func (action *Action) PotCreate(create *types.PotCreate) (*types.Receipt, error) {
	if _, err := action.requireInit(); err != nil {
		return nil, err
	}
	if !types.CheckAmount(create.TotalAmount) {
		elog.Error("PotCreate", "addr", action.fromaddr, "amount", create.TotalAmount, "err", types.ErrAmount)
		return nil, types.ErrAmount
	}
	if create.Duration <= 0 {
		elog.Error("PotCreate", "addr", action.fromaddr, "duration", create.Duration, "err", types.ErrInvalidParam)
		return nil, types.ErrInvalidParam
	}
	if create.Fee < types.MinFee || create.Fee > create.TotalAmount {
		elog.Error("PotCreate", "addr", action.fromaddr, "fee", create.Fee, "err", types.ErrInvalidFee)
		return nil, &types.InvalidFeeError{Min: types.MinFee, Fee: create.Fee}
	}
	if err := action.escrow.CheckTransfer(action.fromaddr, action.execaddr, create.TotalAmount); err != nil {
		elog.Error("PotCreate", "addr", action.fromaddr, "execaddr", action.execaddr,
			"amount", create.TotalAmount, "err", err)
		return nil, err
	}
	receipt, err := action.escrow.Transfer(action.fromaddr, action.execaddr, create.TotalAmount)
	if err != nil {
		elog.Error("PotCreate.Transfer", "addr", action.fromaddr, "execaddr", action.execaddr,
			"amount", create.TotalAmount, "err", err)
		return nil, err
	}
	var logs []*types.ReceiptLog
	var kv []*types.KeyValue
	potId, countKV := action.nextID(potCountKey())
	pot := &types.Pot{
		PotId:       potId,
		Creator:     action.fromaddr,
		TotalAmount: create.TotalAmount,
		Fee:         create.Fee,
		CreatedAt:   action.blocktime,
		ExpiresAt:   action.blocktime + create.Duration,
		IsActive:    true,
		AuxRef:      create.AuxRef,
	}
	logs = append(logs, &types.ReceiptLog{
		Ty:  types.TyLogPotCreated,
		Log: types.Encode(&types.ReceiptPotCreated{Pot: pot}),
	})
	logs = append(logs, receipt.Logs...)
	kv = append(kv, action.savePot(pot))
	kv = append(kv, countKV)
	kv = append(kv, receipt.KV...)
	return &types.Receipt{Ty: types.ExecOk, KV: kv, Logs: logs}, nil
}

// PotAttempt 付费尝试：入场费对半拆给创建者和托管账户，生成带难度和时限的尝试记录。
// 难度取本次之前的累计次数，先算难度再累加计数。
func (action *Action) PotAttempt(attempt *types.PotAttempt) (*types.Receipt, error) {
	if _, err := action.requireInit(); err != nil {
		return nil, err
	}
	pot, err := action.readPot(attempt.PotId)
	if err != nil {
		elog.Error("PotAttempt", "addr", action.fromaddr, "potId", attempt.PotId, "err", err)
		return nil, err
	}
	if !pot.IsActive {
		elog.Error("PotAttempt", "addr", action.fromaddr, "potId", pot.PotId, "err", types.ErrPotNotActive)
		return nil, types.ErrPotNotActive
	}
	if action.blocktime >= pot.ExpiresAt {
		elog.Error("PotAttempt", "addr", action.fromaddr, "potId", pot.PotId,
			"blocktime", action.blocktime, "expiresAt", pot.ExpiresAt, "err", types.ErrPotExpired)
		return nil, types.ErrPotExpired
	}
	if err := action.escrow.CheckTransfer(action.fromaddr, action.execaddr, pot.Fee); err != nil {
		elog.Error("PotAttempt", "addr", action.fromaddr, "fee", pot.Fee, "err", err)
		return nil, err
	}
	creatorShare := pot.Fee * types.CreatorFeeSharePercent / 100
	custodyShare := pot.Fee - creatorShare
	var logs []*types.ReceiptLog
	var kv []*types.KeyValue
	var feeLogs []*types.ReceiptLog
	var feeKV []*types.KeyValue
	// 猎人就是创建者时这一半原地不动，账户层拒绝自转
	if creatorShare > 0 && action.fromaddr != pot.Creator {
		receipt, err := action.escrow.Transfer(action.fromaddr, pot.Creator, creatorShare)
		if err != nil {
			elog.Error("PotAttempt.Transfer", "addr", action.fromaddr, "creator", pot.Creator,
				"amount", creatorShare, "err", err)
			return nil, err
		}
		feeLogs = append(feeLogs, receipt.Logs...)
		feeKV = append(feeKV, receipt.KV...)
	}
	if custodyShare > 0 {
		receipt, err := action.escrow.Transfer(action.fromaddr, action.execaddr, custodyShare)
		if err != nil {
			elog.Error("PotAttempt.Transfer", "addr", action.fromaddr, "execaddr", action.execaddr,
				"amount", custodyShare, "err", err)
			return nil, err
		}
		feeLogs = append(feeLogs, receipt.Logs...)
		feeKV = append(feeKV, receipt.KV...)
	}
	difficulty := pot.AttemptsCount%types.DifficultyMod + types.DifficultyBase
	attemptId, countKV := action.nextID(attemptCountKey())
	record := &types.Attempt{
		AttemptId:  attemptId,
		PotId:      pot.PotId,
		Hunter:     action.fromaddr,
		CreatedAt:  action.blocktime,
		ExpiresAt:  action.blocktime + types.AttemptWindow,
		Difficulty: difficulty,
	}
	pot.AttemptsCount++
	logs = append(logs, &types.ReceiptLog{
		Ty: types.TyLogPotAttempted,
		Log: types.Encode(&types.ReceiptPotAttempted{
			Attempt:      record,
			Pot:          pot,
			CreatorShare: creatorShare,
			CustodyShare: custodyShare,
		}),
	})
	logs = append(logs, feeLogs...)
	kv = append(kv, action.saveAttempt(record))
	kv = append(kv, action.savePot(pot))
	kv = append(kv, countKV)
	kv = append(kv, feeKV...)
	return &types.Receipt{Ty: types.ExecOk, KV: kv, Logs: logs}, nil
}

// PotComplete 预言机回报尝试结果。成功则关池并把奖池的六成付给猎人，
// 剩余留在托管账户；失败只把尝试标记为已完结。
func (action *Action) PotComplete(complete *types.PotComplete) (*types.Receipt, error) {
	cfg, err := action.requireInit()
	if err != nil {
		return nil, err
	}
	if action.fromaddr != cfg.Oracle {
		elog.Error("PotComplete", "addr", action.fromaddr, "oracle", cfg.Oracle, "err", types.ErrUnauthorized)
		return nil, types.ErrUnauthorized
	}
	attempt, err := action.readAttempt(complete.AttemptId)
	if err != nil {
		elog.Error("PotComplete", "attemptId", complete.AttemptId, "err", err)
		return nil, err
	}
	pot, err := action.readPot(attempt.PotId)
	if err != nil {
		elog.Error("PotComplete", "potId", attempt.PotId, "err", err)
		return nil, err
	}
	if !pot.IsActive {
		elog.Error("PotComplete", "attemptId", attempt.AttemptId, "potId", pot.PotId, "err", types.ErrPotNotActive)
		return nil, types.ErrPotNotActive
	}
	if action.blocktime >= pot.ExpiresAt {
		elog.Error("PotComplete", "attemptId", attempt.AttemptId, "potId", pot.PotId, "err", types.ErrPotExpired)
		return nil, types.ErrPotExpired
	}
	if action.blocktime >= attempt.ExpiresAt {
		elog.Error("PotComplete", "attemptId", attempt.AttemptId,
			"blocktime", action.blocktime, "expiresAt", attempt.ExpiresAt, "err", types.ErrAttemptExpired)
		return nil, types.ErrAttemptExpired
	}
	if attempt.IsCompleted {
		elog.Error("PotComplete", "attemptId", attempt.AttemptId, "err", types.ErrAttemptCompleted)
		return nil, types.ErrAttemptCompleted
	}
	attempt.IsCompleted = true
	var logs []*types.ReceiptLog
	var kv []*types.KeyValue
	if !complete.Succeeded {
		logs = append(logs, &types.ReceiptLog{
			Ty:  types.TyLogPotFailed,
			Log: types.Encode(&types.ReceiptPotFailed{Attempt: attempt, Timestamp: action.blocktime}),
		})
		kv = append(kv, action.saveAttempt(attempt))
		return &types.Receipt{Ty: types.ExecOk, KV: kv, Logs: logs}, nil
	}
	hunterShare := pot.TotalAmount * types.HunterSharePercent / 100
	var payLogs []*types.ReceiptLog
	var payKV []*types.KeyValue
	if hunterShare > 0 {
		receipt, err := action.escrow.Transfer(action.execaddr, attempt.Hunter, hunterShare)
		if err != nil {
			elog.Error("PotComplete.Transfer", "execaddr", action.execaddr, "hunter", attempt.Hunter,
				"amount", hunterShare, "err", err)
			return nil, err
		}
		payLogs = receipt.Logs
		payKV = receipt.KV
	}
	pot.IsActive = false
	logs = append(logs, &types.ReceiptLog{
		Ty: types.TyLogPotSolved,
		Log: types.Encode(&types.ReceiptPotSolved{
			Pot:         pot,
			Attempt:     attempt,
			HunterShare: hunterShare,
			Timestamp:   action.blocktime,
		}),
	})
	logs = append(logs, payLogs...)
	kv = append(kv, action.saveAttempt(attempt))
	kv = append(kv, action.savePot(pot))
	kv = append(kv, payKV...)
	return &types.Receipt{Ty: types.ExecOk, KV: kv, Logs: logs}, nil
}

// PotExpire 到期回收：任何人都可以触发，全额退还创建者的锁定资金并关池。
// 尝试费里进托管账户的部分不退。
func (action *Action) PotExpire(expire *types.PotExpire) (*types.Receipt, error) {
	if _, err := action.requireInit(); err != nil {
		return nil, err
	}
	pot, err := action.readPot(expire.PotId)
	if err != nil {
		elog.Error("PotExpire", "addr", action.fromaddr, "potId", expire.PotId, "err", err)
		return nil, err
	}
	if !pot.IsActive {
		elog.Error("PotExpire", "addr", action.fromaddr, "potId", pot.PotId, "err", types.ErrPotNotActive)
		return nil, types.ErrPotNotActive
	}
	if action.blocktime < pot.ExpiresAt {
		elog.Error("PotExpire", "addr", action.fromaddr, "potId", pot.PotId,
			"blocktime", action.blocktime, "expiresAt", pot.ExpiresAt, "err", types.ErrNotExpired)
		return nil, types.ErrNotExpired
	}
	receipt, err := action.escrow.Transfer(action.execaddr, pot.Creator, pot.TotalAmount)
	if err != nil {
		elog.Error("PotExpire.Transfer", "execaddr", action.execaddr, "creator", pot.Creator,
			"amount", pot.TotalAmount, "err", err)
		return nil, err
	}
	pot.IsActive = false
	var logs []*types.ReceiptLog
	var kv []*types.KeyValue
	logs = append(logs, &types.ReceiptLog{
		Ty: types.TyLogPotExpired,
		Log: types.Encode(&types.ReceiptPotExpired{
			Pot:       pot,
			Refund:    pot.TotalAmount,
			Timestamp: action.blocktime,
		}),
	})
	logs = append(logs, receipt.Logs...)
	kv = append(kv, action.savePot(pot))
	kv = append(kv, receipt.KV...)
	return &types.Receipt{Ty: types.ExecOk, KV: kv, Logs: logs}, nil
}
