// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package executor 奖池账本的执行引擎。
// 每个操作在覆盖写缓冲上生成回执，校验全部通过后整批原子落库，
// 出错直接丢弃缓冲，状态库里永远看不到半截操作。
package executor

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/33cn/bountypot/account"
	"github.com/33cn/bountypot/common"
	"github.com/33cn/bountypot/common/address"
	dbm "github.com/33cn/bountypot/common/db"
	"github.com/33cn/bountypot/queue"
	"github.com/33cn/bountypot/types"
	log "github.com/inconshreveable/log15"
)

var elog = log.New("module", "execs."+types.BountyPotX)

// DisableLog disable log
func DisableLog() {
	elog.SetHandler(log.DiscardHandler())
}

const defaultCacheSize = 10240

// Option 引擎可选参数
type Option func(*Engine)

// WithClock 替换时钟，测试用
func WithClock(now func() int64) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithEscrowOpener 替换托管账户实现
func WithEscrowOpener(opener EscrowOpener) Option {
	return func(e *Engine) {
		e.opener = opener
	}
}

// Engine 账本执行引擎。写操作串行化：库内直调靠 busy 标志拒绝重入，
// 服务形态下 execs 主题单消费者天然串行。
type Engine struct {
	store    dbm.DB
	opener   EscrowOpener
	owner    string
	symbol   string
	decimals int32
	execaddr string
	now      func() int64
	busy     int32
	cache    *recordCache
	client   queue.Client
}

// New 创建引擎。cfg 提供计价符号、精度和管理员地址，
// 账本初始化后以链上配置记录的符号为准。
func New(store dbm.DB, cfg *types.Escrow, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		opener:   openAccountEscrow,
		owner:    cfg.Owner,
		symbol:   cfg.Symbol,
		decimals: cfg.Decimals,
		execaddr: address.ExecAddress(types.BountyPotX),
		now:      func() int64 { return time.Now().Unix() },
		cache:    newRecordCache(defaultCacheSize),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func openAccountEscrow(kv dbm.KV, symbol string, decimals int32) (Escrow, error) {
	return account.NewAccountDB(types.BountyPotX, symbol, decimals, kv)
}

// ExecAddr 托管账户地址
func (e *Engine) ExecAddr() string {
	return e.execaddr
}

// Owner 管理员地址
func (e *Engine) Owner() string {
	return e.owner
}

func (e *Engine) acquire() error {
	if !atomic.CompareAndSwapInt32(&e.busy, 0, 1) {
		return types.ErrLedgerReentry
	}
	return nil
}

func (e *Engine) release() {
	atomic.StoreInt32(&e.busy, 0)
}

// Exec 库内直调入口：以 from 的身份执行一个动作，返回回执。
// 返回错误时状态库没有任何变化。
func (e *Engine) Exec(from string, action *types.PotAction) (*types.Receipt, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.release()
	start := time.Now()
	receipt, err := e.run(from, action)
	if err != nil {
		markExecErr(action.GetTy())
		return nil, err
	}
	if err := e.commit(receipt); err != nil {
		return nil, err
	}
	markExec(receipt, time.Since(start))
	return receipt, nil
}

// ExecTx 信封交易入口：验签、防重放之后执行 payload。
// 已执行过的交易哈希直接拒绝，重试安全。
func (e *Engine) ExecTx(tx *types.Transaction) (*types.Receipt, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.release()
	if tx == nil || tx.Payload == nil {
		return nil, types.ErrInvalidParam
	}
	if !tx.CheckSign() {
		elog.Error("ExecTx", "err", types.ErrSign)
		return nil, types.ErrSign
	}
	hash := tx.Hash()
	if _, err := e.store.Get(txDupKey(hash)); err == nil {
		elog.Error("ExecTx", "hash", common.ToHex(hash), "err", types.ErrTxDup)
		return nil, types.ErrTxDup
	}
	start := time.Now()
	receipt, err := e.run(tx.From(), tx.Payload)
	if err != nil {
		markExecErr(tx.Payload.GetTy())
		return nil, err
	}
	seen := &types.KeyValue{
		Key:   txDupKey(hash),
		Value: []byte(strconv.FormatInt(e.now(), 10)),
	}
	if err := e.commit(receipt, seen); err != nil {
		return nil, err
	}
	markExec(receipt, time.Since(start))
	return receipt, nil
}

// run 在新的覆盖写缓冲上执行动作，生成回执但不落库
func (e *Engine) run(from string, action *types.PotAction) (*types.Receipt, error) {
	if action == nil || from == "" {
		return nil, types.ErrInvalidParam
	}
	overlay := dbm.NewOverlay(e.store)
	symbol := e.symbol
	if cfg, err := readLedgerConfig(overlay); err == nil && cfg.Initialized && cfg.Symbol != "" {
		symbol = cfg.Symbol
	}
	escrow, err := e.opener(overlay, symbol, e.decimals)
	if err != nil {
		return nil, err
	}
	a := &Action{
		escrow:    escrow,
		db:        overlay,
		fromaddr:  from,
		blocktime: e.now(),
		execaddr:  e.execaddr,
		owner:     e.owner,
	}
	switch action.Ty {
	case types.PotActionCreate:
		if action.Create == nil {
			return nil, types.ErrInvalidParam
		}
		return a.PotCreate(action.Create)
	case types.PotActionAttempt:
		if action.Attempt == nil {
			return nil, types.ErrInvalidParam
		}
		return a.PotAttempt(action.Attempt)
	case types.PotActionComplete:
		if action.Complete == nil {
			return nil, types.ErrInvalidParam
		}
		return a.PotComplete(action.Complete)
	case types.PotActionExpire:
		if action.Expire == nil {
			return nil, types.ErrInvalidParam
		}
		return a.PotExpire(action.Expire)
	case types.PotActionInit:
		if action.Init == nil {
			return nil, types.ErrInvalidParam
		}
		return a.PotInit(action.Init)
	case types.PotActionUpdateOracle:
		if action.UpdateOracle == nil {
			return nil, types.ErrInvalidParam
		}
		return a.PotUpdateOracle(action.UpdateOracle)
	default:
		return nil, types.ErrActionNotSupport
	}
}

// commit 把回执的状态变更、派生索引和事件流水整批写库。
// receipt.KV 是唯一权威写集，本地索引全部从日志派生。
func (e *Engine) commit(receipt *types.Receipt, extra ...*types.KeyValue) error {
	localKV, events := e.execLocal(receipt)
	batch := e.store.NewBatch(true)
	all := make([]*types.KeyValue, 0, len(receipt.KV)+len(localKV)+len(extra))
	all = append(all, receipt.KV...)
	all = append(all, localKV...)
	all = append(all, extra...)
	for _, kv := range all {
		if kv.Value == nil {
			batch.Delete(kv.Key)
			continue
		}
		batch.Set(kv.Key, kv.Value)
	}
	if err := batch.Write(); err != nil {
		elog.Error("commit", "err", err)
		return err
	}
	e.cache.invalidate(receipt.KV)
	e.publish(events)
	return nil
}

// publish 异步推送事件，通道满时丢弃不阻塞执行
func (e *Engine) publish(events []*types.PotEvent) {
	if e.client == nil {
		return
	}
	for _, event := range events {
		msg := e.client.NewMessage("events", types.EventLedgerLog, event)
		if err := e.client.SendTimeout(msg, false, 0); err != nil {
			elog.Warn("publish event", "seq", event.Seq, "err", err)
			return
		}
	}
}

// CreatePot 创建奖池
func (e *Engine) CreatePot(from string, create *types.PotCreate) (*types.Receipt, error) {
	return e.Exec(from, &types.PotAction{Ty: types.PotActionCreate, Create: create})
}

// AttemptPot 付费发起一次尝试
func (e *Engine) AttemptPot(from string, potId int64) (*types.Receipt, error) {
	return e.Exec(from, &types.PotAction{Ty: types.PotActionAttempt, Attempt: &types.PotAttempt{PotId: potId}})
}

// AttemptCompleted 预言机回报尝试结果
func (e *Engine) AttemptCompleted(from string, attemptId int64, succeeded bool) (*types.Receipt, error) {
	return e.Exec(from, &types.PotAction{
		Ty:       types.PotActionComplete,
		Complete: &types.PotComplete{AttemptId: attemptId, Succeeded: succeeded},
	})
}

// ExpirePot 回收到期奖池
func (e *Engine) ExpirePot(from string, potId int64) (*types.Receipt, error) {
	return e.Exec(from, &types.PotAction{Ty: types.PotActionExpire, Expire: &types.PotExpire{PotId: potId}})
}

// Initialize 初始化账本。Symbol 为空时用配置文件里的默认符号。
func (e *Engine) Initialize(from string, init *types.PotInit) (*types.Receipt, error) {
	if init != nil && init.Symbol == "" {
		init = &types.PotInit{Symbol: e.symbol, Oracle: init.Oracle}
	}
	return e.Exec(from, &types.PotAction{Ty: types.PotActionInit, Init: init})
}

// UpdateOracle 轮换预言机地址
func (e *Engine) UpdateOracle(from string, oracle string) (*types.Receipt, error) {
	return e.Exec(from, &types.PotAction{
		Ty:           types.PotActionUpdateOracle,
		UpdateOracle: &types.PotUpdateOracle{Oracle: oracle},
	})
}

// GenesisInit 创世注资。带落库标记，重复调用只注资一次。
func (e *Engine) GenesisInit(accounts []*types.GenesisAccount) error {
	if len(accounts) == 0 {
		return nil
	}
	if err := e.acquire(); err != nil {
		return err
	}
	defer e.release()
	if _, err := e.store.Get(genesisKey()); err == nil {
		elog.Info("GenesisInit", "status", "already funded")
		return nil
	}
	overlay := dbm.NewOverlay(e.store)
	accdb, err := account.NewAccountDB(types.BountyPotX, e.symbol, e.decimals, overlay)
	if err != nil {
		return err
	}
	var kvs []*types.KeyValue
	var logs []*types.ReceiptLog
	for _, acc := range accounts {
		receipt, err := accdb.GenesisInit(acc.Addr, acc.Amount)
		if err != nil {
			elog.Error("GenesisInit", "addr", acc.Addr, "amount", acc.Amount, "err", err)
			return err
		}
		kvs = append(kvs, receipt.KV...)
		logs = append(logs, receipt.Logs...)
		elog.Info("GenesisInit", "addr", acc.Addr, "amount", acc.Amount)
	}
	seen := &types.KeyValue{Key: genesisKey(), Value: []byte(strconv.FormatInt(e.now(), 10))}
	return e.commit(&types.Receipt{Ty: types.ExecOk, KV: kvs, Logs: logs}, seen)
}

// SetQueueClient 接入消息队列，订阅 execs 主题并串行消费
func (e *Engine) SetQueueClient(c queue.Client) {
	e.client = c
	c.Sub("execs")
	go func() {
		for msg := range c.Recv() {
			e.processMsg(msg)
		}
	}()
	elog.Info("engine started", "execaddr", e.execaddr, "owner", e.owner)
}

func (e *Engine) processMsg(msg queue.Message) {
	switch msg.Ty {
	case types.EventTx:
		tx, ok := msg.GetData().(*types.Transaction)
		if !ok {
			msg.ReplyErr("EventTx", types.ErrInvalidParam)
			return
		}
		receipt, err := e.ExecTx(tx)
		if err != nil {
			msg.ReplyErr("EventTx", err)
			return
		}
		msg.Reply(e.client.NewMessage(msg.Topic, types.EventTxReceipt, receipt))
	case types.EventQuery:
		query, ok := msg.GetData().(*types.Query)
		if !ok {
			msg.ReplyErr("EventQuery", types.ErrInvalidParam)
			return
		}
		reply, err := e.Query(query.FuncName, query.Payload)
		if err != nil {
			msg.ReplyErr("EventQuery", err)
			return
		}
		msg.Reply(e.client.NewMessage(msg.Topic, types.EventReply, reply))
	default:
		msg.ReplyErr(types.BountyPotX, types.ErrActionNotSupport)
	}
}

// Close 关闭队列客户端
func (e *Engine) Close() {
	if e.client != nil {
		e.client.Close()
	}
	elog.Info("engine closed")
}
