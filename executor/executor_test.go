// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"errors"
	"testing"

	"github.com/33cn/bountypot/common/address"
	"github.com/33cn/bountypot/common/crypto"
	_ "github.com/33cn/bountypot/common/crypto/secp256k1"
	dbm "github.com/33cn/bountypot/common/db"
	"github.com/33cn/bountypot/queue"
	"github.com/33cn/bountypot/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addrOf(seed string) string {
	return address.PubKeyToAddress([]byte(seed)).String()
}

var (
	owner      = addrOf("owner")
	oracleAddr = addrOf("oracle")
	creator    = addrOf("creator")
	hunter     = addrOf("hunter")
	hunter2    = addrOf("hunter2")
)

const (
	startTime   = int64(1600000000)
	initBalance = int64(1000 * 1e8)
)

type fakeClock struct {
	now int64
}

func (c *fakeClock) Now() int64 {
	return c.now
}

func (c *fakeClock) advance(seconds int64) {
	c.now += seconds
}

func newTestEngine(t *testing.T) (*Engine, *fakeClock) {
	store, err := dbm.NewGoMemDB("gomemdb", "test", 128)
	require.NoError(t, err)
	clock := &fakeClock{now: startTime}
	eng := New(store, &types.Escrow{
		Symbol:   "bty",
		Decimals: 8,
		Owner:    owner,
	}, WithClock(clock.Now))
	return eng, clock
}

// setupLedger 初始化账本并给测试账户注资
func setupLedger(t *testing.T) (*Engine, *fakeClock) {
	eng, clock := newTestEngine(t)
	err := eng.GenesisInit([]*types.GenesisAccount{
		{Addr: creator, Amount: initBalance},
		{Addr: hunter, Amount: initBalance},
		{Addr: hunter2, Amount: initBalance},
	})
	require.NoError(t, err)
	_, err = eng.Initialize(owner, &types.PotInit{Symbol: "bty", Oracle: oracleAddr})
	require.NoError(t, err)
	return eng, clock
}

func balanceOf(t *testing.T, eng *Engine, addr string) int64 {
	acc, err := eng.GetBalance(&types.ReqAddr{Addr: addr})
	require.NoError(t, err)
	return acc.Balance
}

func mustCreatePot(t *testing.T, eng *Engine, total, duration, fee int64) int64 {
	receipt, err := eng.CreatePot(creator, &types.PotCreate{
		TotalAmount: total,
		Duration:    duration,
		Fee:         fee,
	})
	require.NoError(t, err)
	require.Equal(t, int32(types.ExecOk), receipt.Ty)
	require.Equal(t, int32(types.TyLogPotCreated), receipt.Logs[0].Ty)
	var r types.ReceiptPotCreated
	require.NoError(t, types.Decode(receipt.Logs[0].Log, &r))
	return r.Pot.PotId
}

func mustAttempt(t *testing.T, eng *Engine, from string, potId int64) *types.Attempt {
	receipt, err := eng.AttemptPot(from, potId)
	require.NoError(t, err)
	require.Equal(t, int32(types.TyLogPotAttempted), receipt.Logs[0].Ty)
	var r types.ReceiptPotAttempted
	require.NoError(t, types.Decode(receipt.Logs[0].Log, &r))
	return r.Attempt
}

func TestInitialize(t *testing.T) {
	eng, _ := newTestEngine(t)

	// 初始化之前任何写操作都被拒绝
	_, err := eng.CreatePot(creator, &types.PotCreate{TotalAmount: 100, Duration: 10, Fee: 1})
	require.Equal(t, types.ErrNotInitialized, err)
	_, err = eng.AttemptPot(hunter, 1)
	require.Equal(t, types.ErrNotInitialized, err)
	_, err = eng.ExpirePot(hunter, 1)
	require.Equal(t, types.ErrNotInitialized, err)
	_, err = eng.UpdateOracle(owner, oracleAddr)
	require.Equal(t, types.ErrNotInitialized, err)

	// 只有 owner 能初始化
	_, err = eng.Initialize(creator, &types.PotInit{Symbol: "bty", Oracle: oracleAddr})
	require.Equal(t, types.ErrUnauthorized, err)

	// 预言机地址必须合法
	_, err = eng.Initialize(owner, &types.PotInit{Symbol: "bty", Oracle: "not-an-address"})
	require.Equal(t, types.ErrInvalidParam, err)

	receipt, err := eng.Initialize(owner, &types.PotInit{Symbol: "bty", Oracle: oracleAddr})
	require.NoError(t, err)
	require.Equal(t, int32(types.TyLogPotInit), receipt.Logs[0].Ty)

	status, err := eng.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Initialized)
	assert.Equal(t, "bty", status.Symbol)
	assert.Equal(t, oracleAddr, status.Oracle)
	assert.Equal(t, eng.ExecAddr(), status.CustodyAddr)

	// 重复初始化被拒绝
	_, err = eng.Initialize(owner, &types.PotInit{Symbol: "bty", Oracle: oracleAddr})
	require.Equal(t, types.ErrAlreadyInitialized, err)
}

func TestUpdateOracle(t *testing.T) {
	eng, _ := setupLedger(t)
	newOracle := addrOf("oracle2")

	_, err := eng.UpdateOracle(creator, newOracle)
	require.Equal(t, types.ErrUnauthorized, err)

	receipt, err := eng.UpdateOracle(owner, newOracle)
	require.NoError(t, err)
	require.Equal(t, int32(types.TyLogOracleUpdated), receipt.Logs[0].Ty)
	var r types.ReceiptOracleUpdated
	require.NoError(t, types.Decode(receipt.Logs[0].Log, &r))
	assert.Equal(t, oracleAddr, r.Prev)
	assert.Equal(t, newOracle, r.Oracle)

	// 旧预言机立即失效
	potId := mustCreatePot(t, eng, 100*1e8, 3600, 1e8)
	attempt := mustAttempt(t, eng, hunter, potId)
	_, err = eng.AttemptCompleted(oracleAddr, attempt.AttemptId, true)
	require.Equal(t, types.ErrUnauthorized, err)
	_, err = eng.AttemptCompleted(newOracle, attempt.AttemptId, true)
	require.NoError(t, err)
}

func TestCreatePot(t *testing.T) {
	eng, _ := setupLedger(t)

	receipt, err := eng.CreatePot(creator, &types.PotCreate{
		TotalAmount: 100 * 1e8,
		Duration:    3600,
		Fee:         1e8,
		AuxRef:      "issue-42",
	})
	require.NoError(t, err)
	// 第一条是业务日志，其后是资金日志
	require.Equal(t, int32(types.TyLogPotCreated), receipt.Logs[0].Ty)
	require.Len(t, receipt.Logs, 3)
	assert.Equal(t, int32(types.TyLogTransfer), receipt.Logs[1].Ty)
	assert.Equal(t, int32(types.TyLogTransfer), receipt.Logs[2].Ty)

	reply, err := eng.GetPot(&types.ReqPot{PotId: 0})
	require.NoError(t, err)
	pot := reply.Pot
	assert.Equal(t, int64(0), pot.PotId)
	assert.Equal(t, creator, pot.Creator)
	assert.Equal(t, int64(100*1e8), pot.TotalAmount)
	assert.Equal(t, int64(1e8), pot.Fee)
	assert.Equal(t, startTime, pot.CreatedAt)
	assert.Equal(t, startTime+3600, pot.ExpiresAt)
	assert.True(t, pot.IsActive)
	assert.Equal(t, int64(0), pot.AttemptsCount)
	assert.Equal(t, "issue-42", pot.AuxRef)

	// 锁定资金进托管账户
	assert.Equal(t, initBalance-100*1e8, balanceOf(t, eng, creator))
	assert.Equal(t, int64(100*1e8), balanceOf(t, eng, eng.ExecAddr()))
}

func TestCreatePotValidation(t *testing.T) {
	eng, _ := setupLedger(t)

	_, err := eng.CreatePot(creator, &types.PotCreate{TotalAmount: 0, Duration: 10, Fee: 1})
	require.Equal(t, types.ErrAmount, err)

	_, err = eng.CreatePot(creator, &types.PotCreate{TotalAmount: -5, Duration: 10, Fee: 1})
	require.Equal(t, types.ErrAmount, err)

	_, err = eng.CreatePot(creator, &types.PotCreate{TotalAmount: 100, Duration: 0, Fee: 1})
	require.Equal(t, types.ErrInvalidParam, err)

	_, err = eng.CreatePot(creator, &types.PotCreate{TotalAmount: 100, Duration: -1, Fee: 1})
	require.Equal(t, types.ErrInvalidParam, err)

	// 入场费下限
	_, err = eng.CreatePot(creator, &types.PotCreate{TotalAmount: 100, Duration: 10, Fee: 0})
	require.True(t, errors.Is(err, types.ErrInvalidFee))

	// 入场费不能超过奖池本金
	_, err = eng.CreatePot(creator, &types.PotCreate{TotalAmount: 100, Duration: 10, Fee: 101})
	require.True(t, errors.Is(err, types.ErrInvalidFee))

	// 余额不足时不产生任何状态变化
	before := balanceOf(t, eng, creator)
	_, err = eng.CreatePot(creator, &types.PotCreate{TotalAmount: initBalance + 1, Duration: 10, Fee: 1})
	require.Equal(t, types.ErrNoBalance, err)
	assert.Equal(t, before, balanceOf(t, eng, creator))
	assert.Equal(t, int64(0), balanceOf(t, eng, eng.ExecAddr()))
	status, err := eng.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.PotCount)
	_, err = eng.GetPot(&types.ReqPot{PotId: 0})
	require.Equal(t, types.ErrPotNotFound, err)
}

func TestAttemptPot(t *testing.T) {
	eng, _ := setupLedger(t)
	potId := mustCreatePot(t, eng, 100*1e8, 3600, 1e8)

	attempt := mustAttempt(t, eng, hunter, potId)
	assert.Equal(t, int64(0), attempt.AttemptId)
	assert.Equal(t, potId, attempt.PotId)
	assert.Equal(t, hunter, attempt.Hunter)
	assert.Equal(t, startTime, attempt.CreatedAt)
	assert.Equal(t, startTime+types.AttemptWindow, attempt.ExpiresAt)
	assert.Equal(t, types.DifficultyBase, attempt.Difficulty)
	assert.False(t, attempt.IsCompleted)

	// 入场费对半：创建者和托管账户各得一半
	assert.Equal(t, initBalance-1e8, balanceOf(t, eng, hunter))
	assert.Equal(t, initBalance-100*1e8+0.5*1e8, balanceOf(t, eng, creator))
	assert.Equal(t, int64(100*1e8+0.5*1e8), balanceOf(t, eng, eng.ExecAddr()))

	reply, err := eng.GetPot(&types.ReqPot{PotId: potId})
	require.NoError(t, err)
	assert.Equal(t, int64(1), reply.Pot.AttemptsCount)

	// 第二次尝试难度加一
	attempt2 := mustAttempt(t, eng, hunter2, potId)
	assert.Equal(t, types.DifficultyBase+1, attempt2.Difficulty)

	_, err = eng.AttemptPot(hunter, 999)
	require.Equal(t, types.ErrPotNotFound, err)
}

func TestAttemptOddFeeSplit(t *testing.T) {
	eng, _ := setupLedger(t)
	// 奇数费用：余数归托管账户
	potId := mustCreatePot(t, eng, 100*1e8, 3600, 7)

	custodyBefore := balanceOf(t, eng, eng.ExecAddr())
	creatorBefore := balanceOf(t, eng, creator)
	receipt, err := eng.AttemptPot(hunter, potId)
	require.NoError(t, err)
	var r types.ReceiptPotAttempted
	require.NoError(t, types.Decode(receipt.Logs[0].Log, &r))
	assert.Equal(t, int64(3), r.CreatorShare)
	assert.Equal(t, int64(4), r.CustodyShare)
	assert.Equal(t, creatorBefore+3, balanceOf(t, eng, creator))
	assert.Equal(t, custodyBefore+4, balanceOf(t, eng, eng.ExecAddr()))
}

func TestAttemptDifficultyCycle(t *testing.T) {
	eng, _ := setupLedger(t)
	potId := mustCreatePot(t, eng, 100*1e8, 24*3600, 10)

	// 难度随累计尝试数在 [3,11] 内循环
	for i := int64(0); i < 2*types.DifficultyMod; i++ {
		attempt := mustAttempt(t, eng, hunter, potId)
		assert.Equal(t, i%types.DifficultyMod+types.DifficultyBase, attempt.Difficulty, "attempt %d", i)
	}
}

func TestSelfAttempt(t *testing.T) {
	eng, _ := setupLedger(t)
	potId := mustCreatePot(t, eng, 100*1e8, 3600, 1e8)

	// 创建者尝试自己的奖池：归创建者的一半原地不动，只付托管那一半
	before := balanceOf(t, eng, creator)
	custodyBefore := balanceOf(t, eng, eng.ExecAddr())
	attempt := mustAttempt(t, eng, creator, potId)
	assert.Equal(t, creator, attempt.Hunter)
	assert.Equal(t, before-0.5*1e8, balanceOf(t, eng, creator))
	assert.Equal(t, custodyBefore+0.5*1e8, balanceOf(t, eng, eng.ExecAddr()))
}

func TestAttemptOnInactivePot(t *testing.T) {
	eng, clock := setupLedger(t)
	potId := mustCreatePot(t, eng, 100*1e8, 3600, 1e8)
	attempt := mustAttempt(t, eng, hunter, potId)
	_, err := eng.AttemptCompleted(oracleAddr, attempt.AttemptId, true)
	require.NoError(t, err)

	// 已解决的奖池不再接受尝试
	_, err = eng.AttemptPot(hunter2, potId)
	require.Equal(t, types.ErrPotNotActive, err)

	// 过期的奖池同样拒绝
	potId2 := mustCreatePot(t, eng, 100*1e8, 600, 1e8)
	clock.advance(600)
	_, err = eng.AttemptPot(hunter, potId2)
	require.Equal(t, types.ErrPotExpired, err)
}

func TestAttemptCompletedSuccess(t *testing.T) {
	eng, _ := setupLedger(t)
	potId := mustCreatePot(t, eng, 100*1e8, 3600, 1e8)
	attempt := mustAttempt(t, eng, hunter, potId)

	hunterBefore := balanceOf(t, eng, hunter)
	custodyBefore := balanceOf(t, eng, eng.ExecAddr())

	receipt, err := eng.AttemptCompleted(oracleAddr, attempt.AttemptId, true)
	require.NoError(t, err)
	require.Equal(t, int32(types.TyLogPotSolved), receipt.Logs[0].Ty)
	var r types.ReceiptPotSolved
	require.NoError(t, types.Decode(receipt.Logs[0].Log, &r))
	hunterShare := int64(100 * 1e8 * 60 / 100)
	assert.Equal(t, hunterShare, r.HunterShare)
	assert.False(t, r.Pot.IsActive)
	assert.True(t, r.Attempt.IsCompleted)

	// 六成归猎人，剩余留在托管账户
	assert.Equal(t, hunterBefore+hunterShare, balanceOf(t, eng, hunter))
	assert.Equal(t, custodyBefore-hunterShare, balanceOf(t, eng, eng.ExecAddr()))

	reply, err := eng.GetPot(&types.ReqPot{PotId: potId})
	require.NoError(t, err)
	assert.False(t, reply.Pot.IsActive)

	// 状态索引迁到已解决
	active, err := eng.GetPots(&types.ReqPotList{Status: types.PotStatusActive})
	require.NoError(t, err)
	assert.Len(t, active.Pots, 0)
	solved, err := eng.GetPots(&types.ReqPotList{Status: types.PotStatusSolved})
	require.NoError(t, err)
	require.Len(t, solved.Pots, 1)
	assert.Equal(t, potId, solved.Pots[0].PotId)
}

func TestAttemptCompletedFail(t *testing.T) {
	eng, _ := setupLedger(t)
	potId := mustCreatePot(t, eng, 100*1e8, 3600, 1e8)
	attempt := mustAttempt(t, eng, hunter, potId)

	balances := func() []int64 {
		return []int64{
			balanceOf(t, eng, creator),
			balanceOf(t, eng, hunter),
			balanceOf(t, eng, eng.ExecAddr()),
		}
	}
	before := balances()
	receipt, err := eng.AttemptCompleted(oracleAddr, attempt.AttemptId, false)
	require.NoError(t, err)
	require.Len(t, receipt.Logs, 1)
	require.Equal(t, int32(types.TyLogPotFailed), receipt.Logs[0].Ty)
	// 失败不动钱
	assert.Equal(t, before, balances())

	// 奖池照常开放，换人再试
	reply, err := eng.GetPot(&types.ReqPot{PotId: potId})
	require.NoError(t, err)
	assert.True(t, reply.Pot.IsActive)

	// 同一尝试不能再次回报
	_, err = eng.AttemptCompleted(oracleAddr, attempt.AttemptId, true)
	require.Equal(t, types.ErrAttemptCompleted, err)

	attempt2 := mustAttempt(t, eng, hunter2, potId)
	_, err = eng.AttemptCompleted(oracleAddr, attempt2.AttemptId, true)
	require.NoError(t, err)
}

func TestAttemptCompletedAuthz(t *testing.T) {
	eng, _ := setupLedger(t)
	potId := mustCreatePot(t, eng, 100*1e8, 3600, 1e8)
	attempt := mustAttempt(t, eng, hunter, potId)

	for _, caller := range []string{creator, hunter, owner} {
		_, err := eng.AttemptCompleted(caller, attempt.AttemptId, true)
		require.Equal(t, types.ErrUnauthorized, err)
	}
	_, err := eng.AttemptCompleted(oracleAddr, 999, true)
	require.Equal(t, types.ErrAttemptNotFound, err)
}

func TestAttemptWindowExpiry(t *testing.T) {
	eng, clock := setupLedger(t)
	potId := mustCreatePot(t, eng, 100*1e8, 24*3600, 1e8)
	attempt := mustAttempt(t, eng, hunter, potId)

	// 时限一到回报就被拒绝，边界取闭
	clock.advance(types.AttemptWindow)
	_, err := eng.AttemptCompleted(oracleAddr, attempt.AttemptId, true)
	require.Equal(t, types.ErrAttemptExpired, err)

	// 尝试留在未完结状态，钱也不动
	reply, err := eng.GetAttempt(&types.ReqAttempt{AttemptId: attempt.AttemptId})
	require.NoError(t, err)
	assert.False(t, reply.Attempt.IsCompleted)
}

func TestExpirePot(t *testing.T) {
	eng, clock := setupLedger(t)
	potId := mustCreatePot(t, eng, 100*1e8, 3600, 1e8)
	mustAttempt(t, eng, hunter, potId)

	// 到期之前不能回收
	_, err := eng.ExpirePot(hunter2, potId)
	require.Equal(t, types.ErrNotExpired, err)

	creatorBefore := balanceOf(t, eng, creator)
	custodyBefore := balanceOf(t, eng, eng.ExecAddr())

	// 过期时间点本身即可回收，任何人都能触发
	clock.advance(3600)
	receipt, err := eng.ExpirePot(hunter2, potId)
	require.NoError(t, err)
	require.Equal(t, int32(types.TyLogPotExpired), receipt.Logs[0].Ty)
	var r types.ReceiptPotExpired
	require.NoError(t, types.Decode(receipt.Logs[0].Log, &r))
	assert.Equal(t, int64(100*1e8), r.Refund)

	// 全额退还本金，尝试费留在托管账户
	assert.Equal(t, creatorBefore+100*1e8, balanceOf(t, eng, creator))
	assert.Equal(t, custodyBefore-100*1e8, balanceOf(t, eng, eng.ExecAddr()))
	assert.Equal(t, int64(0.5*1e8), balanceOf(t, eng, eng.ExecAddr()))

	// 只能回收一次
	_, err = eng.ExpirePot(creator, potId)
	require.Equal(t, types.ErrPotNotActive, err)

	expired, err := eng.GetPots(&types.ReqPotList{Status: types.PotStatusExpired})
	require.NoError(t, err)
	require.Len(t, expired.Pots, 1)
	assert.Equal(t, potId, expired.Pots[0].PotId)
}

// 任意操作序列下资金总量守恒
func TestConservation(t *testing.T) {
	eng, clock := setupLedger(t)
	total := func() int64 {
		sum := int64(0)
		for _, addr := range []string{creator, hunter, hunter2, eng.ExecAddr()} {
			sum += balanceOf(t, eng, addr)
		}
		return sum
	}
	expect := total()

	potId := mustCreatePot(t, eng, 100*1e8, 3600, 3)
	assert.Equal(t, expect, total())
	a1 := mustAttempt(t, eng, hunter, potId)
	assert.Equal(t, expect, total())
	_, err := eng.AttemptCompleted(oracleAddr, a1.AttemptId, false)
	require.NoError(t, err)
	assert.Equal(t, expect, total())
	a2 := mustAttempt(t, eng, hunter2, potId)
	_, err = eng.AttemptCompleted(oracleAddr, a2.AttemptId, true)
	require.NoError(t, err)
	assert.Equal(t, expect, total())

	potId2 := mustCreatePot(t, eng, 50*1e8, 600, 5)
	mustAttempt(t, eng, hunter, potId2)
	clock.advance(600)
	_, err = eng.ExpirePot(creator, potId2)
	require.NoError(t, err)
	assert.Equal(t, expect, total())
}

// 完整业务剧本：建池、两次尝试、先败后成
func TestEndToEndScenario(t *testing.T) {
	eng, _ := setupLedger(t)

	potId := mustCreatePot(t, eng, 1000, 86400, 100)
	creatorAfterLock := balanceOf(t, eng, creator)
	hunterStart := balanceOf(t, eng, hunter)

	// 第一次尝试：入场费五五开，难度从基数起步
	a1 := mustAttempt(t, eng, hunter, potId)
	assert.Equal(t, int64(3), a1.Difficulty)
	assert.Equal(t, creatorAfterLock+50, balanceOf(t, eng, creator))

	// 判负：奖池照常开放，计数加一
	_, err := eng.AttemptCompleted(oracleAddr, a1.AttemptId, false)
	require.NoError(t, err)
	reply, err := eng.GetPot(&types.ReqPot{PotId: potId})
	require.NoError(t, err)
	assert.True(t, reply.Pot.IsActive)
	assert.Equal(t, int64(1), reply.Pot.AttemptsCount)

	// 第二次尝试：难度加一，入场费再分一轮
	a2 := mustAttempt(t, eng, hunter, potId)
	assert.Equal(t, int64(4), a2.Difficulty)
	assert.Equal(t, creatorAfterLock+100, balanceOf(t, eng, creator))

	// 判胜：六成归猎人，奖池关闭
	_, err = eng.AttemptCompleted(oracleAddr, a2.AttemptId, true)
	require.NoError(t, err)
	reply, err = eng.GetPot(&types.ReqPot{PotId: potId})
	require.NoError(t, err)
	assert.False(t, reply.Pot.IsActive)
	assert.Equal(t, int64(2), reply.Pot.AttemptsCount)
	// 两次入场费共出 200，解题入账 600
	assert.Equal(t, hunterStart-200+600, balanceOf(t, eng, hunter))
	// 托管账户：本金加两笔托管费份额，减去猎人分成
	assert.Equal(t, int64(1000+50+50-600), balanceOf(t, eng, eng.ExecAddr()))
}

// 回报判定的前置检查按固定顺序失败
func TestCompletePreconditionOrder(t *testing.T) {
	eng, clock := setupLedger(t)

	// 奖池和尝试窗口都已过去：奖池过期优先
	potId := mustCreatePot(t, eng, 100*1e8, 200, 1e8)
	attempt := mustAttempt(t, eng, hunter, potId)
	clock.advance(400)
	_, err := eng.AttemptCompleted(oracleAddr, attempt.AttemptId, true)
	require.Equal(t, types.ErrPotExpired, err)

	// 已解决的奖池优先于尝试自身的完结状态
	potId2 := mustCreatePot(t, eng, 100*1e8, 3600, 1e8)
	attempt2 := mustAttempt(t, eng, hunter, potId2)
	_, err = eng.AttemptCompleted(oracleAddr, attempt2.AttemptId, true)
	require.NoError(t, err)
	_, err = eng.AttemptCompleted(oracleAddr, attempt2.AttemptId, true)
	require.Equal(t, types.ErrPotNotActive, err)
}

func TestGetPotsPaging(t *testing.T) {
	eng, _ := setupLedger(t)
	for i := 0; i < 5; i++ {
		mustCreatePot(t, eng, 10*1e8, 3600, 10)
	}

	// 默认倒序，最新的在前
	page, err := eng.GetPots(&types.ReqPotList{Count: 2})
	require.NoError(t, err)
	require.Len(t, page.Pots, 2)
	assert.Equal(t, int64(4), page.Pots[0].PotId)
	assert.Equal(t, int64(3), page.Pots[1].PotId)

	// 游标翻页
	page, err = eng.GetPots(&types.ReqPotList{Count: 2, Index: page.Pots[1].PotId})
	require.NoError(t, err)
	require.Len(t, page.Pots, 2)
	assert.Equal(t, int64(2), page.Pots[0].PotId)
	assert.Equal(t, int64(1), page.Pots[1].PotId)

	// 升序
	page, err = eng.GetPots(&types.ReqPotList{Count: 3, Direction: dbm.ListASC})
	require.NoError(t, err)
	require.Len(t, page.Pots, 3)
	assert.Equal(t, int64(0), page.Pots[0].PotId)

	// 按状态过滤
	active, err := eng.GetPots(&types.ReqPotList{Status: types.PotStatusActive})
	require.NoError(t, err)
	assert.Len(t, active.Pots, 5)
}

func TestGetPotAttempts(t *testing.T) {
	eng, _ := setupLedger(t)
	potId := mustCreatePot(t, eng, 100*1e8, 3600, 10)
	otherPot := mustCreatePot(t, eng, 100*1e8, 3600, 10)
	for i := 0; i < 3; i++ {
		mustAttempt(t, eng, hunter, potId)
	}
	mustAttempt(t, eng, hunter2, otherPot)

	reply, err := eng.GetPotAttempts(&types.ReqPotAttempts{PotId: potId})
	require.NoError(t, err)
	require.Len(t, reply.Attempts, 3)
	// 最新的在前，且都属于目标奖池
	assert.Equal(t, int64(2), reply.Attempts[0].AttemptId)
	for _, attempt := range reply.Attempts {
		assert.Equal(t, potId, attempt.PotId)
	}
}

func TestGetEvents(t *testing.T) {
	eng, _ := setupLedger(t)
	potId := mustCreatePot(t, eng, 100*1e8, 3600, 1e8)
	attempt := mustAttempt(t, eng, hunter, potId)
	_, err := eng.AttemptCompleted(oracleAddr, attempt.AttemptId, true)
	require.NoError(t, err)

	reply, err := eng.GetEvents(&types.ReqEvents{})
	require.NoError(t, err)
	require.NotEmpty(t, reply.Events)
	// 序号从 1 严格递增
	for i, event := range reply.Events {
		assert.Equal(t, int64(i+1), event.Seq)
	}
	status, err := eng.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, int64(len(reply.Events)), status.EventCount)

	// 游标拉取：只给游标之后的
	tail, err := eng.GetEvents(&types.ReqEvents{Seq: reply.Events[2].Seq})
	require.NoError(t, err)
	require.Len(t, tail.Events, len(reply.Events)-3)
	assert.Equal(t, reply.Events[3].Seq, tail.Events[0].Seq)

	// 重复读返回同样的内容
	again, err := eng.GetEvents(&types.ReqEvents{})
	require.NoError(t, err)
	assert.Equal(t, reply.Events, again.Events)
}

// 只靠事件流水就能重建全部奖池和尝试状态
func TestEventJournalReconstruction(t *testing.T) {
	eng, clock := setupLedger(t)

	potId := mustCreatePot(t, eng, 100*1e8, 3600, 7)
	a1 := mustAttempt(t, eng, hunter, potId)
	_, err := eng.AttemptCompleted(oracleAddr, a1.AttemptId, false)
	require.NoError(t, err)
	a2 := mustAttempt(t, eng, hunter2, potId)
	_, err = eng.AttemptCompleted(oracleAddr, a2.AttemptId, true)
	require.NoError(t, err)
	potId2 := mustCreatePot(t, eng, 50*1e8, 600, 9)
	mustAttempt(t, eng, hunter, potId2)
	clock.advance(600)
	_, err = eng.ExpirePot(hunter2, potId2)
	require.NoError(t, err)

	reply, err := eng.GetEvents(&types.ReqEvents{Count: 1000})
	require.NoError(t, err)

	// 事件载荷内嵌落账后的完整快照，按序折叠即是重放
	pots := map[int64]*types.Pot{}
	attempts := map[int64]*types.Attempt{}
	for _, event := range reply.Events {
		switch event.Ty {
		case types.TyLogPotCreated:
			var r types.ReceiptPotCreated
			require.NoError(t, types.Decode(event.Log, &r))
			pots[r.Pot.PotId] = r.Pot
		case types.TyLogPotAttempted:
			var r types.ReceiptPotAttempted
			require.NoError(t, types.Decode(event.Log, &r))
			pots[r.Pot.PotId] = r.Pot
			attempts[r.Attempt.AttemptId] = r.Attempt
		case types.TyLogPotSolved:
			var r types.ReceiptPotSolved
			require.NoError(t, types.Decode(event.Log, &r))
			pots[r.Pot.PotId] = r.Pot
			attempts[r.Attempt.AttemptId] = r.Attempt
		case types.TyLogPotFailed:
			var r types.ReceiptPotFailed
			require.NoError(t, types.Decode(event.Log, &r))
			attempts[r.Attempt.AttemptId] = r.Attempt
		case types.TyLogPotExpired:
			var r types.ReceiptPotExpired
			require.NoError(t, types.Decode(event.Log, &r))
			pots[r.Pot.PotId] = r.Pot
		}
	}

	status, err := eng.GetStatus()
	require.NoError(t, err)
	require.Equal(t, status.PotCount, int64(len(pots)))
	require.Equal(t, status.AttemptCount, int64(len(attempts)))
	for id, pot := range pots {
		live, err := eng.GetPot(&types.ReqPot{PotId: id})
		require.NoError(t, err)
		assert.Equal(t, live.Pot, pot)
	}
	for id, attempt := range attempts {
		live, err := eng.GetAttempt(&types.ReqAttempt{AttemptId: id})
		require.NoError(t, err)
		assert.Equal(t, live.Attempt, attempt)
	}
}

func signedTx(t *testing.T, priv crypto.PrivKey, action *types.PotAction, nonce int64) *types.Transaction {
	tx := &types.Transaction{Payload: action, Nonce: nonce}
	tx.Sign(types.SECP256K1, priv)
	return tx
}

func TestExecTx(t *testing.T) {
	eng, _ := newTestEngine(t)
	c, err := crypto.New("secp256k1")
	require.NoError(t, err)
	priv, err := c.GenKey()
	require.NoError(t, err)
	fromAddr := address.PubKeyToAddress(priv.PubKey().Bytes()).String()

	require.NoError(t, eng.GenesisInit([]*types.GenesisAccount{{Addr: fromAddr, Amount: initBalance}}))
	_, err = eng.Initialize(owner, &types.PotInit{Symbol: "bty", Oracle: oracleAddr})
	require.NoError(t, err)

	action := &types.PotAction{
		Ty:     types.PotActionCreate,
		Create: &types.PotCreate{TotalAmount: 10 * 1e8, Duration: 3600, Fee: 100},
	}
	tx := signedTx(t, priv, action, 1)
	receipt, err := eng.ExecTx(tx)
	require.NoError(t, err)
	var r types.ReceiptPotCreated
	require.NoError(t, types.Decode(receipt.Logs[0].Log, &r))
	assert.Equal(t, fromAddr, r.Pot.Creator)

	// 同一笔信封重放被拒绝
	_, err = eng.ExecTx(tx)
	require.Equal(t, types.ErrTxDup, err)

	// 换 nonce 是新交易
	_, err = eng.ExecTx(signedTx(t, priv, action, 2))
	require.NoError(t, err)

	// 签名后篡改载荷
	bad := signedTx(t, priv, action, 3)
	bad.Payload.Create.TotalAmount = 99 * 1e8
	_, err = eng.ExecTx(bad)
	require.Equal(t, types.ErrSign, err)

	// 未签名
	_, err = eng.ExecTx(&types.Transaction{Payload: action, Nonce: 4})
	require.Equal(t, types.ErrSign, err)
}

func TestReentryRejected(t *testing.T) {
	store, err := dbm.NewGoMemDB("gomemdb", "test", 128)
	require.NoError(t, err)
	var eng *Engine
	var nested error
	var fired bool
	// 时钟在执行期间被调用，从里面再进引擎必须被挡下
	eng = New(store, &types.Escrow{Symbol: "bty", Decimals: 8, Owner: owner}, WithClock(func() int64 {
		if !fired {
			fired = true
			_, nested = eng.Initialize(owner, &types.PotInit{Symbol: "bty", Oracle: oracleAddr})
		}
		return startTime
	}))
	_, err = eng.Initialize(owner, &types.PotInit{Symbol: "bty", Oracle: oracleAddr})
	require.NoError(t, err)
	require.True(t, fired)
	require.Equal(t, types.ErrLedgerReentry, nested)
}

func TestExecInvalidAction(t *testing.T) {
	eng, _ := setupLedger(t)
	_, err := eng.Exec(creator, nil)
	require.Equal(t, types.ErrInvalidParam, err)
	_, err = eng.Exec(creator, &types.PotAction{Ty: 99})
	require.Equal(t, types.ErrActionNotSupport, err)
	_, err = eng.Exec(creator, &types.PotAction{Ty: types.PotActionCreate})
	require.Equal(t, types.ErrInvalidParam, err)
	_, err = eng.Exec("", &types.PotAction{Ty: types.PotActionCreate})
	require.Equal(t, types.ErrInvalidParam, err)
}

func TestQueueService(t *testing.T) {
	store, err := dbm.NewGoMemDB("gomemdb", "test", 128)
	require.NoError(t, err)
	clock := &fakeClock{now: startTime}
	c, err := crypto.New("secp256k1")
	require.NoError(t, err)
	priv, err := c.GenKey()
	require.NoError(t, err)
	fromAddr := address.PubKeyToAddress(priv.PubKey().Bytes()).String()

	eng := New(store, &types.Escrow{Symbol: "bty", Decimals: 8, Owner: owner}, WithClock(clock.Now))
	require.NoError(t, eng.GenesisInit([]*types.GenesisAccount{
		{Addr: creator, Amount: initBalance},
		{Addr: fromAddr, Amount: initBalance},
	}))
	_, err = eng.Initialize(owner, &types.PotInit{Symbol: "bty", Oracle: oracleAddr})
	require.NoError(t, err)

	q := queue.New("bountypot-test")
	eng.SetQueueClient(q.Client())
	defer eng.Close()

	events := q.Client()
	events.Sub("events")

	client := q.Client()
	potId := mustCreatePot(t, eng, 10*1e8, 3600, 10)

	tx := signedTx(t, priv, &types.PotAction{
		Ty:      types.PotActionAttempt,
		Attempt: &types.PotAttempt{PotId: potId},
	}, 1)
	msg := client.NewMessage("execs", types.EventTx, tx)
	require.NoError(t, client.Send(msg, true))
	reply, err := client.Wait(msg)
	require.NoError(t, err)
	receipt, ok := reply.GetData().(*types.Receipt)
	require.True(t, ok)
	assert.Equal(t, int32(types.TyLogPotAttempted), receipt.Logs[0].Ty)

	// 事件异步到达订阅者
	event := <-events.Recv()
	assert.Equal(t, types.EventLedgerLog, event.Ty)

	// 查询走同一条队列
	qmsg := client.NewMessage("execs", types.EventQuery, &types.Query{
		FuncName: "GetPot",
		Payload:  types.Encode(&types.ReqPot{PotId: potId}),
	})
	require.NoError(t, client.Send(qmsg, true))
	qreply, err := client.Wait(qmsg)
	require.NoError(t, err)
	potReply, ok := qreply.GetData().(*types.ReplyPot)
	require.True(t, ok)
	assert.Equal(t, potId, potReply.Pot.PotId)

	// 坏消息类型得到错误回复
	badMsg := client.NewMessage("execs", types.EventTx, "not-a-tx")
	require.NoError(t, client.Send(badMsg, true))
	_, err = client.Wait(badMsg)
	require.Equal(t, types.ErrInvalidParam, err)
}
