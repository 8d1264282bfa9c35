// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"math"
	"testing"

	dbm "github.com/33cn/bountypot/common/db"
	"github.com/33cn/bountypot/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func propLedger() (*Engine, *fakeClock, error) {
	store, err := dbm.NewGoMemDB("gomemdb", "test", 128)
	if err != nil {
		return nil, nil, err
	}
	clock := &fakeClock{now: startTime}
	eng := New(store, &types.Escrow{
		Symbol:   "bty",
		Decimals: 8,
		Owner:    owner,
	}, WithClock(clock.Now))
	err = eng.GenesisInit([]*types.GenesisAccount{
		{Addr: creator, Amount: 100 * 1e10},
		{Addr: hunter, Amount: 100 * 1e10},
		{Addr: hunter2, Amount: 100 * 1e10},
	})
	if err != nil {
		return nil, nil, err
	}
	if _, err := eng.Initialize(owner, &types.PotInit{Symbol: "bty", Oracle: oracleAddr}); err != nil {
		return nil, nil, err
	}
	return eng, clock, nil
}

func rawBalance(eng *Engine, addr string) int64 {
	acc, err := eng.GetBalance(&types.ReqAddr{Addr: addr})
	if err != nil {
		return -1
	}
	return acc.Balance
}

// 任意费用下，入场费被不多不少地拆成两份：
// 创建者拿 50% 向下取整，余数全部进托管账户
func TestPropFeeSplitExact(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("entry fee splits exactly between creator and custody", prop.ForAll(
		func(total, feeSeed int64) bool {
			fee := feeSeed%total + 1
			eng, _, err := propLedger()
			if err != nil {
				return false
			}
			if _, err := eng.CreatePot(creator, &types.PotCreate{
				TotalAmount: total, Duration: 3600, Fee: fee,
			}); err != nil {
				return false
			}
			creatorBefore := rawBalance(eng, creator)
			custodyBefore := rawBalance(eng, eng.ExecAddr())
			hunterBefore := rawBalance(eng, hunter)
			if _, err := eng.AttemptPot(hunter, 0); err != nil {
				return false
			}
			creatorDelta := rawBalance(eng, creator) - creatorBefore
			custodyDelta := rawBalance(eng, eng.ExecAddr()) - custodyBefore
			hunterDelta := rawBalance(eng, hunter) - hunterBefore
			return creatorDelta == fee*types.CreatorFeeSharePercent/100 &&
				creatorDelta+custodyDelta == fee &&
				custodyDelta >= creatorDelta &&
				hunterDelta == -fee
		},
		gen.Int64Range(1, 1e10),
		gen.Int64Range(0, math.MaxInt64-1),
	))

	properties.TestingRun(t)
}

// 解题成功时猎人精确拿走奖池的 60% 向下取整，
// 托管账户保有剩余本金加上尝试费的托管份额
func TestPropHunterPayout(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("hunter payout is exactly 60 percent of the locked stake", prop.ForAll(
		func(total, feeSeed int64) bool {
			fee := feeSeed%total + 1
			eng, _, err := propLedger()
			if err != nil {
				return false
			}
			if _, err := eng.CreatePot(creator, &types.PotCreate{
				TotalAmount: total, Duration: 3600, Fee: fee,
			}); err != nil {
				return false
			}
			if _, err := eng.AttemptPot(hunter, 0); err != nil {
				return false
			}
			hunterBefore := rawBalance(eng, hunter)
			custodyBefore := rawBalance(eng, eng.ExecAddr())
			if _, err := eng.AttemptCompleted(oracleAddr, 0, true); err != nil {
				return false
			}
			hunterShare := total * types.HunterSharePercent / 100
			return rawBalance(eng, hunter)-hunterBefore == hunterShare &&
				custodyBefore-rawBalance(eng, eng.ExecAddr()) == hunterShare &&
				rawBalance(eng, eng.ExecAddr()) >= total-hunterShare
		},
		gen.Int64Range(1, 1e10),
		gen.Int64Range(0, math.MaxInt64-1),
	))

	properties.TestingRun(t)
}

// 难度只由累计尝试数决定，在 [base, base+mod) 内循环
func TestPropDifficultyCycle(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("difficulty follows the attempt counter cycle", prop.ForAll(
		func(rounds int) bool {
			eng, _, err := propLedger()
			if err != nil {
				return false
			}
			if _, err := eng.CreatePot(creator, &types.PotCreate{
				TotalAmount: 1e8, Duration: 24 * 3600, Fee: 9,
			}); err != nil {
				return false
			}
			for i := 0; i < rounds; i++ {
				receipt, err := eng.AttemptPot(hunter, 0)
				if err != nil {
					return false
				}
				var r types.ReceiptPotAttempted
				if err := types.Decode(receipt.Logs[0].Log, &r); err != nil {
					return false
				}
				want := int64(i)%types.DifficultyMod + types.DifficultyBase
				if r.Attempt.Difficulty != want {
					return false
				}
				if r.Attempt.Difficulty < types.DifficultyBase ||
					r.Attempt.Difficulty >= types.DifficultyBase+types.DifficultyMod {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 25),
	))

	properties.TestingRun(t)
}

// 任意操作脚本下资金总量守恒：每一步要么完整生效要么完全不生效
func TestPropConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("total funds are conserved under arbitrary op sequences", prop.ForAll(
		func(script []int) bool {
			eng, clock, err := propLedger()
			if err != nil {
				return false
			}
			addrs := []string{creator, hunter, hunter2, eng.ExecAddr()}
			sum := func() int64 {
				total := int64(0)
				for _, addr := range addrs {
					total += rawBalance(eng, addr)
				}
				return total
			}
			expect := sum()
			var lastPot, lastAttempt int64
			for step, op := range script {
				switch op % 5 {
				case 0:
					if receipt, err := eng.CreatePot(creator, &types.PotCreate{
						TotalAmount: 1e8, Duration: 1200, Fee: 7,
					}); err == nil {
						var r types.ReceiptPotCreated
						if types.Decode(receipt.Logs[0].Log, &r) == nil {
							lastPot = r.Pot.PotId
						}
					}
				case 1:
					if receipt, err := eng.AttemptPot(hunter, lastPot); err == nil {
						var r types.ReceiptPotAttempted
						if types.Decode(receipt.Logs[0].Log, &r) == nil {
							lastAttempt = r.Attempt.AttemptId
						}
					}
				case 2:
					_, _ = eng.AttemptCompleted(oracleAddr, lastAttempt, step%2 == 0)
				case 3:
					_, _ = eng.ExpirePot(hunter2, lastPot)
				case 4:
					clock.advance(400)
				}
				if sum() != expect {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(30, gen.IntRange(0, 4)),
	))

	properties.TestingRun(t)
}
