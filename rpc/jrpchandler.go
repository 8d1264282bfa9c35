// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpc

import (
	"github.com/33cn/bountypot/types"
)

// Pot 对外的 JSON-RPC 服务对象，方法名即 Pot.XXX
type Pot struct {
	cli channelClient
}

// SendTransaction 提交任意已签名信封，返回执行回执
func (p *Pot) SendTransaction(in *types.Transaction, result *interface{}) error {
	receipt, err := p.cli.SendTx(in)
	if err != nil {
		log.Debug("SendTransaction", "err", err)
		return err
	}
	*result = receipt
	return nil
}

// 按操作类型校验后转发，避免信封投错入口
func (p *Pot) sendEnvelope(ty int32, in *types.Transaction, result *interface{}) error {
	if in == nil || in.Payload.GetTy() != ty {
		return types.ErrInvalidParam
	}
	receipt, err := p.cli.SendTx(in)
	if err != nil {
		return err
	}
	*result = receipt
	return nil
}

// CreatePot 提交建池信封
func (p *Pot) CreatePot(in *types.Transaction, result *interface{}) error {
	return p.sendEnvelope(types.PotActionCreate, in, result)
}

// AttemptPot 提交尝试信封
func (p *Pot) AttemptPot(in *types.Transaction, result *interface{}) error {
	return p.sendEnvelope(types.PotActionAttempt, in, result)
}

// AttemptCompleted 提交判定信封，只有 oracle 签名会被接受
func (p *Pot) AttemptCompleted(in *types.Transaction, result *interface{}) error {
	return p.sendEnvelope(types.PotActionComplete, in, result)
}

// ExpirePot 提交过期退款信封
func (p *Pot) ExpirePot(in *types.Transaction, result *interface{}) error {
	return p.sendEnvelope(types.PotActionExpire, in, result)
}

// Initialize 提交账本初始化信封
func (p *Pot) Initialize(in *types.Transaction, result *interface{}) error {
	return p.sendEnvelope(types.PotActionInit, in, result)
}

// UpdateOracle 提交更换 oracle 信封
func (p *Pot) UpdateOracle(in *types.Transaction, result *interface{}) error {
	return p.sendEnvelope(types.PotActionUpdateOracle, in, result)
}

// GetPot 按编号查奖池
func (p *Pot) GetPot(in *types.ReqPot, result *interface{}) error {
	reply, err := p.cli.Query("GetPot", types.Encode(in))
	if err != nil {
		return err
	}
	*result = reply
	return nil
}

// GetAttempt 按编号查尝试
func (p *Pot) GetAttempt(in *types.ReqAttempt, result *interface{}) error {
	reply, err := p.cli.Query("GetAttempt", types.Encode(in))
	if err != nil {
		return err
	}
	*result = reply
	return nil
}

// GetPots 奖池列表，支持状态过滤与翻页
func (p *Pot) GetPots(in *types.ReqPotList, result *interface{}) error {
	reply, err := p.cli.Query("GetPots", types.Encode(in))
	if err != nil {
		return err
	}
	*result = reply
	return nil
}

// GetActivePots 只列仍在进行中的奖池
func (p *Pot) GetActivePots(in *types.ReqPotList, result *interface{}) error {
	reply, err := p.cli.Query("GetActivePots", types.Encode(in))
	if err != nil {
		return err
	}
	*result = reply
	return nil
}

// GetPotAttempts 某一奖池下的尝试列表
func (p *Pot) GetPotAttempts(in *types.ReqPotAttempts, result *interface{}) error {
	reply, err := p.cli.Query("GetPotAttempts", types.Encode(in))
	if err != nil {
		return err
	}
	*result = reply
	return nil
}

// GetBalance 查地址的托管代币余额
func (p *Pot) GetBalance(in *types.ReqAddr, result *interface{}) error {
	reply, err := p.cli.Query("GetBalance", types.Encode(in))
	if err != nil {
		return err
	}
	*result = reply
	return nil
}

// GetEvents 拉取事件日志，Seq 之后最多 Count 条
func (p *Pot) GetEvents(in *types.ReqEvents, result *interface{}) error {
	reply, err := p.cli.Query("GetEvents", types.Encode(in))
	if err != nil {
		return err
	}
	*result = reply
	return nil
}

// GetStatus 账本总体状态
func (p *Pot) GetStatus(in *types.ReqNil, result *interface{}) error {
	reply, err := p.cli.Query("GetStatus", types.Encode(in))
	if err != nil {
		return err
	}
	*result = reply
	return nil
}
