// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpc

import (
	"github.com/33cn/bountypot/queue"
	"github.com/33cn/bountypot/types"
)

// channelClient 经消息队列和执行引擎交互，写操作同步等待回执
type channelClient struct {
	cli queue.Client
}

// Init channel client
func (c *channelClient) Init(q queue.Client) {
	c.cli = q
}

// SendTx 提交签名信封，返回执行回执
func (c *channelClient) SendTx(tx *types.Transaction) (*types.Receipt, error) {
	if tx == nil || tx.Payload == nil {
		log.Error("SendTx", "err", types.ErrInvalidParam)
		return nil, types.ErrInvalidParam
	}
	msg := c.cli.NewMessage("execs", types.EventTx, tx)
	err := c.cli.Send(msg, true)
	if err != nil {
		log.Error("SendTx", "send err", err)
		return nil, err
	}
	resp, err := c.cli.Wait(msg)
	if err != nil {
		return nil, err
	}
	receipt, ok := resp.GetData().(*types.Receipt)
	if !ok {
		return nil, types.ErrTypeAsset
	}
	return receipt, nil
}

// Query 转发查询，返回对应 funcName 的应答结构
func (c *channelClient) Query(funcName string, payload []byte) (interface{}, error) {
	query := &types.Query{FuncName: funcName, Payload: payload}
	msg := c.cli.NewMessage("execs", types.EventQuery, query)
	err := c.cli.Send(msg, true)
	if err != nil {
		log.Error("Query", "funcName", funcName, "send err", err)
		return nil, err
	}
	resp, err := c.cli.Wait(msg)
	if err != nil {
		return nil, err
	}
	return resp.GetData(), nil
}

// Close 关闭队列客户端
func (c *channelClient) Close() {
	if c.cli != nil {
		c.cli.Close()
	}
}
