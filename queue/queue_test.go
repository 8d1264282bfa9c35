// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package queue

import (
	"testing"
	"time"

	"github.com/33cn/bountypot/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiTopic(t *testing.T) {
	q := New("channel")

	//执行器
	go func() {
		client := q.Client()
		client.Sub("execs")
		for msg := range client.Recv() {
			if msg.Ty == types.EventTx {
				msg.Reply(client.NewMessage("execs", types.EventTxReceipt, &types.Receipt{Ty: types.ExecOk}))
			}
		}
	}()

	//查询
	go func() {
		client := q.Client()
		client.Sub("query")
		for msg := range client.Recv() {
			if msg.Ty == types.EventQuery {
				msg.Reply(client.NewMessage("query", types.EventReply, &types.ReplyPot{}))
			}
		}
	}()

	//rpc 模块 会向其他模块发送消息，自己本身不需要订阅消息
	go func() {
		client := q.Client()
		msg := client.NewMessage("execs", types.EventTx, "hello")
		err := client.Send(msg, true)
		require.NoError(t, err)
		reply, err := client.Wait(msg)
		require.NoError(t, err)
		receipt, ok := reply.GetData().(*types.Receipt)
		require.True(t, ok)
		assert.Equal(t, int32(types.ExecOk), receipt.Ty)

		msg = client.NewMessage("query", types.EventQuery, nil)
		err = client.Send(msg, true)
		require.NoError(t, err)
		_, err = client.Wait(msg)
		require.NoError(t, err)
		q.Close()
	}()
	q.Start()
}

func TestReplyErr(t *testing.T) {
	q := New("channel")

	go func() {
		client := q.Client()
		client.Sub("execs")
		for msg := range client.Recv() {
			msg.ReplyErr("Exec", types.ErrPotNotFound)
		}
	}()

	client := q.Client()
	msg := client.NewMessage("execs", types.EventTx, "hello")
	err := client.Send(msg, true)
	require.NoError(t, err)
	reply, err := client.Wait(msg)
	require.Equal(t, types.ErrPotNotFound, err)
	assert.Nil(t, reply.GetData())
	q.Close()
}

func TestSendAsyn(t *testing.T) {
	q := New("channel")
	client := q.Client()

	done := make(chan struct{})
	sub := q.Client()
	sub.Sub("events")
	go func() {
		for msg := range sub.Recv() {
			if msg.Ty == types.EventLedgerLog {
				close(done)
				return
			}
		}
	}()

	//低优先级不等待回复
	msg := client.NewMessage("events", types.EventLedgerLog, &types.PotEvent{Seq: 1})
	err := client.SendTimeout(msg, false, 0)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("asyn message not delivered")
	}
	q.Close()
}

func TestClientClose(t *testing.T) {
	q := New("channel")
	client := q.Client()
	client.Sub("execs")
	client.Close()

	err := client.SendTimeout(client.NewMessage("execs", types.EventTx, "x"), true, time.Second)
	require.Equal(t, types.ErrIsQueueClosed, err)
	q.Close()
}
