// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package queue 进程内多对多消息队列，按 topic 订阅，高低两个优先级通道
package queue

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/33cn/bountypot/types"
	log "github.com/inconshreveable/log15"
)

var qlog = log.New("module", "queue")

const (
	defaultChanBuffer    = 64
	defaultLowChanBuffer = 40960
)

// DisableLog disable log
func DisableLog() {
	qlog.SetHandler(log.DiscardHandler())
}

type chanSub struct {
	high    chan Message
	low     chan Message
	isClose int32
}

// Queue 进程内全局只有一个
type Queue interface {
	Close()
	Start()
	Client() Client
	Name() string
}

type queue struct {
	chanSubs map[string]*chanSub
	mu       sync.Mutex
	done     chan struct{}
	interupt chan struct{}
	isClose  int32
	name     string
}

// New new queue
func New(name string) Queue {
	q := &queue{
		chanSubs: make(map[string]*chanSub),
		name:     name,
		done:     make(chan struct{}, 1),
		interupt: make(chan struct{}, 1),
	}
	return q
}

// Name 队列名称
func (q *queue) Name() string {
	return q.name
}

// Start 阻塞到队列关闭或收到退出信号
func (q *queue) Start() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case <-q.done:
	case <-q.interupt:
		qlog.Info("closing", "ty", "interrupt")
	case s := <-c:
		qlog.Info("closing", "signal", s)
	}
}

func (q *queue) isClosed() bool {
	return atomic.LoadInt32(&q.isClose) == 1
}

// Close 关闭队列，通知全部订阅者退出
func (q *queue) Close() {
	if q.isClosed() {
		return
	}
	q.mu.Lock()
	for topic, ch := range q.chanSubs {
		if ch.isClose == 0 {
			ch.high <- Message{}
			ch.low <- Message{}
			q.chanSubs[topic] = &chanSub{isClose: 1}
		}
	}
	q.mu.Unlock()
	q.done <- struct{}{}
	close(q.done)
	atomic.StoreInt32(&q.isClose, 1)
	qlog.Info("queue module closed")
}

func (q *queue) chanSub(topic string) *chanSub {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.chanSubs[topic]
	if !ok {
		q.chanSubs[topic] = &chanSub{
			high: make(chan Message, defaultChanBuffer),
			low:  make(chan Message, defaultLowChanBuffer),
		}
	}
	return q.chanSubs[topic]
}

func (q *queue) closeTopic(topic string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	sub, ok := q.chanSubs[topic]
	if !ok {
		return
	}
	if sub.isClose == 0 {
		sub.high <- Message{}
		sub.low <- Message{}
	}
	q.chanSubs[topic] = &chanSub{isClose: 1}
}

func (q *queue) send(msg Message, timeout time.Duration) (err error) {
	if q.isClosed() {
		return types.ErrIsQueueClosed
	}
	sub := q.chanSub(msg.Topic)
	if sub.isClose == 1 {
		return types.ErrIsQueueClosed
	}
	defer func() {
		//发送到关闭的通道会产生panic
		if res := recover(); res != nil {
			err = res.(error)
		}
	}()
	if timeout == -1 {
		sub.high <- msg
		return nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case sub.high <- msg:
	case <-t.C:
		qlog.Error("send timeout", "topic", msg.Topic, "ty", msg.Ty)
		return types.ErrTimeout
	}
	qlog.Debug("send ok", "msg", msg)
	return nil
}

func (q *queue) sendLowTimeout(msg Message, timeout time.Duration) (err error) {
	if q.isClosed() {
		return types.ErrIsQueueClosed
	}
	sub := q.chanSub(msg.Topic)
	if sub.isClose == 1 {
		return types.ErrIsQueueClosed
	}
	defer func() {
		if res := recover(); res != nil {
			err = res.(error)
		}
	}()
	if timeout == -1 {
		sub.low <- msg
		return nil
	}
	if timeout == 0 {
		return q.sendAsyn(msg)
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case sub.low <- msg:
		return nil
	case <-t.C:
		qlog.Error("send low timeout", "topic", msg.Topic, "ty", msg.Ty)
		return types.ErrTimeout
	}
}

func (q *queue) sendAsyn(msg Message) error {
	if q.isClosed() {
		return types.ErrIsQueueClosed
	}
	sub := q.chanSub(msg.Topic)
	if sub.isClose == 1 {
		return types.ErrIsQueueClosed
	}
	select {
	case sub.low <- msg:
		qlog.Debug("send asyn ok", "msg", msg)
		return nil
	default:
		qlog.Error("send asyn failed", "msg", msg)
		return types.ErrChannelFull
	}
}

// Client new client
func (q *queue) Client() Client {
	return newClient(q)
}

// Message 队列消息
type Message struct {
	Topic   string
	Ty      int64
	Id      int64
	Data    interface{}
	chReply chan Message
}

// NewMessage new message
func NewMessage(id int64, topic string, ty int64, data interface{}) (msg Message) {
	msg.Id = id
	msg.Ty = ty
	msg.Data = data
	msg.Topic = topic
	msg.chReply = make(chan Message, 1)
	return msg
}

// GetData 取数据，数据为错误时返回nil
func (msg Message) GetData() interface{} {
	if _, ok := msg.Data.(error); ok {
		return nil
	}
	return msg.Data
}

// Err 数据为错误时返回该错误
func (msg Message) Err() error {
	if err, ok := msg.Data.(error); ok {
		return err
	}
	return nil
}

// Reply 回复消息
func (msg Message) Reply(replyMsg Message) {
	if msg.chReply == nil {
		qlog.Debug("reply a empty chreply", "msg", msg)
		return
	}
	msg.chReply <- replyMsg
	qlog.Debug("reply msg ok", "msg", msg)
}

// ReplyErr 以错误数据回复消息
func (msg Message) ReplyErr(title string, err error) {
	var reply Message
	reply.Topic = msg.Topic
	reply.Ty = types.EventReply
	reply.Id = msg.Id
	reply.Data = err
	msg.Reply(reply)
}

// String 打印消息摘要
func (msg Message) String() string {
	return fmt.Sprintf("{topic:%s, Ty:%s, Id:%d, Err:%v}", msg.Topic,
		types.GetEventName(msg.Ty), msg.Id, msg.Err())
}
