// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

// queue 消息类型
const (
	EventTx int64 = iota + 1
	EventTxReceipt
	EventQuery
	EventReply
	EventLedgerLog
)

var eventName = map[int64]string{
	EventTx:        "EventTx",
	EventTxReceipt: "EventTxReceipt",
	EventQuery:     "EventQuery",
	EventReply:     "EventReply",
	EventLedgerLog: "EventLedgerLog",
}

// GetEventName 事件类型转名称，日志用
func GetEventName(event int64) string {
	name, ok := eventName[event]
	if !ok {
		return "unknown-event"
	}
	return name
}
