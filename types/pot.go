// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package types bountypot 的数据结构、操作载荷、错误与配置定义
package types

import "encoding/json"

// Pot 奖池记录。PotId 从 0 递增且永不复用，记录只关闭不删除
type Pot struct {
	PotId         int64  `json:"potId"`
	Creator       string `json:"creator"`
	TotalAmount   int64  `json:"totalAmount"`
	Fee           int64  `json:"fee"`
	CreatedAt     int64  `json:"createdAt"`
	ExpiresAt     int64  `json:"expiresAt"`
	IsActive      bool   `json:"isActive"`
	AttemptsCount int64  `json:"attemptsCount"`
	AuxRef        string `json:"auxRef,omitempty"`
}

// Attempt 单次解题尝试，全局编号，窗口固定 AttemptWindow 秒
type Attempt struct {
	AttemptId   int64  `json:"attemptId"`
	PotId       int64  `json:"potId"`
	Hunter      string `json:"hunter"`
	CreatedAt   int64  `json:"createdAt"`
	ExpiresAt   int64  `json:"expiresAt"`
	Difficulty  int64  `json:"difficulty"`
	IsCompleted bool   `json:"isCompleted"`
}

// LedgerConfig 账本配置记录，Initialize 写入且只写一次，UpdateOracle 可换 oracle
type LedgerConfig struct {
	Symbol      string `json:"symbol"`
	Oracle      string `json:"oracle"`
	Initialized bool   `json:"initialized"`
}

// Account 托管代币账户
type Account struct {
	Currency int32  `json:"currency,omitempty"`
	Balance  int64  `json:"balance"`
	Frozen   int64  `json:"frozen,omitempty"`
	Addr     string `json:"addr"`
}

// PotCreate 建池参数，Duration 为秒
type PotCreate struct {
	TotalAmount int64  `json:"totalAmount"`
	Duration    int64  `json:"duration"`
	Fee         int64  `json:"fee"`
	AuxRef      string `json:"auxRef,omitempty"`
}

// PotAttempt 发起尝试
type PotAttempt struct {
	PotId int64 `json:"potId"`
}

// PotComplete oracle 回报判定结果
type PotComplete struct {
	AttemptId int64 `json:"attemptId"`
	Succeeded bool  `json:"succeeded"`
}

// PotExpire 过期退款，任何人可触发
type PotExpire struct {
	PotId int64 `json:"potId"`
}

// PotInit 账本初始化参数
type PotInit struct {
	Symbol string `json:"symbol"`
	Oracle string `json:"oracle"`
}

// PotUpdateOracle 更换 oracle
type PotUpdateOracle struct {
	Oracle string `json:"oracle"`
}

// PotAction 操作载荷，Ty 指明分支，其余字段只填对应的一个
type PotAction struct {
	Ty           int32            `json:"ty"`
	Create       *PotCreate       `json:"create,omitempty"`
	Attempt      *PotAttempt      `json:"attempt,omitempty"`
	Complete     *PotComplete     `json:"complete,omitempty"`
	Expire       *PotExpire       `json:"expire,omitempty"`
	Init         *PotInit         `json:"init,omitempty"`
	UpdateOracle *PotUpdateOracle `json:"updateOracle,omitempty"`
}

// GetTy nil 安全取操作类型
func (a *PotAction) GetTy() int32 {
	if a == nil {
		return 0
	}
	return a.Ty
}

// KeyValue 状态写集合的一项
type KeyValue struct {
	Key   []byte `json:"key"`
	Value []byte `json:"value"`
}

// GetKey nil 安全取键
func (kv *KeyValue) GetKey() []byte {
	if kv == nil {
		return nil
	}
	return kv.Key
}

// GetValue nil 安全取值
func (kv *KeyValue) GetValue() []byte {
	if kv == nil {
		return nil
	}
	return kv.Value
}

// ReceiptLog 回执日志，Log 为对应 Ty 的 JSON 载荷
type ReceiptLog struct {
	Ty  int32           `json:"ty"`
	Log json.RawMessage `json:"log"`
}

// Receipt 一次操作的全部执行结果：状态写集合与事件日志，整体原子生效
type Receipt struct {
	Ty   int32         `json:"ty"`
	KV   []*KeyValue   `json:"kv"`
	Logs []*ReceiptLog `json:"logs"`
}

// GetKV nil 安全取写集合
func (r *Receipt) GetKV() []*KeyValue {
	if r == nil {
		return nil
	}
	return r.KV
}

// GetLogs nil 安全取日志
func (r *Receipt) GetLogs() []*ReceiptLog {
	if r == nil {
		return nil
	}
	return r.Logs
}

// ReceiptAccountTransfer 转账回执，前后两份账户快照
type ReceiptAccountTransfer struct {
	Prev    *Account `json:"prev"`
	Current *Account `json:"current"`
}

// ReceiptPotCreated 建池事件
type ReceiptPotCreated struct {
	Pot *Pot `json:"pot"`
}

// ReceiptPotAttempted 尝试事件，Pot 为计数更新后的快照
type ReceiptPotAttempted struct {
	Attempt      *Attempt `json:"attempt"`
	Pot          *Pot     `json:"pot"`
	CreatorShare int64    `json:"creatorShare"`
	CustodyShare int64    `json:"custodyShare"`
}

// ReceiptPotSolved 解题成功事件，奖池就此关闭
type ReceiptPotSolved struct {
	Pot         *Pot     `json:"pot"`
	Attempt     *Attempt `json:"attempt"`
	HunterShare int64    `json:"hunterShare"`
	Timestamp   int64    `json:"timestamp"`
}

// ReceiptPotFailed 解题失败事件，不动资金
type ReceiptPotFailed struct {
	Attempt   *Attempt `json:"attempt"`
	Timestamp int64    `json:"timestamp"`
}

// ReceiptPotExpired 过期退款事件
type ReceiptPotExpired struct {
	Pot       *Pot  `json:"pot"`
	Refund    int64 `json:"refund"`
	Timestamp int64 `json:"timestamp"`
}

// ReceiptPotInit 账本初始化事件
type ReceiptPotInit struct {
	Config *LedgerConfig `json:"config"`
}

// ReceiptOracleUpdated oracle 更换事件
type ReceiptOracleUpdated struct {
	Prev   string `json:"prev"`
	Oracle string `json:"oracle"`
}

// PotEvent 事件日志条目，Seq 严格递增
type PotEvent struct {
	Seq int64           `json:"seq"`
	Ty  int32           `json:"ty"`
	Log json.RawMessage `json:"log"`
}

// PotRecord 本地索引值，只存编号，记录本体从状态库读
type PotRecord struct {
	PotId int64 `json:"potId"`
}

// AttemptRecord 尝试索引值
type AttemptRecord struct {
	AttemptId int64 `json:"attemptId"`
	PotId     int64 `json:"potId"`
}

// Query 查询请求，FuncName 路由，Payload 为对应参数的 JSON
type Query struct {
	FuncName string          `json:"funcName"`
	Payload  json.RawMessage `json:"payload"`
}

// ReqPot 按编号查奖池
type ReqPot struct {
	PotId int64 `json:"potId"`
}

// ReplyPot 奖池查询结果
type ReplyPot struct {
	Pot *Pot `json:"pot"`
}

// ReqAttempt 按编号查尝试
type ReqAttempt struct {
	AttemptId int64 `json:"attemptId"`
}

// ReplyAttempt 尝试查询结果
type ReplyAttempt struct {
	Attempt *Attempt `json:"attempt"`
}

// ReqPotList 奖池列表查询。Status 为 0 表示全部；
// Index 为翻页游标，填上一页末条的编号，0 表示从头
type ReqPotList struct {
	Status    int32 `json:"status,omitempty"`
	Count     int32 `json:"count,omitempty"`
	Direction int32 `json:"direction,omitempty"`
	Index     int64 `json:"index,omitempty"`
}

// ReplyPotList 奖池列表
type ReplyPotList struct {
	Pots []*Pot `json:"pots"`
}

// ReqPotAttempts 查某一奖池下的尝试
type ReqPotAttempts struct {
	PotId int64 `json:"potId"`
	Count int32 `json:"count,omitempty"`
	Index int64 `json:"index,omitempty"`
}

// ReplyAttemptList 尝试列表
type ReplyAttemptList struct {
	Attempts []*Attempt `json:"attempts"`
}

// ReqAddr 按地址查询
type ReqAddr struct {
	Addr string `json:"addr"`
}

// ReqNil 无参数查询的占位
type ReqNil struct{}

// ReqEvents 事件拉取，Seq 为游标，返回其后最多 Count 条，0 表示从头
type ReqEvents struct {
	Seq   int64 `json:"seq"`
	Count int32 `json:"count,omitempty"`
}

// ReplyEvents 事件列表
type ReplyEvents struct {
	Events []*PotEvent `json:"events"`
}

// ReplyStatus 账本总体状态
type ReplyStatus struct {
	Initialized    bool   `json:"initialized"`
	Symbol         string `json:"symbol"`
	Oracle         string `json:"oracle"`
	CustodyAddr    string `json:"custodyAddr"`
	CustodyBalance int64  `json:"custodyBalance"`
	PotCount       int64  `json:"potCount"`
	AttemptCount   int64  `json:"attemptCount"`
	EventCount     int64  `json:"eventCount"`
}

// Encode JSON 编码，失败视为编程错误直接 panic
func Encode(data interface{}) []byte {
	b, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	return b
}

// Decode JSON 解码
func Decode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
