// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"fmt"

	"github.com/33cn/bountypot/common"
	"github.com/33cn/bountypot/types"
)

// 状态库 key 前缀用 mavl-，本地索引与事件流水用 LODB-。
// 编号一律 %018d 零填充，保证前缀迭代即编号升序。
const (
	statePrefix = "mavl-" + types.BountyPotX + "-"
	localPrefix = "LODB-" + types.BountyPotX + "-"
)

// PotKey 奖池记录的状态库 key
func PotKey(id int64) []byte {
	return []byte(fmt.Sprintf("%spot-%018d", statePrefix, id))
}

// PotKeyPrefix 奖池记录前缀，全量遍历用
func PotKeyPrefix() []byte {
	return []byte(statePrefix + "pot-")
}

// AttemptKey 尝试记录的状态库 key
func AttemptKey(id int64) []byte {
	return []byte(fmt.Sprintf("%sattempt-%018d", statePrefix, id))
}

// ConfigKey 账本配置记录
func ConfigKey() []byte {
	return []byte(statePrefix + "config")
}

func potCountKey() []byte {
	return []byte(statePrefix + "potcount")
}

func attemptCountKey() []byte {
	return []byte(statePrefix + "attemptcount")
}

// txDupKey 已执行信封哈希，重放拒绝用
func txDupKey(hash []byte) []byte {
	return []byte(statePrefix + "tx-" + common.Bytes2Hex(hash))
}

// genesisKey 创世注资标记，保证重启不重复注资
func genesisKey() []byte {
	return []byte(statePrefix + "genesis")
}

// calcPotStatusIndexKey 按状态的奖池索引
func calcPotStatusIndexKey(status int32, potId int64) []byte {
	return []byte(fmt.Sprintf("%sstatus:%d:%018d", localPrefix, status, potId))
}

func calcPotStatusPrefix(status int32) []byte {
	return []byte(fmt.Sprintf("%sstatus:%d:", localPrefix, status))
}

// calcPotCreatorIndexKey 按创建者地址的奖池索引
func calcPotCreatorIndexKey(addr string, potId int64) []byte {
	return []byte(fmt.Sprintf("%screator:%s:%018d", localPrefix, addr, potId))
}

func calcPotCreatorPrefix(addr string) []byte {
	return []byte(fmt.Sprintf("%screator:%s:", localPrefix, addr))
}

// calcHunterIndexKey 按猎人地址的尝试索引
func calcHunterIndexKey(addr string, attemptId int64) []byte {
	return []byte(fmt.Sprintf("%shunter:%s:%018d", localPrefix, addr, attemptId))
}

func calcHunterPrefix(addr string) []byte {
	return []byte(fmt.Sprintf("%shunter:%s:", localPrefix, addr))
}

// calcPotAttemptIndexKey 奖池下属尝试索引
func calcPotAttemptIndexKey(potId, attemptId int64) []byte {
	return []byte(fmt.Sprintf("%spotattempt:%018d:%018d", localPrefix, potId, attemptId))
}

func calcPotAttemptPrefix(potId int64) []byte {
	return []byte(fmt.Sprintf("%spotattempt:%018d:", localPrefix, potId))
}

// calcEventSeqKey 事件流水，Seq 严格递增
func calcEventSeqKey(seq int64) []byte {
	return []byte(fmt.Sprintf("%sseq-%018d", localPrefix, seq))
}

func calcEventSeqPrefix() []byte {
	return []byte(localPrefix + "seq-")
}

func eventCountKey() []byte {
	return []byte(localPrefix + "seqcount")
}
