// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

// BountyPotX 执行器名称
const BountyPotX = "bountypot"

// ExecerBountyPot 执行器名称的字节形式
var ExecerBountyPot = []byte(BountyPotX)

// pot action type
const (
	PotActionCreate = iota + 1
	PotActionAttempt
	PotActionComplete
	PotActionExpire
	PotActionInit
	PotActionUpdateOracle
)

var actionName = map[int32]string{
	PotActionCreate:       "create",
	PotActionAttempt:      "attempt",
	PotActionComplete:     "complete",
	PotActionExpire:       "expire",
	PotActionInit:         "init",
	PotActionUpdateOracle: "updateOracle",
}

// GetActionName 操作类型转名称，日志和指标用
func GetActionName(ty int32) string {
	name, ok := actionName[ty]
	if !ok {
		return "unknown"
	}
	return name
}

// receipt 执行结果
const (
	ExecErr = 0
	ExecOk  = 2
)

// account receipt log
const (
	TyLogTransfer = 3
	TyLogDeposit  = 5
)

// pot receipt log，独立区段，避免和账户日志混淆
const (
	TyLogPotCreated    = 721
	TyLogPotAttempted  = 722
	TyLogPotSolved     = 723
	TyLogPotFailed     = 724
	TyLogPotExpired    = 725
	TyLogPotInit       = 726
	TyLogOracleUpdated = 727
)

// pot status，只用于本地索引，状态机本身以 IsActive 为准
const (
	PotStatusActive = iota + 1
	PotStatusSolved
	PotStatusExpired
)

// 资金分配与难度参数
const (
	// MinFee 入场费下限，最小计价单位
	MinFee int64 = 1
	// CreatorFeeSharePercent 入场费中归创建者的比例
	CreatorFeeSharePercent int64 = 50
	// HunterSharePercent 解题成功后猎人拿走的奖池比例，余下留在托管账户
	HunterSharePercent int64 = 60
	// DifficultyBase 难度基数
	DifficultyBase int64 = 3
	// DifficultyMod 难度按 attemptsCount 取模循环
	DifficultyMod int64 = 9
	// AttemptWindow 单次尝试的有效窗口，秒
	AttemptWindow int64 = 300
)

// 签名类型
const (
	SECP256K1 = 1
	SM2       = 2
)

// GetSignName 签名类型转名称
func GetSignName(signTy int32) string {
	switch signTy {
	case SECP256K1:
		return "secp256k1"
	case SM2:
		return "sm2"
	}
	return "unknown"
}

// GetSignType 签名名称转类型
func GetSignType(name string) int32 {
	switch name {
	case "secp256k1":
		return SECP256K1
	case "sm2":
		return SM2
	}
	return 0
}
