// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"time"

	"github.com/33cn/bountypot/types"
	gometrics "github.com/rcrowley/go-metrics"
)

// 执行指标进默认注册表，由 metrics 包统一上报
var (
	execTimer      = gometrics.GetOrRegisterTimer("bountypot/exec", nil)
	execErrCounter = gometrics.GetOrRegisterCounter("bountypot/exec/err", nil)

	potCreatedCounter   = gometrics.GetOrRegisterCounter("bountypot/pot/created", nil)
	potAttemptedCounter = gometrics.GetOrRegisterCounter("bountypot/pot/attempted", nil)
	potSolvedCounter    = gometrics.GetOrRegisterCounter("bountypot/pot/solved", nil)
	potFailedCounter    = gometrics.GetOrRegisterCounter("bountypot/pot/failed", nil)
	potExpiredCounter   = gometrics.GetOrRegisterCounter("bountypot/pot/expired", nil)
)

func markExec(receipt *types.Receipt, elapsed time.Duration) {
	execTimer.Update(elapsed)
	if receipt == nil {
		return
	}
	for _, lg := range receipt.Logs {
		switch lg.Ty {
		case types.TyLogPotCreated:
			potCreatedCounter.Inc(1)
		case types.TyLogPotAttempted:
			potAttemptedCounter.Inc(1)
		case types.TyLogPotSolved:
			potSolvedCounter.Inc(1)
		case types.TyLogPotFailed:
			potFailedCounter.Inc(1)
		case types.TyLogPotExpired:
			potExpiredCounter.Inc(1)
		}
	}
}

func markExecErr(ty int32) {
	execErrCounter.Inc(1)
	gometrics.GetOrRegisterCounter("bountypot/exec/err/"+types.GetActionName(ty), nil).Inc(1)
}
