// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"github.com/33cn/bountypot/rpc/jsonclient"
	"github.com/33cn/bountypot/types"
	"github.com/spf13/cobra"
)

// StatusCmd ledger status command
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Get overall ledger status",
		Run:   ledgerStatus,
	}
	return cmd
}

func ledgerStatus(cmd *cobra.Command, args []string) {
	rpcLaddr, _ := cmd.Flags().GetString("rpc_laddr")
	decimals, _ := cmd.Flags().GetInt32("decimals")

	params := &types.ReqNil{}
	var res types.ReplyStatus
	ctx := jsonclient.NewRPCCtx(rpcLaddr, "Pot.GetStatus", params, &res)
	ctx.SetResultCb(func(in interface{}) (interface{}, error) {
		status := in.(*types.ReplyStatus)
		return &statusResult{
			Initialized:    status.Initialized,
			Symbol:         status.Symbol,
			Oracle:         status.Oracle,
			CustodyAddr:    status.CustodyAddr,
			CustodyBalance: types.FormatAmount(status.CustodyBalance, decimals),
			PotCount:       status.PotCount,
			AttemptCount:   status.AttemptCount,
			EventCount:     status.EventCount,
		}, nil
	})
	ctx.Run()
}

type statusResult struct {
	Initialized    bool   `json:"initialized"`
	Symbol         string `json:"symbol"`
	Oracle         string `json:"oracle"`
	CustodyAddr    string `json:"custodyAddr"`
	CustodyBalance string `json:"custodyBalance"`
	PotCount       int64  `json:"potCount"`
	AttemptCount   int64  `json:"attemptCount"`
	EventCount     int64  `json:"eventCount"`
}
