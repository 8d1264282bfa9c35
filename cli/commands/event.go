// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"github.com/33cn/bountypot/rpc/jsonclient"
	"github.com/33cn/bountypot/types"
	"github.com/spf13/cobra"
)

// EventCmd event journal command
func EventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "event journal",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.AddCommand(EventListCmd())

	return cmd
}

// EventListCmd pull events from the journal
func EventListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events after a sequence cursor",
		Run:   eventList,
	}
	cmd.Flags().Int64P("seq", "s", 0, "last seen sequence number, events after it are returned")
	cmd.Flags().Int32P("count", "c", 10, "number of events to fetch")
	return cmd
}

func eventList(cmd *cobra.Command, args []string) {
	rpcLaddr, _ := cmd.Flags().GetString("rpc_laddr")
	seq, _ := cmd.Flags().GetInt64("seq")
	count, _ := cmd.Flags().GetInt32("count")

	params := &types.ReqEvents{Seq: seq, Count: count}
	var res types.ReplyEvents
	ctx := jsonclient.NewRPCCtx(rpcLaddr, "Pot.GetEvents", params, &res)
	ctx.Run()
}
