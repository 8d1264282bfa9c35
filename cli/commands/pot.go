// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"os"

	"github.com/33cn/bountypot/rpc/jsonclient"
	"github.com/33cn/bountypot/types"
	"github.com/spf13/cobra"
)

// PotCmd pot management command
func PotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pot",
		Short: "bounty pot management",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.AddCommand(
		PotCreateCmd(),
		PotAttemptCmd(),
		PotResolveCmd(),
		PotExpireCmd(),
		PotGetCmd(),
		PotListCmd(),
		PotActiveCmd(),
		PotAttemptsCmd(),
	)

	return cmd
}

// PotCreateCmd create a new pot
func PotCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new bounty pot",
		Run:   potCreate,
	}
	addPotCreateFlags(cmd)
	return cmd
}

func addPotCreateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("amount", "a", "", "total amount in display units")
	cmd.MarkFlagRequired("amount")

	cmd.Flags().Int64P("duration", "d", 0, "pot lifetime in seconds")
	cmd.MarkFlagRequired("duration")

	cmd.Flags().StringP("fee", "f", "", "attempt fee in display units")
	cmd.MarkFlagRequired("fee")

	cmd.Flags().String("auxref", "", "associated 0x reference (optional)")

	addTxFlags(cmd)
}

func potCreate(cmd *cobra.Command, args []string) {
	amountStr, _ := cmd.Flags().GetString("amount")
	duration, _ := cmd.Flags().GetInt64("duration")
	feeStr, _ := cmd.Flags().GetString("fee")
	auxRef, _ := cmd.Flags().GetString("auxref")

	amount, err := parseAmount(cmd, amountStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fee, err := parseAmount(cmd, feeStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	ref, err := normalizeAuxRef(auxRef)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	action := &types.PotAction{
		Ty: types.PotActionCreate,
		Create: &types.PotCreate{
			TotalAmount: amount,
			Duration:    duration,
			Fee:         fee,
			AuxRef:      ref,
		},
	}
	sendAction(cmd, "Pot.CreatePot", action)
}

// PotAttemptCmd attempt to solve a pot
func PotAttemptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attempt",
		Short: "Attempt to solve a pot, pays the attempt fee",
		Run:   potAttempt,
	}
	addPotAttemptFlags(cmd)
	return cmd
}

func addPotAttemptFlags(cmd *cobra.Command) {
	cmd.Flags().Int64P("potId", "g", 0, "pot id")
	cmd.MarkFlagRequired("potId")

	addTxFlags(cmd)
}

func potAttempt(cmd *cobra.Command, args []string) {
	potID, _ := cmd.Flags().GetInt64("potId")

	action := &types.PotAction{
		Ty:      types.PotActionAttempt,
		Attempt: &types.PotAttempt{PotId: potID},
	}
	sendAction(cmd, "Pot.AttemptPot", action)
}

// PotResolveCmd report the verdict of an attempt, oracle only
func PotResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Report the verdict of an attempt (oracle only)",
		Run:   potResolve,
	}
	addPotResolveFlags(cmd)
	return cmd
}

func addPotResolveFlags(cmd *cobra.Command) {
	cmd.Flags().Int64P("attemptId", "t", 0, "attempt id")
	cmd.MarkFlagRequired("attemptId")

	cmd.Flags().StringP("result", "r", "", "verdict, success or failure")
	cmd.MarkFlagRequired("result")

	addTxFlags(cmd)
}

func potResolve(cmd *cobra.Command, args []string) {
	attemptID, _ := cmd.Flags().GetInt64("attemptId")
	result, _ := cmd.Flags().GetString("result")

	var succeeded bool
	switch result {
	case "success":
		succeeded = true
	case "failure":
		succeeded = false
	default:
		fmt.Fprintf(os.Stderr, "unknown result %q, want success or failure\n", result)
		return
	}

	action := &types.PotAction{
		Ty:       types.PotActionComplete,
		Complete: &types.PotComplete{AttemptId: attemptID, Succeeded: succeeded},
	}
	sendAction(cmd, "Pot.AttemptCompleted", action)
}

// PotExpireCmd refund an expired pot
func PotExpireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Refund an expired pot to its creator",
		Run:   potExpire,
	}
	addPotExpireFlags(cmd)
	return cmd
}

func addPotExpireFlags(cmd *cobra.Command) {
	cmd.Flags().Int64P("potId", "g", 0, "pot id")
	cmd.MarkFlagRequired("potId")

	addTxFlags(cmd)
}

func potExpire(cmd *cobra.Command, args []string) {
	potID, _ := cmd.Flags().GetInt64("potId")

	action := &types.PotAction{
		Ty:     types.PotActionExpire,
		Expire: &types.PotExpire{PotId: potID},
	}
	sendAction(cmd, "Pot.ExpirePot", action)
}

// PotGetCmd query one pot by id
func PotGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get pot by id",
		Run:   potGet,
	}
	cmd.Flags().Int64P("potId", "g", 0, "pot id")
	cmd.MarkFlagRequired("potId")
	return cmd
}

func potGet(cmd *cobra.Command, args []string) {
	rpcLaddr, _ := cmd.Flags().GetString("rpc_laddr")
	decimals, _ := cmd.Flags().GetInt32("decimals")
	potID, _ := cmd.Flags().GetInt64("potId")

	params := &types.ReqPot{PotId: potID}
	var res types.ReplyPot
	ctx := jsonclient.NewRPCCtx(rpcLaddr, "Pot.GetPot", params, &res)
	ctx.SetResultCb(func(in interface{}) (interface{}, error) {
		return formatPot(in.(*types.ReplyPot).Pot, decimals), nil
	})
	ctx.Run()
}

// PotListCmd list pots by status
func PotListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pots, newest first",
		Run:   potList,
	}
	addPotListFlags(cmd)
	return cmd
}

func addPotListFlags(cmd *cobra.Command) {
	cmd.Flags().Int32P("status", "s", 0, "pot status (0:all 1:active 2:solved 3:expired)")
	cmd.Flags().Int32P("count", "c", 10, "number of pots to fetch")
	cmd.Flags().Int32P("direction", "d", 0, "query direction (0:desc 1:asc)")
	cmd.Flags().Int64P("index", "i", 0, "cursor, pot id of the last record of the previous page")
}

func potList(cmd *cobra.Command, args []string) {
	rpcLaddr, _ := cmd.Flags().GetString("rpc_laddr")
	decimals, _ := cmd.Flags().GetInt32("decimals")
	status, _ := cmd.Flags().GetInt32("status")
	count, _ := cmd.Flags().GetInt32("count")
	direction, _ := cmd.Flags().GetInt32("direction")
	index, _ := cmd.Flags().GetInt64("index")

	params := &types.ReqPotList{
		Status:    status,
		Count:     count,
		Direction: direction,
		Index:     index,
	}
	var res types.ReplyPotList
	ctx := jsonclient.NewRPCCtx(rpcLaddr, "Pot.GetPots", params, &res)
	ctx.SetResultCb(func(in interface{}) (interface{}, error) {
		return formatPotList(in.(*types.ReplyPotList), decimals), nil
	})
	ctx.Run()
}

// PotActiveCmd list active pots
func PotActiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "active",
		Short: "List active pots, newest first",
		Run:   potActive,
	}
	cmd.Flags().Int32P("count", "c", 10, "number of pots to fetch")
	cmd.Flags().Int64P("index", "i", 0, "cursor, pot id of the last record of the previous page")
	return cmd
}

func potActive(cmd *cobra.Command, args []string) {
	rpcLaddr, _ := cmd.Flags().GetString("rpc_laddr")
	decimals, _ := cmd.Flags().GetInt32("decimals")
	count, _ := cmd.Flags().GetInt32("count")
	index, _ := cmd.Flags().GetInt64("index")

	params := &types.ReqPotList{Count: count, Index: index}
	var res types.ReplyPotList
	ctx := jsonclient.NewRPCCtx(rpcLaddr, "Pot.GetActivePots", params, &res)
	ctx.SetResultCb(func(in interface{}) (interface{}, error) {
		return formatPotList(in.(*types.ReplyPotList), decimals), nil
	})
	ctx.Run()
}

// PotAttemptsCmd list attempts of one pot
func PotAttemptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attempts",
		Short: "List attempts of a pot, newest first",
		Run:   potAttempts,
	}
	cmd.Flags().Int64P("potId", "g", 0, "pot id")
	cmd.MarkFlagRequired("potId")
	cmd.Flags().Int32P("count", "c", 10, "number of attempts to fetch")
	cmd.Flags().Int64P("index", "i", 0, "cursor, attempt id of the last record of the previous page")
	return cmd
}

func potAttempts(cmd *cobra.Command, args []string) {
	rpcLaddr, _ := cmd.Flags().GetString("rpc_laddr")
	potID, _ := cmd.Flags().GetInt64("potId")
	count, _ := cmd.Flags().GetInt32("count")
	index, _ := cmd.Flags().GetInt64("index")

	params := &types.ReqPotAttempts{PotId: potID, Count: count, Index: index}
	var res types.ReplyAttemptList
	ctx := jsonclient.NewRPCCtx(rpcLaddr, "Pot.GetPotAttempts", params, &res)
	ctx.SetResultCb(func(in interface{}) (interface{}, error) {
		return formatAttemptList(in.(*types.ReplyAttemptList)), nil
	})
	ctx.Run()
}

type potResult struct {
	PotId         int64  `json:"potId"`
	Creator       string `json:"creator"`
	TotalAmount   string `json:"totalAmount"`
	Fee           string `json:"fee"`
	CreatedAt     string `json:"createdAt"`
	ExpiresAt     string `json:"expiresAt"`
	IsActive      bool   `json:"isActive"`
	AttemptsCount int64  `json:"attemptsCount"`
	AuxRef        string `json:"auxRef,omitempty"`
}

type attemptResult struct {
	AttemptId   int64  `json:"attemptId"`
	PotId       int64  `json:"potId"`
	Hunter      string `json:"hunter"`
	CreatedAt   string `json:"createdAt"`
	ExpiresAt   string `json:"expiresAt"`
	Difficulty  int64  `json:"difficulty"`
	IsCompleted bool   `json:"isCompleted"`
}

func formatPot(p *types.Pot, decimals int32) *potResult {
	if p == nil {
		return nil
	}
	return &potResult{
		PotId:         p.PotId,
		Creator:       p.Creator,
		TotalAmount:   types.FormatAmount(p.TotalAmount, decimals),
		Fee:           types.FormatAmount(p.Fee, decimals),
		CreatedAt:     formatTime(p.CreatedAt),
		ExpiresAt:     formatTime(p.ExpiresAt),
		IsActive:      p.IsActive,
		AttemptsCount: p.AttemptsCount,
		AuxRef:        p.AuxRef,
	}
}

func formatPotList(reply *types.ReplyPotList, decimals int32) []*potResult {
	result := make([]*potResult, 0, len(reply.Pots))
	for _, p := range reply.Pots {
		result = append(result, formatPot(p, decimals))
	}
	return result
}

func formatAttempt(a *types.Attempt) *attemptResult {
	if a == nil {
		return nil
	}
	return &attemptResult{
		AttemptId:   a.AttemptId,
		PotId:       a.PotId,
		Hunter:      a.Hunter,
		CreatedAt:   formatTime(a.CreatedAt),
		ExpiresAt:   formatTime(a.ExpiresAt),
		Difficulty:  a.Difficulty,
		IsCompleted: a.IsCompleted,
	}
}

func formatAttemptList(reply *types.ReplyAttemptList) []*attemptResult {
	result := make([]*attemptResult, 0, len(reply.Attempts))
	for _, a := range reply.Attempts {
		result = append(result, formatAttempt(a))
	}
	return result
}
