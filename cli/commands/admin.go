// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"github.com/33cn/bountypot/types"
	"github.com/spf13/cobra"
)

// AdminCmd owner-gated ledger administration command
func AdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "ledger administration (owner only)",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.AddCommand(
		AdminInitCmd(),
		AdminOracleCmd(),
	)

	return cmd
}

// AdminInitCmd initialize the ledger
func AdminInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the ledger with token symbol and oracle",
		Run:   adminInit,
	}
	addAdminInitFlags(cmd)
	return cmd
}

func addAdminInitFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("symbol", "s", "", "escrow token symbol, empty for the server default")

	cmd.Flags().StringP("oracle", "o", "", "trusted oracle address")
	cmd.MarkFlagRequired("oracle")

	addTxFlags(cmd)
}

func adminInit(cmd *cobra.Command, args []string) {
	symbol, _ := cmd.Flags().GetString("symbol")
	oracle, _ := cmd.Flags().GetString("oracle")

	action := &types.PotAction{
		Ty:   types.PotActionInit,
		Init: &types.PotInit{Symbol: symbol, Oracle: oracle},
	}
	sendAction(cmd, "Pot.Initialize", action)
}

// AdminOracleCmd rotate the trusted oracle
func AdminOracleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oracle",
		Short: "Rotate the trusted oracle address",
		Run:   adminOracle,
	}
	addAdminOracleFlags(cmd)
	return cmd
}

func addAdminOracleFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("oracle", "o", "", "new oracle address")
	cmd.MarkFlagRequired("oracle")

	addTxFlags(cmd)
}

func adminOracle(cmd *cobra.Command, args []string) {
	oracle, _ := cmd.Flags().GetString("oracle")

	action := &types.PotAction{
		Ty:           types.PotActionUpdateOracle,
		UpdateOracle: &types.PotUpdateOracle{Oracle: oracle},
	}
	sendAction(cmd, "Pot.UpdateOracle", action)
}
