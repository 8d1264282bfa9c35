// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/33cn/bountypot/cli/commands"
	"github.com/33cn/bountypot/common/log"
	"github.com/spf13/cobra"

	// 注册签名驱动
	_ "github.com/33cn/bountypot/common/crypto/secp256k1"
	_ "github.com/33cn/bountypot/common/crypto/sm2"
)

var rootCmd = &cobra.Command{
	Use:   "bountypot-cli",
	Short: "bountypot client tools",
}

func init() {
	rootCmd.PersistentFlags().String("rpc_laddr", "http://localhost:8801", "http url")
	rootCmd.PersistentFlags().Int32("decimals", 8, "display decimals of the escrow token")

	rootCmd.AddCommand(
		commands.PotCmd(),
		commands.AccountCmd(),
		commands.AdminCmd(),
		commands.EventCmd(),
		commands.StatusCmd(),
	)
}

func main() {
	log.SetLogLevel("error")
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
