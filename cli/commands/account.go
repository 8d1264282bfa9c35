// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"os"

	"github.com/33cn/bountypot/common"
	"github.com/33cn/bountypot/common/address"
	"github.com/33cn/bountypot/common/crypto"
	"github.com/33cn/bountypot/rpc/jsonclient"
	"github.com/33cn/bountypot/types"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/spf13/cobra"
)

// 私钥导出串的版本字节，沿用比特币 WIF 的约定
const privKeyVersion = 0x80

// AccountCmd account and key management command
func AccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "account and key management",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.AddCommand(
		BalanceCmd(),
		GenKeyCmd(),
		AddrCmd(),
		ExportKeyCmd(),
		ImportKeyCmd(),
	)

	return cmd
}

// BalanceCmd query escrow token balance of an address
func BalanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Get escrow token balance of an address",
		Run:   balance,
	}
	cmd.Flags().StringP("addr", "a", "", "account address")
	cmd.MarkFlagRequired("addr")
	return cmd
}

func balance(cmd *cobra.Command, args []string) {
	rpcLaddr, _ := cmd.Flags().GetString("rpc_laddr")
	decimals, _ := cmd.Flags().GetInt32("decimals")
	addr, _ := cmd.Flags().GetString("addr")

	params := &types.ReqAddr{Addr: addr}
	var res types.Account
	ctx := jsonclient.NewRPCCtx(rpcLaddr, "Pot.GetBalance", params, &res)
	ctx.SetResultCb(func(in interface{}) (interface{}, error) {
		acc := in.(*types.Account)
		return &accountResult{
			Addr:    acc.Addr,
			Balance: types.FormatAmount(acc.Balance, decimals),
			Frozen:  types.FormatAmount(acc.Frozen, decimals),
		}, nil
	})
	ctx.Run()
}

// GenKeyCmd generate a new key pair
func GenKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genkey",
		Short: "Generate a new private key and address",
		Run:   genKey,
	}
	cmd.Flags().String("signtype", "secp256k1", "sign type (secp256k1/sm2)")
	return cmd
}

func genKey(cmd *cobra.Command, args []string) {
	signName, _ := cmd.Flags().GetString("signtype")

	c, err := crypto.New(signName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	priv, err := c.GenKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	printResult(keyResultOf(priv))
}

// AddrCmd derive the address of a private key
func AddrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addr",
		Short: "Show pubkey and address of a private key",
		Run:   keyAddr,
	}
	cmd.Flags().StringP("key", "k", "", "private key in hex")
	cmd.MarkFlagRequired("key")
	cmd.Flags().String("signtype", "secp256k1", "sign type (secp256k1/sm2)")
	return cmd
}

func keyAddr(cmd *cobra.Command, args []string) {
	keyHex, _ := cmd.Flags().GetString("key")
	signName, _ := cmd.Flags().GetString("signtype")

	priv, _, err := loadPrivKey(keyHex, signName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	printResult(keyResultOf(priv))
}

// ExportKeyCmd export a private key in base58check form
func ExportKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a private key in base58check form",
		Run:   exportKey,
	}
	cmd.Flags().StringP("key", "k", "", "private key in hex")
	cmd.MarkFlagRequired("key")
	return cmd
}

func exportKey(cmd *cobra.Command, args []string) {
	keyHex, _ := cmd.Flags().GetString("key")

	b, err := common.FromHex(keyHex)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(base58.CheckEncode(b, privKeyVersion))
}

// ImportKeyCmd decode a base58check private key back to hex
func ImportKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Decode a base58check private key back to hex",
		Run:   importKey,
	}
	cmd.Flags().StringP("data", "d", "", "private key in base58check form")
	cmd.MarkFlagRequired("data")
	return cmd
}

func importKey(cmd *cobra.Command, args []string) {
	data, _ := cmd.Flags().GetString("data")

	b, version, err := base58.CheckDecode(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if version != privKeyVersion {
		fmt.Fprintf(os.Stderr, "unknown key version %d\n", version)
		return
	}
	fmt.Println(common.ToHex(b))
}

type accountResult struct {
	Addr    string `json:"addr"`
	Balance string `json:"balance"`
	Frozen  string `json:"frozen"`
}

type keyResult struct {
	Addr    string `json:"addr"`
	PubKey  string `json:"pubkey"`
	PrivKey string `json:"privkey"`
}

func keyResultOf(priv crypto.PrivKey) *keyResult {
	pub := priv.PubKey().Bytes()
	return &keyResult{
		Addr:    address.PubKeyToAddress(pub).String(),
		PubKey:  common.ToHex(pub),
		PrivKey: common.ToHex(priv.Bytes()),
	}
}
