// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package commands bountypot-cli 的子命令实现。
// 交易类命令在本地用私钥签名信封，再经 JSON-RPC 提交
package commands

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/33cn/bountypot/common"
	"github.com/33cn/bountypot/common/crypto"
	"github.com/33cn/bountypot/rpc/jsonclient"
	"github.com/33cn/bountypot/types"
	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var txRand = rand.New(rand.NewSource(time.Now().UnixNano()))

// 交易类命令共用的签名参数
func addTxFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("key", "k", "", "private key of the signer in hex")
	cmd.MarkFlagRequired("key")
	cmd.Flags().String("signtype", "secp256k1", "sign type (secp256k1/sm2)")
}

func loadPrivKey(keyHex, signName string) (crypto.PrivKey, int32, error) {
	signTy := types.GetSignType(signName)
	if signTy == 0 {
		return nil, 0, errors.Errorf("unknown sign type %q", signName)
	}
	c, err := crypto.New(signName)
	if err != nil {
		return nil, 0, err
	}
	b, err := common.FromHex(keyHex)
	if err != nil {
		return nil, 0, errors.Wrap(err, "parse private key")
	}
	priv, err := c.PrivKeyFromBytes(b)
	if err != nil {
		return nil, 0, errors.Wrap(err, "load private key")
	}
	return priv, signTy, nil
}

func signAction(keyHex, signName string, action *types.PotAction) (*types.Transaction, error) {
	priv, signTy, err := loadPrivKey(keyHex, signName)
	if err != nil {
		return nil, err
	}
	tx := &types.Transaction{Payload: action, Nonce: txRand.Int63()}
	tx.Sign(signTy, priv)
	return tx, nil
}

// 签名信封并提交到指定 RPC 方法，打印执行回执
func sendAction(cmd *cobra.Command, method string, action *types.PotAction) {
	rpcLaddr, _ := cmd.Flags().GetString("rpc_laddr")
	keyHex, _ := cmd.Flags().GetString("key")
	signName, _ := cmd.Flags().GetString("signtype")
	tx, err := signAction(keyHex, signName, action)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	var res interface{}
	ctx := jsonclient.NewRPCCtx(rpcLaddr, method, tx, &res)
	ctx.Run()
}

func parseAmount(cmd *cobra.Command, s string) (int64, error) {
	decimals, _ := cmd.Flags().GetInt32("decimals")
	return types.ParseAmount(s, decimals)
}

// 校验 0x 关联引用并统一成 EIP-55 混合大小写
func normalizeAuxRef(ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	if !ecommon.IsHexAddress(ref) {
		return "", errors.Errorf("invalid aux reference %q", ref)
	}
	return ecommon.HexToAddress(ref).Hex(), nil
}

func formatTime(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
}

// 本地生成的结果不走 RPC，打印格式与 RPCCtx.Run 保持一致
func printResult(v interface{}) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(data))
}
