// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"testing"

	"github.com/33cn/bountypot/common/address"
	"github.com/33cn/bountypot/common/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/33cn/bountypot/common/crypto/secp256k1"
)

func newTestTx(t *testing.T) (*Transaction, crypto.PrivKey) {
	c, err := crypto.New("secp256k1")
	require.NoError(t, err)
	priv, err := c.GenKey()
	require.NoError(t, err)

	action := &PotAction{
		Ty:     PotActionCreate,
		Create: &PotCreate{TotalAmount: 100, Duration: 3600, Fee: 1},
	}
	return &Transaction{Payload: action, Nonce: 7}, priv
}

func TestTransactionSign(t *testing.T) {
	tx, priv := newTestTx(t)
	assert.False(t, tx.CheckSign())
	assert.Equal(t, "", tx.From())

	tx.Sign(SECP256K1, priv)
	assert.True(t, tx.CheckSign())
	assert.Equal(t, address.PubKeyToAddress(priv.PubKey().Bytes()).String(), tx.From())
}

func TestTransactionSignTamper(t *testing.T) {
	tx, priv := newTestTx(t)
	tx.Sign(SECP256K1, priv)
	require.True(t, tx.CheckSign())

	// 改动已签名的内容后校验必须失败
	tx.Nonce++
	assert.False(t, tx.CheckSign())

	tx.Nonce--
	require.True(t, tx.CheckSign())
	tx.Payload.Create.TotalAmount++
	assert.False(t, tx.CheckSign())
}

func TestTransactionHash(t *testing.T) {
	tx, priv := newTestTx(t)
	before := tx.Hash()

	// 哈希只覆盖载荷和 nonce，跟签名无关
	tx.Sign(SECP256K1, priv)
	assert.Equal(t, before, tx.Hash())

	tx.Nonce++
	assert.NotEqual(t, before, tx.Hash())
}

func TestGetSignName(t *testing.T) {
	assert.Equal(t, "secp256k1", GetSignName(SECP256K1))
	assert.Equal(t, "sm2", GetSignName(SM2))
	assert.Equal(t, "unknown", GetSignName(99))

	assert.Equal(t, int32(SECP256K1), GetSignType("secp256k1"))
	assert.Equal(t, int32(SM2), GetSignType("sm2"))
	assert.Equal(t, int32(0), GetSignType("ed25519"))
}
