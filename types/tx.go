// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"encoding/json"

	"github.com/33cn/bountypot/common"
	"github.com/33cn/bountypot/common/address"
	"github.com/33cn/bountypot/common/crypto"
)

// Signature 信封签名，Ty 对应签名驱动类型
type Signature struct {
	Ty        int32  `json:"ty"`
	Pubkey    []byte `json:"pubkey"`
	Signature []byte `json:"signature"`
}

// Transaction 签名操作信封。Hash 覆盖载荷与 nonce，不含签名本身
type Transaction struct {
	Payload   *PotAction `json:"payload"`
	Nonce     int64      `json:"nonce"`
	Signature *Signature `json:"signature,omitempty"`
}

// GetSignature nil 安全取签名
func (tx *Transaction) GetSignature() *Signature {
	if tx == nil {
		return nil
	}
	return tx.Signature
}

type txSignPart struct {
	Payload *PotAction `json:"payload"`
	Nonce   int64      `json:"nonce"`
}

func (tx *Transaction) signBytes() []byte {
	b, err := json.Marshal(&txSignPart{Payload: tx.Payload, Nonce: tx.Nonce})
	if err != nil {
		panic(err)
	}
	return b
}

// Hash 信封哈希，去重与签名都以它为准
func (tx *Transaction) Hash() []byte {
	return common.Sha256(tx.signBytes())
}

// Sign 用给定驱动签名，覆盖旧签名
func (tx *Transaction) Sign(ty int32, priv crypto.PrivKey) {
	data := tx.signBytes()
	pub := priv.PubKey()
	sign := priv.Sign(data)
	tx.Signature = &Signature{
		Ty:        ty,
		Pubkey:    pub.Bytes(),
		Signature: sign.Bytes(),
	}
}

// CheckSign 验证信封签名
func (tx *Transaction) CheckSign() bool {
	if tx.Signature == nil {
		return false
	}
	c, err := crypto.New(GetSignName(tx.Signature.Ty))
	if err != nil {
		return false
	}
	pub, err := c.PubKeyFromBytes(tx.Signature.Pubkey)
	if err != nil {
		return false
	}
	sign, err := c.SignatureFromBytes(tx.Signature.Signature)
	if err != nil {
		return false
	}
	return pub.VerifyBytes(tx.signBytes(), sign)
}

// From 由签名公钥推出调用方地址，未签名返回空串
func (tx *Transaction) From() string {
	if tx.GetSignature() == nil {
		return ""
	}
	return address.PubKeyToAddress(tx.Signature.Pubkey).String()
}
