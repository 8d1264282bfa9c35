// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sm2

import (
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"

	"github.com/tjfoc/gmsm/sm2"
)

// Signature DER 编码载荷
type Signature struct {
	R, S *big.Int
}

func privKeyFromBytes(pk []byte) (*sm2.PrivateKey, *sm2.PublicKey) {
	curve := sm2.P256Sm2()
	x, y := curve.ScalarBaseMult(pk)
	priv := &sm2.PrivateKey{
		PublicKey: sm2.PublicKey{
			Curve: curve,
			X:     x,
			Y:     y,
		},
		D: new(big.Int).SetBytes(pk),
	}
	return priv, &priv.PublicKey
}

func canonicalizeInt(val *big.Int) []byte {
	b := val.Bytes()
	if len(b) == 0 {
		b = []byte{0x00}
	}
	if b[0]&0x80 != 0 {
		paddedBytes := make([]byte, len(b)+1)
		copy(paddedBytes[1:], b)
		b = paddedBytes
	}
	return b
}

// Serialize 签名序列化为 DER
func Serialize(r, s *big.Int) []byte {
	rb := canonicalizeInt(r)
	sb := canonicalizeInt(s)

	length := 6 + len(rb) + len(sb)
	b := make([]byte, length)

	b[0] = 0x30
	b[1] = byte(length - 2)
	b[2] = 0x02
	b[3] = byte(len(rb))
	offset := copy(b[4:], rb) + 4
	b[offset] = 0x02
	b[offset+1] = byte(len(sb))
	copy(b[offset+2:], sb)

	return b
}

// Deserialize 从 DER 解出 r、s
func Deserialize(sigStr []byte) (*big.Int, *big.Int, error) {
	var sig Signature
	if _, err := asn1.Unmarshal(sigStr, &sig); err != nil {
		return nil, nil, err
	}
	if sig.R == nil || sig.S == nil {
		return nil, nil, errors.New("invalid signature encoding")
	}
	return sig.R, sig.S, nil
}

func parsePubKey(pubKeyStr []byte) (key *sm2.PublicKey, err error) {
	if len(pubKeyStr) == 0 {
		return nil, errors.New("pubkey string is empty")
	}
	pubkey := sm2.PublicKey{}
	pubkey.Curve = sm2.P256Sm2()
	pubkey.X = new(big.Int).SetBytes(pubKeyStr[1:33])
	pubkey.Y = new(big.Int).SetBytes(pubKeyStr[33:])
	if pubkey.X.Cmp(pubkey.Curve.Params().P) >= 0 {
		return nil, fmt.Errorf("pubkey X parameter is >= to P")
	}
	if pubkey.Y.Cmp(pubkey.Curve.Params().P) >= 0 {
		return nil, fmt.Errorf("pubkey Y parameter is >= to P")
	}
	if !pubkey.Curve.IsOnCurve(pubkey.X, pubkey.Y) {
		return nil, fmt.Errorf("pubkey isn't on sm2p256 curve")
	}
	return &pubkey, nil
}

// SerializePublicKey 公钥序列化，非压缩格式
func SerializePublicKey(p *sm2.PublicKey) []byte {
	b := make([]byte, 0, SM2PublicKeyLength)
	b = append(b, 0x4)
	b = paddedAppend(32, b, p.X.Bytes())
	return paddedAppend(32, b, p.Y.Bytes())
}

// SerializePrivateKey 私钥序列化
func SerializePrivateKey(p *sm2.PrivateKey) []byte {
	b := make([]byte, 0, SM2PrivateKeyLength)
	return paddedAppend(SM2PrivateKeyLength, b, p.D.Bytes())
}

func paddedAppend(size uint, dst, src []byte) []byte {
	for i := 0; i < int(size)-len(src); i++ {
		dst = append(dst, 0)
	}
	return append(dst, src...)
}
