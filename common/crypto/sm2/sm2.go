// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sm2 国密签名驱动
package sm2

import (
	"bytes"
	"encoding/asn1"
	"errors"
	"fmt"

	"github.com/33cn/bountypot/common/crypto"
	"github.com/tjfoc/gmsm/sm2"
)

// const
const (
	ID   = 2
	Name = "sm2"

	SM2PrivateKeyLength = 32
	SM2PublicKeyLength  = 65
)

func init() {
	crypto.Register(Name, &Driver{})
	crypto.RegisterType(Name, ID)
}

// Driver 驱动
type Driver struct{}

// GenKey 生成私钥
func (d Driver) GenKey() (crypto.PrivKey, error) {
	privKeyBytes := [SM2PrivateKeyLength]byte{}
	copy(privKeyBytes[:], crypto.CRandBytes(SM2PrivateKeyLength))
	priv, _ := privKeyFromBytes(privKeyBytes[:])
	copy(privKeyBytes[:], SerializePrivateKey(priv))
	return PrivKeySM2(privKeyBytes), nil
}

// PrivKeyFromBytes 字节转为私钥
func (d Driver) PrivKeyFromBytes(b []byte) (privKey crypto.PrivKey, err error) {
	if len(b) != SM2PrivateKeyLength {
		return nil, errors.New("invalid priv key byte")
	}
	privKeyBytes := new([SM2PrivateKeyLength]byte)
	copy(privKeyBytes[:], b[:SM2PrivateKeyLength])
	priv, _ := privKeyFromBytes(privKeyBytes[:])
	copy(privKeyBytes[:], SerializePrivateKey(priv))
	return PrivKeySM2(*privKeyBytes), nil
}

// PubKeyFromBytes 字节转为公钥
func (d Driver) PubKeyFromBytes(b []byte) (pubKey crypto.PubKey, err error) {
	if len(b) != SM2PublicKeyLength {
		return nil, errors.New("invalid pub key byte")
	}
	pubKeyBytes := new([SM2PublicKeyLength]byte)
	copy(pubKeyBytes[:], b[:])
	return PubKeySM2(*pubKeyBytes), nil
}

// SignatureFromBytes 字节转为签名，兼容带证书的封装
func (d Driver) SignatureFromBytes(b []byte) (sig crypto.Signature, err error) {
	var certSignature crypto.CertSignature
	_, err = asn1.Unmarshal(b, &certSignature)
	if err != nil || len(certSignature.Cert) == 0 {
		return SignatureSM2(b), nil
	}
	return SignatureSM2(certSignature.Signature), nil
}

// PrivKeySM2 私钥
type PrivKeySM2 [SM2PrivateKeyLength]byte

// Bytes 字节格式
func (privKey PrivKeySM2) Bytes() []byte {
	s := make([]byte, SM2PrivateKeyLength)
	copy(s, privKey[:])
	return s
}

// Sign 对消息的 sm3 摘要签名
func (privKey PrivKeySM2) Sign(msg []byte) crypto.Signature {
	priv, _ := privKeyFromBytes(privKey[:])
	r, s, err := sm2.Sign(priv, crypto.Sm3Hash(msg))
	if err != nil {
		return nil
	}
	return SignatureSM2(Serialize(r, s))
}

// PubKey 私钥生成公钥，非压缩格式
func (privKey PrivKeySM2) PubKey() crypto.PubKey {
	_, pub := privKeyFromBytes(privKey[:])
	var pubSM2 PubKeySM2
	copy(pubSM2[:], SerializePublicKey(pub))
	return pubSM2
}

// Equals 私钥比较
func (privKey PrivKeySM2) Equals(other crypto.PrivKey) bool {
	if otherSM2, ok := other.(PrivKeySM2); ok {
		return bytes.Equal(privKey[:], otherSM2[:])
	}
	return false
}

func (privKey PrivKeySM2) String() string {
	return fmt.Sprintf("PrivKeySM2{*****}")
}

// PubKeySM2 公钥
type PubKeySM2 [SM2PublicKeyLength]byte

// Bytes 字节格式
func (pubKey PubKeySM2) Bytes() []byte {
	s := make([]byte, SM2PublicKeyLength)
	copy(s, pubKey[:])
	return s
}

// VerifyBytes 验证签名
func (pubKey PubKeySM2) VerifyBytes(msg []byte, sig crypto.Signature) bool {
	sigSM2, ok := sig.(SignatureSM2)
	if !ok {
		return false
	}
	pub, err := parsePubKey(pubKey[:])
	if err != nil {
		return false
	}
	r, s, err := Deserialize(sigSM2)
	if err != nil {
		return false
	}
	return sm2.Verify(pub, crypto.Sm3Hash(msg), r, s)
}

func (pubKey PubKeySM2) String() string {
	return fmt.Sprintf("PubKeySM2{%X}", pubKey[:])
}

// KeyString Must return the full bytes in hex.
// Used for map keying, etc.
func (pubKey PubKeySM2) KeyString() string {
	return fmt.Sprintf("%X", pubKey[:])
}

// Equals 公钥比较
func (pubKey PubKeySM2) Equals(other crypto.PubKey) bool {
	if otherSM2, ok := other.(PubKeySM2); ok {
		return bytes.Equal(pubKey[:], otherSM2[:])
	}
	return false
}

// SignatureSM2 签名
type SignatureSM2 []byte

// Bytes 字节格式
func (sig SignatureSM2) Bytes() []byte {
	s := make([]byte, len(sig))
	copy(s, sig[:])
	return s
}

// IsZero 是否为空
func (sig SignatureSM2) IsZero() bool { return len(sig) == 0 }

func (sig SignatureSM2) String() string {
	fingerprint := make([]byte, len(sig[:]))
	copy(fingerprint, sig[:])
	return fmt.Sprintf("/%X.../", fingerprint)
}

// Equals 签名比较
func (sig SignatureSM2) Equals(other crypto.Signature) bool {
	if otherSM2, ok := other.(SignatureSM2); ok {
		return bytes.Equal(sig[:], otherSM2[:])
	}
	return false
}
