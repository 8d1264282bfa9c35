// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crypto 签名驱动注册与统一接口
package crypto

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// PrivKey 私钥
type PrivKey interface {
	Bytes() []byte
	Sign(msg []byte) Signature
	PubKey() PubKey
	Equals(PrivKey) bool
}

// Signature 签名
type Signature interface {
	Bytes() []byte
	IsZero() bool
	String() string
	Equals(Signature) bool
}

// PubKey 公钥
type PubKey interface {
	Bytes() []byte
	KeyString() string
	VerifyBytes(msg []byte, sig Signature) bool
	Equals(PubKey) bool
}

// Crypto 签名驱动
type Crypto interface {
	GenKey() (PrivKey, error)
	PrivKeyFromBytes(b []byte) (PrivKey, error)
	PubKeyFromBytes(b []byte) (PubKey, error)
	SignatureFromBytes(b []byte) (Signature, error)
}

// CertSignature 带证书的签名封装
type CertSignature struct {
	Signature []byte
	Cert      []byte
}

var (
	driverMutex sync.Mutex
	drivers     = make(map[string]Crypto)
	driversType = make(map[string]int32)
)

// Register 注册签名驱动，重名视为编程错误
func Register(name string, driver Crypto) {
	driverMutex.Lock()
	defer driverMutex.Unlock()
	if driver == nil {
		panic("crypto: Register driver is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("crypto: Register called twice for driver " + name)
	}
	drivers[name] = driver
}

// RegisterType 注册签名类型编号
func RegisterType(name string, ty int32) {
	driverMutex.Lock()
	defer driverMutex.Unlock()
	for n, t := range driversType {
		if n != name && t == ty {
			panic(fmt.Sprintf("crypto: RegisterType type existed. name: %s, type: %d", name, ty))
		}
	}
	driversType[name] = ty
}

// GetName 类型编号转驱动名
func GetName(ty int32) string {
	driverMutex.Lock()
	defer driverMutex.Unlock()
	for name, t := range driversType {
		if t == ty {
			return name
		}
	}
	return "unknown"
}

// GetType 驱动名转类型编号
func GetType(name string) int32 {
	driverMutex.Lock()
	defer driverMutex.Unlock()
	if ty, ok := driversType[name]; ok {
		return ty
	}
	return 0
}

// New 按名称取驱动实例
func New(name string) (Crypto, error) {
	driverMutex.Lock()
	defer driverMutex.Unlock()
	c, ok := drivers[name]
	if !ok {
		return nil, errors.Errorf("unknown crypto driver %q", name)
	}
	return c, nil
}
