// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecAddress(t *testing.T) {
	addr := ExecAddress("bountypot")
	assert.NotEmpty(t, addr)
	// 确定性推导，多次调用结果一致（含缓存命中路径）
	assert.Equal(t, addr, ExecAddress("bountypot"))
	assert.NotEqual(t, addr, ExecAddress("ticket"))

	require.NoError(t, CheckAddress(addr))
}

func TestPubKeyToAddress(t *testing.T) {
	pub := ExecPubkey("bountypot")
	addr := PubKeyToAddress(pub)
	assert.Equal(t, ExecAddress("bountypot"), addr.String())

	parsed, err := NewAddrFromString(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr.Hash160, parsed.Hash160)
	assert.Equal(t, addr.String(), parsed.Enc58str)
}

func TestCheckAddress(t *testing.T) {
	assert.Error(t, CheckAddress("not-an-address"))
	assert.Error(t, CheckAddress(""))

	// 动一个字符校验和立刻失效
	addr := ExecAddress("bountypot")
	mid := len(addr) / 2
	c := byte('2')
	if addr[mid] == c {
		c = '3'
	}
	bad := addr[:mid] + string(c) + addr[mid+1:]
	assert.Error(t, CheckAddress(bad))
}

func TestExecPubkeyTooLong(t *testing.T) {
	defer func() {
		assert.NotNil(t, recover())
	}()
	long := make([]byte, MaxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	ExecPubkey(string(long))
}
