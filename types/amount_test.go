// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("1.5", 8)
	require.NoError(t, err)
	assert.Equal(t, int64(150000000), amount)

	amount, err = ParseAmount("0.00000001", 8)
	require.NoError(t, err)
	assert.Equal(t, int64(1), amount)

	amount, err = ParseAmount("10000", 8)
	require.NoError(t, err)
	assert.Equal(t, int64(1000000000000), amount)

	// 负数解析不报错，资金检查在 CheckAmount
	amount, err = ParseAmount("-1", 8)
	require.NoError(t, err)
	assert.Equal(t, int64(-100000000), amount)
}

func TestParseAmountInvalid(t *testing.T) {
	// 超过精度
	_, err := ParseAmount("0.000000001", 8)
	assert.Equal(t, ErrInvalidParam, err)

	// 不是数字
	_, err = ParseAmount("1.5bty", 8)
	assert.Equal(t, ErrInvalidParam, err)

	_, err = ParseAmount("", 8)
	assert.Equal(t, ErrInvalidParam, err)

	// 越界
	_, err = ParseAmount("100000000000", 8)
	assert.Equal(t, ErrInvalidParam, err)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.5", FormatAmount(150000000, 8))
	assert.Equal(t, "0.00000001", FormatAmount(1, 8))
	assert.Equal(t, "0", FormatAmount(0, 8))
	assert.Equal(t, "10000", FormatAmount(1000000000000, 8))

	// 解析和格式化互逆
	amount, err := ParseAmount(FormatAmount(12345678901, 8), 8)
	require.NoError(t, err)
	assert.Equal(t, int64(12345678901), amount)
}

func TestCheckAmount(t *testing.T) {
	assert.False(t, CheckAmount(0))
	assert.False(t, CheckAmount(-1))
	assert.True(t, CheckAmount(1))
	assert.True(t, CheckAmount(math.MaxInt64-1))
	assert.False(t, CheckAmount(math.MaxInt64))
}
