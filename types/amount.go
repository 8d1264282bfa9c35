// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"math"

	"github.com/shopspring/decimal"
)

// FormatAmount 最小计价单位转显示单位字符串
func FormatAmount(amount int64, decimals int32) string {
	return decimal.New(amount, -decimals).String()
}

// ParseAmount 显示单位字符串转最小计价单位，拒绝超精度与越界
func ParseAmount(s string, decimals int32) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidParam
	}
	d = d.Shift(decimals)
	if !d.Equal(d.Truncate(0)) {
		return 0, ErrInvalidParam
	}
	if d.Cmp(decimal.NewFromInt(math.MaxInt64)) > 0 || d.Cmp(decimal.NewFromInt(math.MinInt64)) < 0 {
		return 0, ErrInvalidParam
	}
	return d.IntPart(), nil
}

// CheckAmount 资金数额合法性：正数且不越界
func CheckAmount(amount int64) bool {
	return amount > 0 && amount < math.MaxInt64
}
