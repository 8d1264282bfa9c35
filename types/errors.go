// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"errors"
	"fmt"
)

// 账户与信封层错误
var (
	ErrNotFound            = errors.New("ErrNotFound")
	ErrAmount              = errors.New("ErrAmount")
	ErrNoBalance           = errors.New("ErrNoBalance")
	ErrSendSameToRecv      = errors.New("ErrSendSameToRecv")
	ErrInvalidParam        = errors.New("ErrInvalidParam")
	ErrActionNotSupport    = errors.New("ErrActionNotSupport")
	ErrSign                = errors.New("ErrSign")
	ErrTxDup               = errors.New("ErrTxDup")
	ErrAccountNameNotAllow = errors.New("ErrAccountNameNotAllow")
	ErrTimeout             = errors.New("ErrTimeout")
	ErrIsQueueClosed       = errors.New("ErrIsQueueClosed")
	ErrChannelFull         = errors.New("ErrChannelFull")
	ErrTypeAsset           = errors.New("ErrTypeAsset")
)

// pot 生命周期错误
var (
	ErrPotNotFound        = errors.New("pot not exist")
	ErrAttemptNotFound    = errors.New("attempt not exist")
	ErrPotNotActive       = errors.New("the pot is not active, already solved or expired")
	ErrPotExpired         = errors.New("the pot has passed its expiry time")
	ErrNotExpired         = errors.New("the pot has not reached its expiry time yet")
	ErrAttemptExpired     = errors.New("the attempt window has closed")
	ErrAttemptCompleted   = errors.New("the attempt has already been completed")
	ErrUnauthorized       = errors.New("the caller is not authorized for this operation")
	ErrAlreadyInitialized = errors.New("the ledger has already been initialized")
	ErrNotInitialized     = errors.New("the ledger has not been initialized yet")
	ErrLedgerReentry      = errors.New("another ledger operation is in flight, reentry rejected")
	ErrInvalidFee         = errors.New("fee out of bounds")
)

// InvalidFeeError 带参数的费用越界错误，Unwrap 到 ErrInvalidFee
type InvalidFeeError struct {
	Min int64
	Fee int64
}

func (e *InvalidFeeError) Error() string {
	return fmt.Sprintf("invalid fee %d: require %d <= fee <= totalAmount", e.Fee, e.Min)
}

// Unwrap 支持 errors.Is(err, ErrInvalidFee)
func (e *InvalidFeeError) Unwrap() error { return ErrInvalidFee }
