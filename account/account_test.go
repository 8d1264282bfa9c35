// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package account

import (
	"testing"

	"github.com/33cn/bountypot/common/db"
	"github.com/33cn/bountypot/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addr1 = "14ZTV2wHG3uPHnA5cBJmNxAxxvbzS7Z5mE"
	addr2 = "24ZTV2wHG3uPHnA5cBJmNxAxxvbzS7Z5mE"
	addr3 = "34ZTV2wHG3uPHnA5cBJmNxAxxvbzS7Z5mE"
	addr4 = "44ZTV2wHG3uPHnA5cBJmNxAxxvbzS7Z5mE"
)

func GenerAccDb() *DB {
	//构造账户数据库
	stroedb, _ := db.NewGoMemDB("gomemdb", "test", 128)
	accCoin, _ := NewAccountDB("bountypot", "bty", 8, stroedb)
	return accCoin
}

func (acc *DB) GenerAccData() {
	// 加入账户
	account := &types.Account{
		Balance: 1000 * 1e8,
		Addr:    addr1,
	}
	acc.SaveAccount(account)

	account.Balance = 900 * 1e8
	account.Addr = addr2
	acc.SaveAccount(account)

	account.Balance = 800 * 1e8
	account.Addr = addr3
	acc.SaveAccount(account)

	account.Balance = 700 * 1e8
	account.Addr = addr4
	acc.SaveAccount(account)
}

func TestNewAccountDB(t *testing.T) {
	stroedb, _ := db.NewGoMemDB("gomemdb", "test", 128)
	_, err := NewAccountDB("bounty-pot", "bty", 8, stroedb)
	require.Equal(t, types.ErrAccountNameNotAllow, err)

	_, err = NewAccountDB("bountypot", "b-ty", 8, stroedb)
	require.Equal(t, types.ErrAccountNameNotAllow, err)

	acc, err := NewAccountDB("bountypot", "bty", 8, stroedb)
	require.NoError(t, err)
	assert.Equal(t, "bty", acc.Symbol())
	assert.Equal(t, int32(8), acc.Decimals())
	assert.Equal(t, "mavl-bountypot-bty-"+addr1, string(acc.AccountKey(addr1)))
}

func TestLoadAccount(t *testing.T) {
	accCoin := GenerAccDb()
	// 不存在的账户返回零余额
	acc := accCoin.LoadAccount(addr1)
	assert.Equal(t, addr1, acc.Addr)
	assert.Equal(t, int64(0), acc.Balance)

	accCoin.GenerAccData()
	acc = accCoin.LoadAccount(addr1)
	assert.Equal(t, int64(1000*1e8), acc.Balance)
	assert.Equal(t, int64(1000*1e8), accCoin.Balance(addr1))
}

func TestCheckTransfer(t *testing.T) {
	accCoin := GenerAccDb()
	accCoin.GenerAccData()

	err := accCoin.CheckTransfer(addr1, addr2, 10*1e8)
	require.NoError(t, err)

	err = accCoin.CheckTransfer(addr1, addr2, 2000*1e8)
	require.Equal(t, types.ErrNoBalance, err)

	err = accCoin.CheckTransfer(addr1, addr2, 0)
	require.Equal(t, types.ErrAmount, err)

	err = accCoin.CheckTransfer(addr1, addr2, -1)
	require.Equal(t, types.ErrAmount, err)
}

func TestTransfer(t *testing.T) {
	accCoin := GenerAccDb()
	accCoin.GenerAccData()

	receipt, err := accCoin.Transfer(addr1, addr2, 10*1e8)
	require.NoError(t, err)
	assert.Equal(t, int32(types.ExecOk), receipt.Ty)
	assert.Len(t, receipt.Logs, 2)
	assert.Len(t, receipt.KV, 2)

	assert.Equal(t, int64(990*1e8), accCoin.LoadAccount(addr1).Balance)
	assert.Equal(t, int64(910*1e8), accCoin.LoadAccount(addr2).Balance)

	// 回执日志带前后余额
	var transfer types.ReceiptAccountTransfer
	err = types.Decode(receipt.Logs[0].Log, &transfer)
	require.NoError(t, err)
	assert.Equal(t, int64(1000*1e8), transfer.Prev.Balance)
	assert.Equal(t, int64(990*1e8), transfer.Current.Balance)

	_, err = accCoin.Transfer(addr1, addr1, 10*1e8)
	require.Equal(t, types.ErrSendSameToRecv, err)

	_, err = accCoin.Transfer(addr1, addr2, 10000*1e8)
	require.Equal(t, types.ErrNoBalance, err)

	_, err = accCoin.Transfer(addr1, addr2, -1)
	require.Equal(t, types.ErrAmount, err)
}

func TestTransferToNewAccount(t *testing.T) {
	accCoin := GenerAccDb()
	accCoin.GenerAccData()

	newAddr := "1Am9UTGfdnxabvcywYG2hvzr6qK8T3y514"
	receipt, err := accCoin.Transfer(addr1, newAddr, 5*1e8)
	require.NoError(t, err)
	assert.Len(t, receipt.Logs, 2)
	assert.Equal(t, int64(5*1e8), accCoin.Balance(newAddr))
}

func TestGenesisInit(t *testing.T) {
	accCoin := GenerAccDb()

	receipt, err := accCoin.GenesisInit(addr1, 10000*1e8)
	require.NoError(t, err)
	assert.Equal(t, int32(types.ExecOk), receipt.Ty)
	assert.Len(t, receipt.Logs, 1)
	assert.Equal(t, int32(types.TyLogDeposit), receipt.Logs[0].Ty)
	assert.Equal(t, int64(10000*1e8), accCoin.Balance(addr1))

	//重复充值累加
	_, err = accCoin.GenesisInit(addr1, 1*1e8)
	require.NoError(t, err)
	assert.Equal(t, int64(10001*1e8), accCoin.Balance(addr1))

	_, err = accCoin.GenesisInit(addr1, 0)
	require.Equal(t, types.ErrAmount, err)
}

func TestGetKVSet(t *testing.T) {
	accCoin := GenerAccDb()
	account := &types.Account{
		Balance: 1000 * 1e8,
		Addr:    addr1,
	}
	kvset := accCoin.GetKVSet(account)
	require.Len(t, kvset, 1)
	assert.Equal(t, string(accCoin.AccountKey(addr1)), string(kvset[0].Key))

	var acc types.Account
	require.NoError(t, types.Decode(kvset[0].Value, &acc))
	assert.Equal(t, account.Balance, acc.Balance)
	assert.Equal(t, account.Addr, acc.Addr)
}

func TestLoadAccountsDB(t *testing.T) {
	accCoin := GenerAccDb()
	accCoin.GenerAccData()

	accs, err := accCoin.LoadAccountsDB([]string{addr1, addr2, addr3, addr4})
	require.NoError(t, err)
	require.Len(t, accs, 4)
	assert.Equal(t, int64(1000*1e8), accs[0].Balance)
	assert.Equal(t, int64(700*1e8), accs[3].Balance)
}
