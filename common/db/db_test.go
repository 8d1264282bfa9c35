// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"testing"

	"github.com/XiaoMi/pegasus-go-client/pegasus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// 迭代测试
func testDBIterator(t *testing.T, db DB) {
	t.Log("test Set")
	require.NoError(t, db.Set([]byte("aaaaaa/1"), []byte("aaaaaa/1")))
	require.NoError(t, db.Set([]byte("my_key/1"), []byte("my_key/1")))
	require.NoError(t, db.Set([]byte("my_key/2"), []byte("my_key/2")))
	require.NoError(t, db.Set([]byte("my_key/3"), []byte("my_key/3")))
	require.NoError(t, db.Set([]byte("my_key/4"), []byte("my_key/4")))
	require.NoError(t, db.Set([]byte("my"), []byte("my")))
	require.NoError(t, db.Set([]byte("my_"), []byte("my_")))
	require.NoError(t, db.Set([]byte("zzzzzz/1"), []byte("zzzzzz/1")))

	t.Log("test Get")
	v, err := db.Get([]byte("aaaaaa/1"))
	require.NoError(t, err)
	require.Equal(t, "aaaaaa/1", string(v))

	_, err = db.Get([]byte("no_such_key"))
	require.Equal(t, ErrNotFoundInDb, err)

	t.Log("test IteratorScanFromFirst")
	it := NewListHelper(db)
	list := it.IteratorScanFromFirst([]byte("my"), 2)
	require.Equal(t, [][]byte{[]byte("my"), []byte("my_")}, list)

	t.Log("test IteratorScanFromLast")
	list = it.IteratorScanFromLast([]byte("my"), 100)
	require.Equal(t, [][]byte{[]byte("my_key/4"), []byte("my_key/3"), []byte("my_key/2"), []byte("my_key/1"), []byte("my_"), []byte("my")}, list)

	t.Log("test IteratorScan ASC")
	list = it.IteratorScan([]byte("my"), []byte("my_key/3"), 100, ListASC)
	require.Equal(t, [][]byte{[]byte("my_key/4")}, list)

	t.Log("test IteratorScan DESC")
	list = it.IteratorScan([]byte("my"), []byte("my_key/3"), 100, ListDESC)
	require.Equal(t, [][]byte{[]byte("my_key/2"), []byte("my_key/1"), []byte("my_"), []byte("my")}, list)

	t.Log("test PrefixScan")
	list = it.PrefixScan([]byte("my_key/"))
	require.Equal(t, [][]byte{[]byte("my_key/1"), []byte("my_key/2"), []byte("my_key/3"), []byte("my_key/4")}, list)

	t.Log("test PrefixCount")
	require.Equal(t, int64(4), it.PrefixCount([]byte("my_key/")))

	t.Log("test List seek")
	list = it.List([]byte("my_key/"), []byte("my_key/2"), 1, ListSeek)
	require.Equal(t, [][]byte{[]byte("my_key/2"), []byte("my_key/2")}, list)
}

// 删除与覆盖
func testDBDelete(t *testing.T, db DB) {
	require.NoError(t, db.Set([]byte("del_key"), []byte("v1")))
	require.NoError(t, db.Set([]byte("del_key"), []byte("v2")))
	v, err := db.Get([]byte("del_key"))
	require.NoError(t, err)
	require.Equal(t, "v2", string(v))

	require.NoError(t, db.Delete([]byte("del_key")))
	_, err = db.Get([]byte("del_key"))
	require.Equal(t, ErrNotFoundInDb, err)

	// 删除不存在的 key 不报错
	require.NoError(t, db.Delete([]byte("del_key")))
}

// 批量写
func testDBBatch(t *testing.T, db DB) {
	batch := db.NewBatch(true)
	for i := 0; i < 10; i++ {
		key := []byte(fmt.Sprintf("batch_key-%03d", i))
		batch.Set(key, key)
	}
	require.NotZero(t, batch.ValueLen())
	require.NoError(t, batch.Write())

	v, err := db.Get([]byte("batch_key-005"))
	require.NoError(t, err)
	require.Equal(t, "batch_key-005", string(v))

	batch.Reset()
	require.Zero(t, batch.ValueLen())
	batch.Delete([]byte("batch_key-005"))
	batch.Set([]byte("batch_key-100"), []byte("batch_key-100"))
	require.NoError(t, batch.Write())

	_, err = db.Get([]byte("batch_key-005"))
	require.Equal(t, ErrNotFoundInDb, err)
	v, err = db.Get([]byte("batch_key-100"))
	require.NoError(t, err)
	require.Equal(t, "batch_key-100", string(v))
}

// 迭代器 Seek
func testDBIteratorSeek(t *testing.T, db DB) {
	require.NoError(t, db.Set([]byte("seek/0001"), []byte("v1")))
	require.NoError(t, db.Set([]byte("seek/0003"), []byte("v3")))
	require.NoError(t, db.Set([]byte("seek/0005"), []byte("v5")))

	it := db.Iterator([]byte("seek/"), nil, false)
	require.True(t, it.Seek([]byte("seek/0003")))
	require.Equal(t, []byte("seek/0003"), it.Key())
	// seek 不存在的 key 落到后一条
	require.True(t, it.Seek([]byte("seek/0002")))
	require.Equal(t, []byte("seek/0003"), it.Key())
	it.Close()

	rit := db.Iterator([]byte("seek/"), nil, true)
	require.True(t, rit.Rewind())
	require.Equal(t, []byte("seek/0005"), rit.Key())
	// 反向 seek 不存在的 key 落到前一条
	require.True(t, rit.Seek([]byte("seek/0004")))
	require.Equal(t, []byte("seek/0003"), rit.Key())
	require.True(t, rit.Next())
	require.Equal(t, []byte("seek/0001"), rit.Key())
	rit.Close()
}

func TestGoMemDB(t *testing.T) {
	db, err := NewGoMemDB("memdb", "", 128)
	require.NoError(t, err)
	defer db.Close()
	testDBIterator(t, db)
	testDBDelete(t, db)
	testDBBatch(t, db)
	testDBIteratorSeek(t, db)
}

func TestGoLevelDB(t *testing.T) {
	dir, err := ioutil.TempDir("", "goleveldb")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	db, err := NewGoLevelDB("goleveldb", dir, 128)
	require.NoError(t, err)
	defer db.Close()
	testDBIterator(t, db)
	testDBDelete(t, db)
	testDBBatch(t, db)
	testDBIteratorSeek(t, db)
}

func TestGoBadgerDB(t *testing.T) {
	dir, err := ioutil.TempDir("", "gobadgerdb")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	db, err := NewGoBadgerDB("gobadgerdb", dir, 128)
	require.NoError(t, err)
	defer db.Close()
	testDBIterator(t, db)
	testDBDelete(t, db)
	testDBBatch(t, db)
	testDBIteratorSeek(t, db)
}

func TestNewDB(t *testing.T) {
	dir, err := ioutil.TempDir("", "newdb")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	db := NewDB("state", LevelDBBackendStr, dir, 16)
	require.NoError(t, db.Set([]byte("k"), []byte("v")))
	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, "v", string(v))
	db.Close()

	require.Panics(t, func() { NewDB("state", "nosuchbackend", dir, 16) })
}

func TestPegasusGet(t *testing.T) {
	key := []byte("my_key")
	key1 := []byte("my_key1")
	val := []byte("my_value")

	db := new(PegasusDB)
	tbl := new(mockTable)
	tbl.On("Get", context.Background(), getHashKey(key), key).Return(val, nil)
	tbl.On("Get", context.Background(), getHashKey(key1), key1).Return(nil, nil)
	db.table = tbl

	data, err := db.Get(key)
	require.NoError(t, err)
	require.Equal(t, val, data)

	data, err = db.Get(key1)
	require.Nil(t, data)
	require.EqualError(t, err, ErrNotFoundInDb.Error())
	tbl.AssertExpectations(t)
}

func TestGetHashKey(t *testing.T) {
	require.Equal(t, []byte("short"), getHashKey([]byte("short")))
	long := []byte("mavl-bountypot-pot-000000000000000001")
	require.Equal(t, []byte("mavl-bountypot-"), getHashKey(long))
	require.Len(t, getHashKey(long), hashKeyLen)
}

type mockTable struct {
	pegasus.TableConnector
	mock.Mock
}

func (tbl *mockTable) Get(ctx context.Context, hashKey []byte, sortKey []byte) ([]byte, error) {
	args := tbl.Called(ctx, hashKey, sortKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
