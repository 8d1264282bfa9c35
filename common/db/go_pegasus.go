// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/XiaoMi/pegasus-go-client/pegasus"
	log "github.com/inconshreveable/log15"
	"github.com/pkg/errors"
)

var slog = log.New("module", "db.pegasus")
var bm = &dbBench{}

// ErrPegasusConfig 无效的 pegasus 地址配置
var ErrPegasusConfig = errors.New("invalid pegasus url")

// 哈希键取 key 的执行器前缀（形如 mavl-bountypot- / LODB-bountypot-），
// 保证同一族 key 落在同一分片，范围扫描不跨 hashKey
const hashKeyLen = 15

func init() {
	dbCreator := func(name string, dir string, cache int) (DB, error) {
		return NewPegasusDB(name, dir, cache)
	}
	registerDBCreator(GoPegasusDbBackendStr, dbCreator, false)
}

func getHashKey(key []byte) []byte {
	if len(key) <= hashKeyLen {
		return key
	}
	return key[:hashKeyLen]
}

// dbBench 读写耗时统计
type dbBench struct {
	// 写次数
	writeCount int
	// 写条数
	writeNum int
	// 写耗费时间
	writeTime  time.Duration
	readCount  int
	readNum    int
	readTime   time.Duration
	getMissNum int
}

func (bench *dbBench) write(num int, cost time.Duration) {
	bench.writeCount++
	bench.writeNum += num
	bench.writeTime += cost
}

func (bench *dbBench) read(num int, cost time.Duration) {
	bench.readCount++
	bench.readNum += num
	bench.readTime += cost
}

func (bench *dbBench) String() string {
	return fmt.Sprintf("Benchmark[(ReadTimes=%v, ReadRecordNum=%v, ReadCostTime=%v;) (WriteTimes=%v, WriteRecordNum=%v, WriteCostTime=%v)]",
		bench.readCount, bench.readNum, bench.readTime, bench.writeCount, bench.writeNum, bench.writeTime)
}

// PegasusDB pegasus 分布式 KV 后端
type PegasusDB struct {
	TransactionDB

	cfg    *pegasus.Config
	name   string
	client pegasus.Client
	table  pegasus.TableConnector
}

// NewPegasusDB 连接 pegasus 集群，dir 为 meta server 地址列表
func NewPegasusDB(name string, dir string, cache int) (*PegasusDB, error) {
	database := &PegasusDB{name: name}
	database.cfg = parsePegasusNodes(dir)

	if database.cfg == nil {
		slog.Error("no valid pegasus instance exists, exit!")
		return nil, ErrPegasusConfig
	}
	database.client = pegasus.NewClient(*database.cfg)
	tb, err := database.client.OpenTable(context.Background(), database.name)
	if err != nil {
		slog.Error("connect to pegasus error!", "pegasus", database.cfg, "error", err)
		database.client.Close()
		return nil, err
	}
	database.table = tb
	return database, nil
}

// url pattern: ip:port,ip:port
func parsePegasusNodes(url string) *pegasus.Config {
	hosts := strings.Split(url, ",")
	if len(hosts) == 0 || hosts[0] == "" {
		slog.Error("invalid pegasus url", "url", url)
		return nil
	}
	return &pegasus.Config{MetaServers: hosts}
}

// Get 读 key，不存在返回 ErrNotFoundInDb
func (db *PegasusDB) Get(key []byte) ([]byte, error) {
	start := time.Now()
	value, err := db.table.Get(context.Background(), getHashKey(key), key)
	if err != nil {
		slog.Error("Get", "error", err)
		return nil, err
	}
	if value == nil {
		return nil, ErrNotFoundInDb
	}
	bm.read(1, time.Since(start))
	return value, nil
}

// Set 写 key
func (db *PegasusDB) Set(key []byte, value []byte) error {
	start := time.Now()
	err := db.table.Set(context.Background(), getHashKey(key), key, value)
	if err != nil {
		slog.Error("Set", "error", err)
		return err
	}
	bm.write(1, time.Since(start))
	return nil
}

// SetSync 同步写
func (db *PegasusDB) SetSync(key []byte, value []byte) error {
	return db.Set(key, value)
}

// Delete 删 key
func (db *PegasusDB) Delete(key []byte) error {
	start := time.Now()
	err := db.table.Del(context.Background(), getHashKey(key), key)
	if err != nil {
		slog.Error("Delete", "error", err)
		return err
	}
	bm.write(1, time.Since(start))
	return nil
}

// DeleteSync 同步删
func (db *PegasusDB) DeleteSync(key []byte) error {
	return db.Delete(key)
}

// Close 断开连接
func (db *PegasusDB) Close() {
	db.table.Close()
	db.client.Close()
}

// Print 打印统计信息
func (db *PegasusDB) Print() {
	slog.Info(bm.String())
}

// Stats 数据库统计
func (db *PegasusDB) Stats() map[string]string {
	return make(map[string]string)
}

// Iterator 创建范围迭代器，分页拉取，end 为 nil 时按 start 前缀迭代
func (db *PegasusDB) Iterator(start []byte, end []byte, reverse bool) Iterator {
	if end == nil {
		end = bytesPrefix(start)
	}
	it := &pegasusIt{itBase: itBase{start, end, reverse}, index: -1, table: db.table}

	opts := &pegasus.MultiGetOptions{StartInclusive: true, StopInclusive: false, MaxFetchCount: IteratorPageSize, Reverse: reverse}
	vals, allFetched, err := db.table.MultiGetRangeOpt(context.Background(), getHashKey(start), start, end, opts)
	if err != nil {
		slog.Error("create iterator error!", "error", err)
		it.err = err
		return it
	}

	if len(vals) > 0 {
		it.vals = vals
		if !allFetched {
			it.nextPage = true
			it.tmpEnd = it.vals[len(it.vals)-1].SortKey
		}
	}
	return it
}

type pegasusIt struct {
	itBase
	table    pegasus.TableConnector
	vals     []*pegasus.KeyValue
	index    int
	nextPage bool
	tmpEnd   []byte
	err      error

	// 当前所属的页数（从0开始）
	pageNo int
}

// Close 结束迭代
func (dbit *pegasusIt) Close() {
	dbit.index = -1
}

// Next 前进一条，页尾自动抓取下一页
func (dbit *pegasusIt) Next() bool {
	if len(dbit.vals) > dbit.index+1 {
		dbit.index++
		return dbit.Valid()
	}
	if dbit.nextPage {
		return dbit.cacheNextPage(dbit.tmpEnd)
	}
	return false
}

func (dbit *pegasusIt) initPage(begin, end []byte, startInclusive bool) bool {
	// 正向翻页推进下界，反向翻页推进上界，已读出的边界 key 需排除
	opts := &pegasus.MultiGetOptions{StartInclusive: startInclusive, StopInclusive: false, MaxFetchCount: IteratorPageSize, Reverse: dbit.reverse}
	if dbit.reverse {
		begin, end = dbit.start, begin
		opts.StartInclusive = true
	}
	vals, allFetched, err := dbit.table.MultiGetRangeOpt(context.Background(), getHashKey(dbit.start), begin, end, opts)
	if err != nil {
		slog.Error("get iterator next page error", "error", err, "begin", begin, "end", end, "reverse", dbit.reverse)
		dbit.err = err
		return false
	}

	if len(vals) == 0 {
		return false
	}
	// 这里只改变vals，不改变index
	dbit.vals = vals
	if !allFetched {
		dbit.nextPage = true
		dbit.tmpEnd = dbit.vals[len(vals)-1].SortKey
	} else {
		dbit.nextPage = false
	}
	return true
}

// 获取下一页的数据
func (dbit *pegasusIt) cacheNextPage(boundary []byte) bool {
	if dbit.initPage(boundary, dbit.end, false) {
		dbit.index = 0
		dbit.pageNo++
		return true
	}
	return false
}

func (dbit *pegasusIt) findInPage(key []byte) int {
	for i, v := range dbit.vals {
		if i < dbit.index {
			continue
		}
		if dbit.reverse {
			if bytes.Compare(v.SortKey, key) <= 0 {
				return i
			}
		} else {
			if bytes.Compare(v.SortKey, key) >= 0 {
				return i
			}
		}
	}
	return -1
}

// Seek 定位到 key；正向落在首个不小于 key 的条目，反向落在首个不大于 key 的条目
func (dbit *pegasusIt) Seek(key []byte) bool {
	pos := dbit.findInPage(key)

	// 如果第一页已经找到，不会走入此逻辑
	for pos == -1 && dbit.nextPage {
		if dbit.cacheNextPage(dbit.tmpEnd) {
			pos = dbit.findInPage(key)
		} else {
			break
		}
	}

	dbit.index = pos
	return dbit.Valid()
}

// Rewind 回到迭代起点
func (dbit *pegasusIt) Rewind() bool {
	// 正常情况下Rewind调用都发生在第一页；
	// 当数据已经翻到第N页时，需要重新拉取第一页
	if dbit.pageNo == 0 {
		dbit.index = 0
		return dbit.Valid()
	}

	first := cloneByte(dbit.start)
	if dbit.reverse {
		first = cloneByte(dbit.end)
	}
	if dbit.initPage(first, dbit.end, true) {
		dbit.index = 0
		dbit.pageNo = 0
		return dbit.Valid()
	}
	return false
}

// Key 当前 key
func (dbit *pegasusIt) Key() []byte {
	if dbit.index >= 0 && dbit.index < len(dbit.vals) {
		return dbit.vals[dbit.index].SortKey
	}
	return nil
}

// Value 当前 value
func (dbit *pegasusIt) Value() []byte {
	if dbit.index < 0 || dbit.index >= len(dbit.vals) {
		slog.Error("get iterator value error: index out of bounds")
		return nil
	}
	return dbit.vals[dbit.index].Value
}

// ValueCopy 当前 value 的拷贝
func (dbit *pegasusIt) ValueCopy() []byte {
	return cloneByte(dbit.Value())
}

// Error 迭代错误
func (dbit *pegasusIt) Error() error {
	return dbit.err
}

// Valid 当前位置是否有效
func (dbit *pegasusIt) Valid() bool {
	start := time.Now()
	if dbit.index < 0 || dbit.index >= len(dbit.vals) {
		return false
	}
	bm.read(1, time.Since(start))
	return dbit.checkKey(dbit.vals[dbit.index].SortKey)
}

type pegasusBatch struct {
	table    pegasus.TableConnector
	batchset map[string][]byte
	batchdel map[string][]byte
}

// NewBatch 创建批量写
func (db *PegasusDB) NewBatch(sync bool) Batch {
	return &pegasusBatch{table: db.table, batchset: make(map[string][]byte), batchdel: make(map[string][]byte)}
}

func (db *pegasusBatch) Set(key, value []byte) {
	db.batchset[string(key)] = value
	delete(db.batchdel, string(key))
}

func (db *pegasusBatch) Delete(key []byte) {
	db.batchset[string(key)] = []byte{}
	db.batchdel[string(key)] = key
}

// 注意本方法的实现逻辑，因为pegasus没有提供删除和更新同时进行的批量操作；
// 所以这里先执行更新操作（删除的KEY在这里会将VALUE设置为空）；
// 然后再执行删除操作；
// 这样即使中间执行出错，也不会导致删除结果未写入的情况（值已经被置空）
func (db *pegasusBatch) Write() error {
	start := time.Now()

	if len(db.batchset) > 0 {
		grouped := make(map[string][][2][]byte)
		for k, v := range db.batchset {
			key := []byte(k)
			hk := string(getHashKey(key))
			grouped[hk] = append(grouped[hk], [2][]byte{key, v})
		}
		for hk, pairs := range grouped {
			var keys [][]byte
			var values [][]byte
			for _, pair := range pairs {
				keys = append(keys, pair[0])
				values = append(values, pair[1])
			}
			err := db.table.MultiSet(context.Background(), []byte(hk), keys, values)
			if err != nil {
				slog.Error("Write (multi_set)", "error", err)
				return err
			}
		}
	}

	if len(db.batchdel) > 0 {
		grouped := make(map[string][][]byte)
		for _, v := range db.batchdel {
			hk := string(getHashKey(v))
			grouped[hk] = append(grouped[hk], v)
		}
		for hk, dkeys := range grouped {
			err := db.table.MultiDel(context.Background(), []byte(hk), dkeys)
			if err != nil {
				slog.Error("Write (multi_del)", "error", err)
				return err
			}
		}
	}

	bm.write(len(db.batchset)+len(db.batchdel), time.Since(start))
	return nil
}

func (db *pegasusBatch) ValueSize() int {
	size := 0
	for k, v := range db.batchset {
		size += len(k) + len(v)
	}
	return size
}

func (db *pegasusBatch) ValueLen() int {
	return len(db.batchset)
}

func (db *pegasusBatch) Reset() {
	db.batchset = make(map[string][]byte)
	db.batchdel = make(map[string][]byte)
}

func (db *pegasusBatch) UpdateWriteSync(sync bool) {}
