// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// snapshot 把账本的奖池、尝试和事件流经 JSON-RPC 导出成 JSONL 文件，
// 外加一份总体状态，用于离线对账和审计
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/33cn/bountypot/rpc/jsonclient"
	"github.com/33cn/bountypot/types"
	"github.com/qianlnk/pgbar"
)

var (
	rpcLaddr = flag.String("rpc_laddr", "http://localhost:8801", "bountypot jsonrpc url")
	outDir   = flag.String("o", "snapshot", "output directory")
	batch    = flag.Int("b", 100, "events per pull")
)

func main() {
	flag.Parse()
	rpc, err := jsonclient.NewJSONClient(*rpcLaddr)
	if err != nil {
		die(err)
	}

	var status types.ReplyStatus
	if err := rpc.Call("GetStatus", &types.ReqNil{}, &status); err != nil {
		die(err)
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		die(err)
	}
	if err := writeStatus(filepath.Join(*outDir, "status.json"), &status); err != nil {
		die(err)
	}

	pgbar.Println("bountypot snapshot")
	if err := dumpPots(rpc, status.PotCount); err != nil {
		die(err)
	}
	if err := dumpAttempts(rpc, status.AttemptCount); err != nil {
		die(err)
	}
	if err := dumpEvents(rpc, status.EventCount); err != nil {
		die(err)
	}
	fmt.Printf("\nsnapshot done: %d pots, %d attempts, %d events\n",
		status.PotCount, status.AttemptCount, status.EventCount)
}

func die(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func writeStatus(path string, status *types.ReplyStatus) error {
	data, err := json.MarshalIndent(status, "", "    ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, data, 0644)
}

func writeLine(w *bufio.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// 奖池编号从 0 起连续分配，逐个拉取即可
func dumpPots(rpc *jsonclient.JSONClient, total int64) error {
	f, err := os.Create(filepath.Join(*outDir, "pots.jsonl"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	var bar *pgbar.Bar
	if total > 0 {
		bar = pgbar.NewBar(0, "pots", int(total))
	}
	for id := int64(0); id < total; id++ {
		var res types.ReplyPot
		if err := rpc.Call("GetPot", &types.ReqPot{PotId: id}, &res); err != nil {
			return err
		}
		if err := writeLine(w, res.Pot); err != nil {
			return err
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	return w.Flush()
}

func dumpAttempts(rpc *jsonclient.JSONClient, total int64) error {
	f, err := os.Create(filepath.Join(*outDir, "attempts.jsonl"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	var bar *pgbar.Bar
	if total > 0 {
		bar = pgbar.NewBar(1, "attempts", int(total))
	}
	for id := int64(0); id < total; id++ {
		var res types.ReplyAttempt
		if err := rpc.Call("GetAttempt", &types.ReqAttempt{AttemptId: id}, &res); err != nil {
			return err
		}
		if err := writeLine(w, res.Attempt); err != nil {
			return err
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	return w.Flush()
}

// 事件序号从 1 起严格递增。Seq 是游标，传上一批最后一条的序号，
// 服务端返回其后的事件，按批拉到凑满总数为止
func dumpEvents(rpc *jsonclient.JSONClient, total int64) error {
	f, err := os.Create(filepath.Join(*outDir, "events.jsonl"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	var bar *pgbar.Bar
	if total > 0 {
		bar = pgbar.NewBar(2, "events", int(total))
	}
	next := int64(0)
	written := int64(0)
	for written < total {
		var res types.ReplyEvents
		if err := rpc.Call("GetEvents", &types.ReqEvents{Seq: next, Count: int32(*batch)}, &res); err != nil {
			return err
		}
		if len(res.Events) == 0 {
			break
		}
		for _, ev := range res.Events {
			if err := writeLine(w, ev); err != nil {
				return err
			}
		}
		next = res.Events[len(res.Events)-1].Seq
		written += int64(len(res.Events))
		if bar != nil {
			bar.Add(len(res.Events))
		}
	}
	return w.Flush()
}
