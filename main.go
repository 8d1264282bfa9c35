// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// bountypot 守护进程。装载状态库、托管引擎、消息队列和 RPC 服务，
// 主循环由消息队列驱动，收到退出信号后按序关闭各模块。
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	dbm "github.com/33cn/bountypot/common/db"
	clog "github.com/33cn/bountypot/common/log"
	"github.com/33cn/bountypot/executor"
	"github.com/33cn/bountypot/metrics"
	"github.com/33cn/bountypot/queue"
	"github.com/33cn/bountypot/rpc"
	"github.com/33cn/bountypot/trace"
	"github.com/33cn/bountypot/types"

	// 注册签名驱动
	_ "github.com/33cn/bountypot/common/crypto/secp256k1"
	_ "github.com/33cn/bountypot/common/crypto/sm2"

	log "github.com/inconshreveable/log15"
)

const version = "1.0.0"

var (
	cpuNum     = runtime.NumCPU()
	configPath = flag.String("f", "bountypot.toml", "configfile")
	versionCmd = flag.Bool("v", false, "version")
)

func main() {
	flag.Parse()
	if *versionCmd {
		fmt.Println(version)
		return
	}
	cfg, err := types.InitCfg(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	clog.SetFileLog(cfg.Log)
	runtime.GOMAXPROCS(cpuNum)
	log.Info(cfg.Title+" start", "version", version, "config", *configPath)

	log.Info("loading store module")
	store := dbm.NewDB("bountypot", cfg.Store.Driver, cfg.Store.DbPath, cfg.Store.DbCache)

	log.Info("loading queue")
	q := queue.New("channel")

	log.Info("loading execs module")
	eng := executor.New(store, cfg.Escrow)
	if err := eng.GenesisInit(cfg.Escrow.Genesis); err != nil {
		panic(err)
	}
	if err := initLedger(eng, cfg.Escrow); err != nil {
		panic(err)
	}
	eng.SetQueueClient(q.Client())

	log.Info("loading rpc module")
	rpcapi := rpc.New(cfg.RPC)
	rpcapi.SetQueueClient(q.Client())

	var tracesrv *trace.Service
	if cfg.RPC.TraceBindAddr != "" {
		log.Info("loading trace module")
		tracesrv = trace.New(eng)
		port, err := tracesrv.Listen(cfg.RPC.TraceBindAddr)
		if err != nil {
			panic(err)
		}
		log.Info("trace listen port", "trace", port)
	}
	metrics.StartMetrics(cfg)

	defer func() {
		log.Info("begin close rpc module")
		rpcapi.Close()
		if tracesrv != nil {
			log.Info("begin close trace module")
			tracesrv.Close()
		}
		log.Info("begin close execs module")
		eng.Close()
		log.Info("begin close store module")
		store.Close()
		log.Info("begin close queue module")
		q.Close()
	}()
	q.Start()
}

// 首次启动时按配置写入账本配置，已初始化则跳过
func initLedger(eng *executor.Engine, cfg *types.Escrow) error {
	if cfg.TrustedOracle == "" {
		return nil
	}
	_, err := eng.Initialize(cfg.Owner, &types.PotInit{Symbol: cfg.Symbol, Oracle: cfg.TrustedOracle})
	if err == types.ErrAlreadyInitialized {
		log.Info("ledger already initialized, skip config init")
		return nil
	}
	return err
}
