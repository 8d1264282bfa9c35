// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rpc 对外的 JSON-RPC 服务，走 HTTP POST，信封写操作经消息队列串行执行
package rpc

import (
	"encoding/base64"
	"net"
	"net/http"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"time"

	"github.com/33cn/bountypot/queue"
	"github.com/33cn/bountypot/types"
	log15 "github.com/inconshreveable/log15"
	"github.com/kevinms/leakybucket-go"
	"github.com/rs/cors"
	"golang.org/x/net/netutil"
)

var (
	remoteIPWhitelist = make(map[string]bool)
	rpcCfg            *types.RPC
	log               = log15.New("module", "rpc")
)

// InitCfg 装载 rpc 配置并初始化白名单
func InitCfg(cfg *types.RPC) {
	rpcCfg = cfg
	InitIPWhitelist(cfg)
}

// InitIPWhitelist init ip whitelist
func InitIPWhitelist(cfg *types.RPC) {
	remoteIPWhitelist = make(map[string]bool)
	if len(cfg.Whitelist) == 0 {
		remoteIPWhitelist["127.0.0.1"] = true
		return
	}
	if len(cfg.Whitelist) == 1 && cfg.Whitelist[0] == "*" {
		remoteIPWhitelist["0.0.0.0"] = true
		return
	}
	for _, addr := range cfg.Whitelist {
		remoteIPWhitelist[addr] = true
	}
}

func checkBasicAuth(r *http.Request) bool {
	if rpcCfg.JrpcUserName == "" && rpcCfg.JrpcUserPasswd == "" {
		return true
	}

	s := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(s) != 2 {
		return false
	}

	b, err := base64.StdEncoding.DecodeString(s[1])
	if err != nil {
		return false
	}

	pair := strings.SplitN(string(b), ":", 2)
	if len(pair) != 2 {
		return false
	}
	return pair[0] == rpcCfg.JrpcUserName && pair[1] == rpcCfg.JrpcUserPasswd
}

func checkIPWhitelist(addr string) bool {
	//回环网络直接允许
	ip := net.ParseIP(addr)
	if ip.IsLoopback() {
		return true
	}
	ipv4 := ip.To4()
	if ipv4 != nil {
		addr = ipv4.String()
	}
	if _, ok := remoteIPWhitelist["0.0.0.0"]; ok {
		return true
	}
	if _, ok := remoteIPWhitelist[addr]; ok {
		return true
	}
	return false
}

// JSONRPCServer json rpcserver object
type JSONRPCServer struct {
	jrpc    *Pot
	s       *rpc.Server
	l       net.Listener
	limiter *leakybucket.Collector
}

// NewJSONRPCServer new json rpcserver object
func NewJSONRPCServer(c queue.Client) *JSONRPCServer {
	j := &JSONRPCServer{jrpc: &Pot{}}
	j.jrpc.cli.Init(c)
	server := rpc.NewServer()
	j.s = server
	err := server.RegisterName("Pot", j.jrpc)
	if err != nil {
		return nil
	}
	return j
}

// Close json rpcserver close
func (j *JSONRPCServer) Close() {
	if j.l != nil {
		err := j.l.Close()
		if err != nil {
			log.Error("JSONRPCServer close", "err", err)
		}
	}
	if j.jrpc != nil {
		j.jrpc.cli.Close()
	}
}

// Listen 绑定端口并开始服务，返回实际监听的端口
func (j *JSONRPCServer) Listen() (int, error) {
	listener, err := net.Listen("tcp", rpcCfg.JrpcBindAddr)
	if err != nil {
		return 0, err
	}
	port := listener.Addr().(*net.TCPAddr).Port
	j.l = netutil.LimitListener(listener, rpcCfg.MaxConns)
	j.limiter = leakybucket.NewCollector(rpcCfg.RateLimit, rpcCfg.RateBurst, true)
	co := cors.New(cors.Options{AllowedOrigins: rpcCfg.AllowOrigins})
	handler := co.Handler(http.HandlerFunc(j.handleRequest))
	go func() {
		err := http.Serve(j.l, handler)
		if err != nil {
			log.Debug("jrpc server stopped", "err", err)
		}
	}()
	return port, nil
}

func (j *JSONRPCServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if !checkIPWhitelist(ip) {
		log.Info("request ip not in whitelist", "ip", ip)
		http.Error(w, "reject remote ip", http.StatusUnauthorized)
		return
	}
	if !checkBasicAuth(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if j.limiter.Remaining(ip) <= 0 {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}
	j.limiter.Add(ip, 1)
	if r.URL.Path != "/" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	body := http.MaxBytesReader(w, r.Body, rpcCfg.MaxBodyBytes)
	serverCodec := jsonrpc.NewServerCodec(&HttpConn{in: body, out: w})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err = j.s.ServeRequest(serverCodec)
	if err != nil {
		log.Debug("Error while serving JSON request", "err", err)
	}
}

// RPC rpc 模块整体
type RPC struct {
	cfg  *types.RPC
	japi *JSONRPCServer
	cli  queue.Client
}

// New produce a rpc by cfg
func New(cfg *types.RPC) *RPC {
	InitCfg(cfg)
	return &RPC{cfg: cfg}
}

// SetQueueClient set queue client
func (r *RPC) SetQueueClient(c queue.Client) {
	r.cli = c
	r.japi = NewJSONRPCServer(c)
	r.Listen()
}

// Listen rpc listen, http port
func (r *RPC) Listen() (port int) {
	var err error
	for i := 0; i < 10; i++ {
		port, err = r.japi.Listen()
		if err != nil {
			log.Error("Jrpc Listen", "err", err)
			time.Sleep(time.Second)
			continue
		}
		break
	}
	log.Info("rpc listen port", "jrpc", port)
	return port
}

// JRPC return jrpc
func (r *RPC) JRPC() *rpc.Server {
	return r.japi.s
}

// GetQueueClient get queue client
func (r *RPC) GetQueueClient() queue.Client {
	return r.cli
}

// Close rpc close
func (r *RPC) Close() {
	if r.japi != nil {
		r.japi.Close()
	}
}
