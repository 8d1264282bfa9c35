// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"io/ioutil"

	tml "github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config bountypot.toml 的顶层结构
type Config struct {
	Title   string   `toml:"title,omitempty"`
	Log     *Log     `toml:"log,omitempty"`
	Store   *Store   `toml:"store,omitempty"`
	Escrow  *Escrow  `toml:"escrow,omitempty"`
	RPC     *RPC     `toml:"rpc,omitempty"`
	Metrics *Metrics `toml:"metrics,omitempty"`
}

// Log 日志配置
type Log struct {
	Loglevel        string `toml:"loglevel,omitempty"`
	LogConsoleLevel string `toml:"logConsoleLevel,omitempty"`
	LogFile         string `toml:"logFile,omitempty"`
	MaxFileSize     uint32 `toml:"maxFileSize,omitempty"`
	MaxBackups      uint32 `toml:"maxBackups,omitempty"`
	MaxAge          uint32 `toml:"maxAge,omitempty"`
	LocalTime       bool   `toml:"localTime,omitempty"`
	Compress        bool   `toml:"compress,omitempty"`
	CallerFile      bool   `toml:"callerFile,omitempty"`
	CallerFunction  bool   `toml:"callerFunction,omitempty"`
}

// Store 状态库配置，Driver 可选 leveldb/gobadgerdb/pegasus/memdb
type Store struct {
	Driver  string `toml:"driver,omitempty"`
	DbPath  string `toml:"dbPath,omitempty"`
	DbCache int32  `toml:"dbCache,omitempty"`
}

// Escrow 托管与管理配置。TrustedOracle 为首次启动时写入账本的判定者地址
type Escrow struct {
	Symbol        string            `toml:"symbol,omitempty"`
	Decimals      int32             `toml:"decimals,omitempty"`
	Owner         string            `toml:"owner,omitempty"`
	TrustedOracle string            `toml:"trustedOracle,omitempty"`
	Genesis       []*GenesisAccount `toml:"genesis,omitempty"`
}

// GenesisAccount 创世注资账户，Amount 为最小计价单位
type GenesisAccount struct {
	Addr   string `toml:"addr"`
	Amount int64  `toml:"amount"`
}

// RPC 服务端配置。Whitelist 为空时只放行回环地址，["*"] 放行全部
type RPC struct {
	JrpcBindAddr   string   `toml:"jrpcBindAddr,omitempty"`
	TraceBindAddr  string   `toml:"traceBindAddr,omitempty"`
	Whitelist      []string `toml:"whitelist,omitempty"`
	JrpcUserName   string   `toml:"jrpcUserName,omitempty"`
	JrpcUserPasswd string   `toml:"jrpcUserPasswd,omitempty"`
	MaxConns       int      `toml:"maxConns,omitempty"`
	MaxBodyBytes   int64    `toml:"maxBodyBytes,omitempty"`
	RateLimit      float64  `toml:"rateLimit,omitempty"`
	RateBurst      int64    `toml:"rateBurst,omitempty"`
	AllowOrigins   []string `toml:"allowOrigins,omitempty"`
}

// Metrics 指标上报配置
type Metrics struct {
	EnableMetrics bool      `toml:"enableMetrics,omitempty"`
	DataEmitMode  string    `toml:"dataEmitMode,omitempty"`
	InfluxDB      *InfluxDB `toml:"influxdb,omitempty"`
}

// InfluxDB influxdb 上报参数，Duration 单位纳秒
type InfluxDB struct {
	Duration  int64  `toml:"duration,omitempty"`
	URL       string `toml:"url,omitempty"`
	Database  string `toml:"database,omitempty"`
	Username  string `toml:"username,omitempty"`
	Password  string `toml:"password,omitempty"`
	Namespace string `toml:"namespace,omitempty"`
}

// InitCfg 读取并解析配置文件
func InitCfg(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return InitCfgString(string(data))
}

// InitCfgString 解析配置内容并填默认值
func InitCfgString(cfgstring string) (*Config, error) {
	cfg := &Config{}
	if _, err := tml.Decode(cfgstring, cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	fillDefaultValue(cfg)
	return cfg, nil
}

func fillDefaultValue(cfg *Config) {
	if cfg.Title == "" {
		cfg.Title = BountyPotX
	}
	if cfg.Log == nil {
		cfg.Log = &Log{}
	}
	if cfg.Log.Loglevel == "" {
		cfg.Log.Loglevel = "info"
	}
	if cfg.Log.LogConsoleLevel == "" {
		cfg.Log.LogConsoleLevel = "info"
	}
	if cfg.Store == nil {
		cfg.Store = &Store{}
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "leveldb"
	}
	if cfg.Store.DbPath == "" {
		cfg.Store.DbPath = "datadir"
	}
	if cfg.Store.DbCache <= 0 {
		cfg.Store.DbCache = 64
	}
	if cfg.Escrow == nil {
		cfg.Escrow = &Escrow{}
	}
	if cfg.Escrow.Symbol == "" {
		cfg.Escrow.Symbol = "bty"
	}
	if cfg.Escrow.Decimals <= 0 {
		cfg.Escrow.Decimals = 8
	}
	if cfg.RPC == nil {
		cfg.RPC = &RPC{}
	}
	if cfg.RPC.JrpcBindAddr == "" {
		cfg.RPC.JrpcBindAddr = "localhost:8801"
	}
	if cfg.RPC.MaxConns <= 0 {
		cfg.RPC.MaxConns = 128
	}
	if cfg.RPC.MaxBodyBytes <= 0 {
		cfg.RPC.MaxBodyBytes = 4 * 1024 * 1024
	}
	if cfg.RPC.RateLimit <= 0 {
		cfg.RPC.RateLimit = 100
	}
	if cfg.RPC.RateBurst <= 0 {
		cfg.RPC.RateBurst = 200
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &Metrics{}
	}
}
