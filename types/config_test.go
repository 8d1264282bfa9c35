// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCfgStringDefault(t *testing.T) {
	cfg, err := InitCfgString("")
	require.NoError(t, err)

	assert.Equal(t, "bountypot", cfg.Title)
	assert.Equal(t, "leveldb", cfg.Store.Driver)
	assert.Equal(t, "datadir", cfg.Store.DbPath)
	assert.Equal(t, int32(64), cfg.Store.DbCache)
	assert.Equal(t, "bty", cfg.Escrow.Symbol)
	assert.Equal(t, int32(8), cfg.Escrow.Decimals)
	assert.Equal(t, "localhost:8801", cfg.RPC.JrpcBindAddr)
	assert.Equal(t, 128, cfg.RPC.MaxConns)
	assert.Equal(t, int64(4*1024*1024), cfg.RPC.MaxBodyBytes)
	assert.NotNil(t, cfg.Log)
	assert.NotNil(t, cfg.Metrics)
}

func TestInitCfgString(t *testing.T) {
	cfg, err := InitCfgString(`
title="testpot"

[store]
driver = "memdb"
dbPath = "tmp"

[escrow]
symbol = "coins"
decimals = 4
owner = "14KEKbYtKKQm4wMthSK9J4La4nAiidGozt"
trustedOracle = "12qyocayNF7Lv6C9qW4avxs2E7U41fKSfv"

[[escrow.genesis]]
addr = "14KEKbYtKKQm4wMthSK9J4La4nAiidGozt"
amount = 1000000

[rpc]
jrpcBindAddr = "localhost:9901"
whitelist = ["*"]
`)
	require.NoError(t, err)

	assert.Equal(t, "testpot", cfg.Title)
	assert.Equal(t, "memdb", cfg.Store.Driver)
	assert.Equal(t, "tmp", cfg.Store.DbPath)
	assert.Equal(t, "coins", cfg.Escrow.Symbol)
	assert.Equal(t, int32(4), cfg.Escrow.Decimals)
	assert.Equal(t, "14KEKbYtKKQm4wMthSK9J4La4nAiidGozt", cfg.Escrow.Owner)
	assert.Equal(t, "12qyocayNF7Lv6C9qW4avxs2E7U41fKSfv", cfg.Escrow.TrustedOracle)
	require.Len(t, cfg.Escrow.Genesis, 1)
	assert.Equal(t, int64(1000000), cfg.Escrow.Genesis[0].Amount)
	assert.Equal(t, "localhost:9901", cfg.RPC.JrpcBindAddr)
	assert.Equal(t, []string{"*"}, cfg.RPC.Whitelist)
}

func TestInitCfgStringBad(t *testing.T) {
	_, err := InitCfgString("store = 1\n[store]\n")
	assert.Error(t, err)
}

func TestInitCfgMissingFile(t *testing.T) {
	_, err := InitCfg("no-such-file.toml")
	assert.Error(t, err)
}
