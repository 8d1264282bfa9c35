// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// oraclerelay 把 CI 的 commit status 回调翻译成 oracle 判定信封。
// 约定状态上下文为 bountypot/attempt/<编号>，state 为 success 时判成功，
// failure/error 判失败，pending 忽略。重发的回调按 delivery id 去重。
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/33cn/bountypot/common"
	"github.com/33cn/bountypot/common/crypto"
	clog "github.com/33cn/bountypot/common/log"
	"github.com/33cn/bountypot/rpc/jsonclient"
	"github.com/33cn/bountypot/types"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	log "github.com/inconshreveable/log15"
	"gopkg.in/go-playground/webhooks.v5/github"

	// 注册签名驱动
	_ "github.com/33cn/bountypot/common/crypto/secp256k1"
	_ "github.com/33cn/bountypot/common/crypto/sm2"
)

const (
	path = "/webhooks"
	// 判定回调的状态上下文前缀，后跟尝试编号
	contextPrefix = "bountypot/attempt/"
)

var (
	listenAddr = flag.String("l", ":3000", "listen address")
	rpcLaddr   = flag.String("rpc_laddr", "http://localhost:8801", "bountypot jsonrpc url")
	secret     = flag.String("secret", "", "github webhook secret")
	keyHex     = flag.String("k", "", "oracle private key in hex")
	signName   = flag.String("signtype", "secp256k1", "sign type (secp256k1/sm2)")
)

var (
	rlog      = log.New("module", "oraclerelay")
	relayRand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

type verdict struct {
	attemptID int64
	succeeded bool
	sha       string
	repo      string
}

func main() {
	flag.Parse()
	clog.SetLogLevel("info")
	priv, signTy, err := loadKey(*keyHex, *signName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	hook, _ := github.New(github.Options.Secret(*secret))
	seen, _ := lru.New(1024)
	qhook := make(chan *verdict, 64)

	http.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-type", "application/json")
		if delivery := r.Header.Get("X-GitHub-Delivery"); delivery != "" {
			id, err := uuid.Parse(delivery)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, `{"action":"bad delivery id"}`)
				return
			}
			if ok, _ := seen.ContainsOrAdd(id.String(), struct{}{}); ok {
				rlog.Info("duplicate delivery", "id", id.String())
				w.WriteHeader(http.StatusOK)
				io.WriteString(w, `{"action":"duplicate"}`)
				return
			}
		}
		payload, err := hook.Parse(r, github.StatusEvent, github.PingEvent)
		if err != nil {
			if err == github.ErrEventNotFound {
				w.WriteHeader(http.StatusOK)
				io.WriteString(w, `{"action":"event not relayed"}`)
				return
			}
			rlog.Error("parse webhook", "err", err)
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"action":"bad payload"}`)
			return
		}
		switch p := payload.(type) {
		case github.PingPayload:
			rlog.Info("ping", "zen", p.Zen)
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, `{"action":"pong"}`)
			return
		case github.StatusPayload:
			v, ok := parseStatus(p)
			if !ok {
				w.WriteHeader(http.StatusOK)
				io.WriteString(w, `{"action":"ignored"}`)
				return
			}
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, `{"action":"verdict"}`)
			qhook <- v
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"action":"unknown request event"}`)
	})
	go relayProcess(qhook, priv, signTy)
	rlog.Info("oraclerelay listening", "addr", *listenAddr, "rpc", *rpcLaddr)
	if err := http.ListenAndServe(*listenAddr, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadKey(keyHex, signName string) (crypto.PrivKey, int32, error) {
	signTy := types.GetSignType(signName)
	if signTy == 0 {
		return nil, 0, fmt.Errorf("unknown sign type %q", signName)
	}
	c, err := crypto.New(signName)
	if err != nil {
		return nil, 0, err
	}
	b, err := common.FromHex(keyHex)
	if err != nil {
		return nil, 0, err
	}
	priv, err := c.PrivKeyFromBytes(b)
	if err != nil {
		return nil, 0, err
	}
	return priv, signTy, nil
}

func parseStatus(p github.StatusPayload) (*verdict, bool) {
	if !strings.HasPrefix(p.Context, contextPrefix) {
		return nil, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(p.Context, contextPrefix), 10, 64)
	if err != nil || id < 0 {
		rlog.Warn("bad attempt context", "context", p.Context)
		return nil, false
	}
	v := &verdict{attemptID: id, sha: p.Sha, repo: p.Repository.FullName}
	switch p.State {
	case "success":
		v.succeeded = true
		return v, true
	case "failure", "error":
		return v, true
	}
	// pending 等中间态不上报
	return nil, false
}

func relayProcess(ch chan *verdict, priv crypto.PrivKey, signTy int32) {
	rpc, err := jsonclient.NewJSONClient(*rpcLaddr)
	if err != nil {
		rlog.Crit("new json client", "err", err)
		return
	}
	for v := range ch {
		action := &types.PotAction{
			Ty:       types.PotActionComplete,
			Complete: &types.PotComplete{AttemptId: v.attemptID, Succeeded: v.succeeded},
		}
		tx := &types.Transaction{Payload: action, Nonce: relayRand.Int63()}
		tx.Sign(signTy, priv)

		var res interface{}
		if err := rpc.Call("AttemptCompleted", tx, &res); err != nil {
			rlog.Error("relay verdict", "attempt", v.attemptID, "repo", v.repo, "sha", v.sha, "err", err)
			continue
		}
		rlog.Info("relay verdict", "attempt", v.attemptID, "succeeded", v.succeeded, "repo", v.repo, "sha", v.sha)
	}
}
