// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trace 运维侧 HTTP 服务：/status 账本概览，/metrics prometheus 指标
package trace

import (
	"net"
	"net/http"
	"time"

	"github.com/33cn/bountypot/executor"
	log15 "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = log15.New("module", "trace")

// Service 运维 HTTP 服务
type Service struct {
	eng             *executor.Engine
	metrics         serviceMetrics
	metricsRegistry *prometheus.Registry
	l               net.Listener
}

// New 创建服务并注册自身指标
func New(eng *executor.Engine) *Service {
	s := &Service{
		eng:             eng,
		metrics:         newServiceMetrics(),
		metricsRegistry: newMetricsRegistry(),
	}
	s.MustRegisterMetrics(s.Metrics()...)
	return s
}

// Handler 组装路由
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/status", MethodHandler{
		"GET": http.HandlerFunc(s.statusHandler),
	})
	mux.Handle("/metrics", MethodHandler{
		"GET": promhttp.HandlerFor(s.metricsRegistry, promhttp.HandlerOpts{}),
	})
	mux.HandleFunc("/", NotFoundHandler)
	return mux
}

func (s *Service) statusHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.metrics.RequestCount.Inc()
	defer func() {
		s.metrics.ResponseDuration.Observe(time.Since(start).Seconds())
	}()
	status, err := s.eng.GetStatus()
	if err != nil {
		log.Error("statusHandler", "err", err)
		InternalServerError(w, err)
		return
	}
	OK(w, status)
}

// Listen 绑定地址并开始服务，返回实际监听的端口
func (s *Service) Listen(addr string) (int, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, err
	}
	s.l = l
	go func() {
		err := http.Serve(l, s.Handler())
		if err != nil {
			log.Debug("trace server stopped", "err", err)
		}
	}()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// Close 停止服务
func (s *Service) Close() {
	if s.l != nil {
		err := s.l.Close()
		if err != nil {
			log.Error("trace close", "err", err)
		}
	}
}
