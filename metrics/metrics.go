// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics 运行指标：go-metrics 注册表的周期上报与 prometheus 采集辅助
package metrics

import (
	"reflect"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/33cn/bountypot/metrics/influxdb"
	"github.com/33cn/bountypot/types"
	log15 "github.com/inconshreveable/log15"
	go_metrics "github.com/rcrowley/go-metrics"
)

var log = log15.New("module", "metrics")

// Namespace 指标命名空间
var Namespace = "bountypot"

// StartMetrics 根据配置启动指标上报
func StartMetrics(cfg *types.Config) {
	metrics := cfg.Metrics
	if metrics == nil || !metrics.EnableMetrics {
		log.Info("Metrics data is not enabled to emit")
		return
	}

	switch metrics.DataEmitMode {
	case "influxdb":
		influxdbcfg := metrics.InfluxDB
		if influxdbcfg == nil {
			log.Error("nil parameter for influxdb")
			return
		}
		log.Info("StartMetrics with influxdb", "duration", influxdbcfg.Duration,
			"url", influxdbcfg.URL,
			"database", influxdbcfg.Database,
			"namespace", influxdbcfg.Namespace)
		go influxdb.InfluxDB(go_metrics.DefaultRegistry,
			time.Duration(influxdbcfg.Duration),
			influxdbcfg.URL,
			influxdbcfg.Database,
			influxdbcfg.Username,
			influxdbcfg.Password,
			influxdbcfg.Namespace)
	default:
		log.Error("startMetrics", "The dataEmitMode set is not supported now ", metrics.DataEmitMode)
		return
	}
}

// Collector 提供 prometheus 采集器的组件
type Collector interface {
	Metrics() []prometheus.Collector
}

// PrometheusCollectorsFromFields 反射收集结构体里实现 prometheus.Collector 的字段
func PrometheusCollectorsFromFields(i interface{}) (cs []prometheus.Collector) {
	v := reflect.Indirect(reflect.ValueOf(i))
	for i := 0; i < v.NumField(); i++ {
		if !v.Field(i).CanInterface() {
			continue
		}
		if u, ok := v.Field(i).Interface().(prometheus.Collector); ok {
			cs = append(cs, u)
		}
	}
	return cs
}
