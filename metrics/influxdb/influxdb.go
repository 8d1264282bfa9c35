// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package influxdb 把 go-metrics 注册表里的指标周期写入 influxdb
package influxdb

import (
	"fmt"
	"time"

	log15 "github.com/inconshreveable/log15"
	client "github.com/influxdata/influxdb/client/v2"
	metrics "github.com/rcrowley/go-metrics"
)

var log = log15.New("module", "metrics.influxdb")

type reporter struct {
	reg       metrics.Registry
	interval  time.Duration
	url       string
	database  string
	username  string
	password  string
	namespace string
	tags      map[string]string

	client client.Client
}

// InfluxDB 周期上报，阻塞运行，调用方自行 go 出去
func InfluxDB(r metrics.Registry, d time.Duration, url, database, username, password, namespace string) {
	InfluxDBWithTags(r, d, url, database, username, password, namespace, nil)
}

// InfluxDBWithTags 带固定 tag 的周期上报
func InfluxDBWithTags(r metrics.Registry, d time.Duration, url, database, username, password, namespace string, tags map[string]string) {
	rep := &reporter{
		reg:       r,
		interval:  d,
		url:       url,
		database:  database,
		username:  username,
		password:  password,
		namespace: namespace,
		tags:      tags,
	}
	if err := rep.makeClient(); err != nil {
		log.Error("unable to make influxdb client", "err", err)
		return
	}
	rep.run()
}

func (r *reporter) makeClient() (err error) {
	r.client, err = client.NewHTTPClient(client.HTTPConfig{
		Addr:     r.url,
		Username: r.username,
		Password: r.password,
	})
	return err
}

func (r *reporter) run() {
	intervalTicker := time.NewTicker(r.interval)
	pingTicker := time.NewTicker(time.Second * 5)
	defer intervalTicker.Stop()
	defer pingTicker.Stop()
	for {
		select {
		case <-intervalTicker.C:
			if err := r.send(); err != nil {
				log.Error("unable to send metrics to influxdb", "err", err)
			}
		case <-pingTicker.C:
			_, _, err := r.client.Ping(time.Second)
			if err != nil {
				log.Error("got error while sending a ping to influxdb, trying to recreate client", "err", err)
				if err = r.makeClient(); err != nil {
					log.Error("unable to make influxdb client", "err", err)
				}
			}
		}
	}
}

func (r *reporter) send() error {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{Database: r.database})
	if err != nil {
		return err
	}
	now := time.Now()
	addPoint := func(name string, fields map[string]interface{}) {
		pt, err := client.NewPoint(name, r.tags, fields, now)
		if err != nil {
			log.Error("unable to build influxdb point", "name", name, "err", err)
			return
		}
		bp.AddPoint(pt)
	}
	r.reg.Each(func(name string, i interface{}) {
		switch metric := i.(type) {
		case metrics.Counter:
			ms := metric.Snapshot()
			addPoint(fmt.Sprintf("%s%s.count", r.namespace, name), map[string]interface{}{
				"value": ms.Count(),
			})
		case metrics.Gauge:
			ms := metric.Snapshot()
			addPoint(fmt.Sprintf("%s%s.gauge", r.namespace, name), map[string]interface{}{
				"value": ms.Value(),
			})
		case metrics.GaugeFloat64:
			ms := metric.Snapshot()
			addPoint(fmt.Sprintf("%s%s.gauge", r.namespace, name), map[string]interface{}{
				"value": ms.Value(),
			})
		case metrics.Histogram:
			ms := metric.Snapshot()
			ps := ms.Percentiles([]float64{0.5, 0.75, 0.95, 0.99, 0.999, 0.9999})
			addPoint(fmt.Sprintf("%s%s.histogram", r.namespace, name), map[string]interface{}{
				"count":    ms.Count(),
				"max":      ms.Max(),
				"mean":     ms.Mean(),
				"min":      ms.Min(),
				"stddev":   ms.StdDev(),
				"variance": ms.Variance(),
				"p50":      ps[0],
				"p75":      ps[1],
				"p95":      ps[2],
				"p99":      ps[3],
				"p999":     ps[4],
				"p9999":    ps[5],
			})
		case metrics.Meter:
			ms := metric.Snapshot()
			addPoint(fmt.Sprintf("%s%s.meter", r.namespace, name), map[string]interface{}{
				"count": ms.Count(),
				"m1":    ms.Rate1(),
				"m5":    ms.Rate5(),
				"m15":   ms.Rate15(),
				"mean":  ms.RateMean(),
			})
		case metrics.Timer:
			ms := metric.Snapshot()
			ps := ms.Percentiles([]float64{0.5, 0.75, 0.95, 0.99, 0.999, 0.9999})
			addPoint(fmt.Sprintf("%s%s.timer", r.namespace, name), map[string]interface{}{
				"count":    ms.Count(),
				"max":      ms.Max(),
				"mean":     ms.Mean(),
				"min":      ms.Min(),
				"stddev":   ms.StdDev(),
				"variance": ms.Variance(),
				"p50":      ps[0],
				"p75":      ps[1],
				"p95":      ps[2],
				"p99":      ps[3],
				"p999":     ps[4],
				"p9999":    ps[5],
				"m1":       ms.Rate1(),
				"m5":       ms.Rate5(),
				"m15":      ms.Rate15(),
				"meanrate": ms.RateMean(),
			})
		}
	})
	return r.client.Write(bp)
}
