/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package scheduler

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics groups every Prometheus collector the scheduler updates. A nil
// Registerer passed to newMetrics still returns a usable metrics set; the
// collectors simply are never scraped.
type metrics struct {
	readyDepth     prometheus.Gauge
	waitDepth      *prometheus.GaugeVec
	pollDuration   prometheus.Histogram
	handlerOutcome *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		readyDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "htcore_scheduler_ready_depth",
			Help: "Number of pollers currently queued in the ready queue.",
		}),
		waitDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "htcore_scheduler_wait_depth",
			Help: "Number of pollers currently parked in each wait-bucket phase.",
		}, []string{"phase"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "htcore_scheduler_poll_duration_seconds",
			Help:    "Wall time of one worker poll step, including a Ready handler invocation.",
			Buckets: prometheus.DefBuckets,
		}),
		handlerOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "htcore_scheduler_handler_outcome_total",
			Help: "Count of RequestHandler invocations by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.readyDepth, m.waitDepth, m.pollDuration, m.handlerOutcome)
	}

	return m
}

func (m *metrics) setWaitDepth(phase int, depth int) {
	m.waitDepth.WithLabelValues(strconv.Itoa(phase)).Set(float64(depth))
}
