// Copyright 2020 Acnodal Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	kubegwv1 "kubegw.io/pkg/apis/kubegw/v1"
)

const subsystem = "gateway"

var (
	// cycles counts reconciliation cycles that ran to completion.
	cycles = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: kubegwv1.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "cycles_total",
		Help:      "Total number of completed reconciliation cycles",
	})

	// cycleErrors counts abandoned cycles by the step that failed.
	cycleErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: kubegwv1.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "cycle_errors_total",
		Help:      "Total number of abandoned reconciliation cycles",
	}, []string{"step"})

	additions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: kubegwv1.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "address_additions_total",
		Help:      "Total number of addresses added to the interface",
	})

	withdrawals = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: kubegwv1.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "address_withdrawals_total",
		Help:      "Total number of addresses removed from the interface",
	})

	// mutationFailures counts failed adds and removes.
	mutationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: kubegwv1.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "mutation_failures_total",
		Help:      "Total number of failed address mutations",
	}, []string{"op"})

	desiredAddresses = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: kubegwv1.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "desired_addresses",
		Help:      "Number of addresses declared by the cluster in the last cycle",
	})

	boundAddresses = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: kubegwv1.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "bound_addresses",
		Help:      "Number of IPV4 addresses on the interface after the last cycle",
	})

	cycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: kubegwv1.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "cycle_duration_seconds",
		Help:      "Duration of reconciliation cycles",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(cycles)
	prometheus.MustRegister(cycleErrors)
	prometheus.MustRegister(additions)
	prometheus.MustRegister(withdrawals)
	prometheus.MustRegister(mutationFailures)
	prometheus.MustRegister(desiredAddresses)
	prometheus.MustRegister(boundAddresses)
	prometheus.MustRegister(cycleDuration)
}

func observeCycle(d time.Duration) {
	cycleDuration.Observe(d.Seconds())
}
