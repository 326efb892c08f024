// Copyright 2017 Google Inc.
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

package k8s

import (
	"fmt"
	"net/http"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kubegw.io/internal/logging"
	kubegwv1 "kubegw.io/pkg/apis/kubegw/v1"
)

const subsystem = "k8s_client"

var (
	serviceLists = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: kubegwv1.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "service_lists_total",
		Help:      "Number of service list requests sent to the API server.",
	})

	serviceListErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: kubegwv1.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "service_list_errors_total",
		Help:      "Number of service list requests that failed.",
	})

	invalidAddresses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: kubegwv1.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "invalid_external_ips_total",
		Help:      "Number of declared external IPs that were skipped because they aren't IPV4 addresses.",
	})
)

func init() {
	prometheus.MustRegister(serviceLists)
	prometheus.MustRegister(serviceListErrors)
	prometheus.MustRegister(invalidAddresses)
}

// RunMetrics runs the metrics server. It only returns if the server
// can't listen.
func RunMetrics(logger log.Logger, metricsHost string, metricsPort int) {
	http.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf("%s:%d", metricsHost, metricsPort)
	err := http.ListenAndServe(addr, nil)
	logging.Error(logger, "op", "metrics", "addr", addr, "error", err, "msg", "metrics server exited")
}
