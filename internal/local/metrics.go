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

package local

import (
	"github.com/prometheus/client_golang/prometheus"

	kubegwv1 "kubegw.io/pkg/apis/kubegw/v1"
)

const subsystem = "host"

// Values of the "backend" label.
const (
	MutatorNetlink = kubegwv1.MutatorNetlink
	MutatorExec    = kubegwv1.MutatorExec
)

var (
	// mutations counts address changes by back end, operation and
	// result.
	mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: kubegwv1.MetricsNamespace,
		Subsystem: subsystem,
		Name:      "address_mutations_total",
		Help:      "Total number of address mutations attempted on the host",
	}, []string{"backend", "op", "result"})
)

func init() {
	prometheus.MustRegister(mutations)
}

// recordMutation counts one add or remove.
func recordMutation(backend string, op string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	mutations.WithLabelValues(backend, op, result).Inc()
}
