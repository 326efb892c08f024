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

// Package v1 holds the names and defaults that are shared between
// the kubegw binaries and their deployment manifests.
package v1

import "time"

const (
	// MetricsNamespace is the namespace of all kubegw Prometheus
	// metrics.
	MetricsNamespace = "kubegw"

	// HostPrefixLen is the prefix length of every address that the
	// agent binds to an interface.
	HostPrefixLen = 32

	// DefaultMetricsPort is the port on which the agent serves
	// /metrics.
	DefaultMetricsPort = 7473

	// DefaultMinInterval and DefaultMaxInterval bound the jittered
	// delay between reconciliation cycles.
	DefaultMinInterval = 1 * time.Second
	DefaultMaxInterval = 10 * time.Second

	// DefaultAPITimeout is the client-side timeout of requests to the
	// Kubernetes API.
	DefaultAPITimeout = 10 * time.Second

	// DefaultServiceTypes lists the Service types whose
	// spec.externalIPs the agent binds by default.
	DefaultServiceTypes = "ClusterIP"
)

// Environment variables that provide flag defaults.
const (
	EnvInterface    = "KUBEGW_INTERFACE"
	EnvNetwork      = "KUBEGW_NETWORK"
	EnvDebug        = "KUBEGW_DEBUG"
	EnvInCluster    = "KUBEGW_IN_K8S"
	EnvServiceTypes = "KUBEGW_SERVICE_TYPES"
	EnvMutator      = "KUBEGW_MUTATOR"
	EnvMinInterval  = "KUBEGW_MIN_INTERVAL"
	EnvMaxInterval  = "KUBEGW_MAX_INTERVAL"
	EnvAPITimeout   = "KUBEGW_API_TIMEOUT"
	EnvHost         = "KUBEGW_HOST"
)

// Mutator back ends.
const (
	MutatorNetlink = "netlink"
	MutatorExec    = "exec"
)
