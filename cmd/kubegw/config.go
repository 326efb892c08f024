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

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	corev1 "k8s.io/api/core/v1"

	"kubegw.io/internal/iprange"
	"kubegw.io/internal/k8s"
	kubegwv1 "kubegw.io/pkg/apis/kubegw/v1"
)

// errInvalidConfig is wrapped by every configuration error.
var errInvalidConfig = errors.New("invalid configuration")

// config is the process configuration. It's read once at startup
// and never changes.
type config struct {
	Interface    string
	Managed      iprange.IPRange
	Debug        bool
	InCluster    bool
	Kubeconfig   string
	ServiceTypes []corev1.ServiceType
	Mutator      string
	MinInterval  time.Duration
	MaxInterval  time.Duration
	APITimeout   time.Duration
	Host         string
	Port         int
}

// parseDurationEnv parses a duration from an environment variable, returning
// the default if the env var is not set or cannot be parsed.
func parseDurationEnv(getenv func(string) string, envVar string, defaultVal time.Duration) time.Duration {
	val := getenv(envVar)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

// stringEnv returns the value of envVar, or defaultVal if it's not
// set.
func stringEnv(getenv func(string) string, envVar string, defaultVal string) string {
	if val := getenv(envVar); val != "" {
		return val
	}
	return defaultVal
}

// parseConfig reads the configuration from args, using getenv for
// the flag defaults. The error wraps errInvalidConfig if the
// configuration is unusable.
func parseConfig(args []string, getenv func(string) string, output io.Writer) (*config, error) {
	fs := flag.NewFlagSet("kubegw", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		ifName       = fs.String("interface", getenv(kubegwv1.EnvInterface), "name of the interface that external IPs are bound to")
		network      = fs.String("network", getenv(kubegwv1.EnvNetwork), "IPV4 CIDR that this agent manages; bound addresses in it that no service declares are removed")
		debug        = fs.Bool("debug", getenv(kubegwv1.EnvDebug) != "", "enable debug logging")
		inCluster    = fs.Bool("in-cluster", getenv(kubegwv1.EnvInCluster) != "", "use the pod's service account to reach the API server")
		kubeconfig   = fs.String("kubeconfig", "", "absolute path to the kubeconfig file (only needed when running outside of k8s, defaults to $KUBECONFIG or ~/.kube/config)")
		serviceTypes = fs.String("service-types", stringEnv(getenv, kubegwv1.EnvServiceTypes, kubegwv1.DefaultServiceTypes), "comma-separated service types whose spec.externalIPs are bound")
		mutator      = fs.String("mutator", stringEnv(getenv, kubegwv1.EnvMutator, kubegwv1.MutatorNetlink), "how addresses are changed: netlink or exec")
		minInterval  = fs.Duration("min-interval", parseDurationEnv(getenv, kubegwv1.EnvMinInterval, kubegwv1.DefaultMinInterval), "minimum delay between cycles")
		maxInterval  = fs.Duration("max-interval", parseDurationEnv(getenv, kubegwv1.EnvMaxInterval, kubegwv1.DefaultMaxInterval), "maximum delay between cycles")
		apiTimeout   = fs.Duration("api-timeout", parseDurationEnv(getenv, kubegwv1.EnvAPITimeout, kubegwv1.DefaultAPITimeout), "timeout of each request to the API server")
		host         = fs.String("host", getenv(kubegwv1.EnvHost), "HTTP host address for Prometheus metrics")
		port         = fs.Int("port", kubegwv1.DefaultMetricsPort, "HTTP listening port for Prometheus metrics")
	)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}

	cfg := &config{
		Interface:   *ifName,
		Debug:       *debug,
		InCluster:   *inCluster,
		Kubeconfig:  *kubeconfig,
		Mutator:     *mutator,
		MinInterval: *minInterval,
		MaxInterval: *maxInterval,
		APITimeout:  *apiTimeout,
		Host:        *host,
		Port:        *port,
	}

	if cfg.Interface == "" {
		return nil, fmt.Errorf("%w: must specify --interface or %s", errInvalidConfig, kubegwv1.EnvInterface)
	}

	managed, err := iprange.NewIPRange(*network)
	if err != nil {
		return nil, fmt.Errorf("%w: --network or %s: %w", errInvalidConfig, kubegwv1.EnvNetwork, err)
	}
	cfg.Managed = managed

	cfg.ServiceTypes, err = k8s.ParseServiceTypes(*serviceTypes)
	if err != nil {
		return nil, fmt.Errorf("%w: --service-types: %w", errInvalidConfig, err)
	}

	switch cfg.Mutator {
	case kubegwv1.MutatorNetlink, kubegwv1.MutatorExec:
	default:
		return nil, fmt.Errorf("%w: unknown mutator %q", errInvalidConfig, cfg.Mutator)
	}

	if cfg.MinInterval <= 0 || cfg.MaxInterval < cfg.MinInterval {
		return nil, fmt.Errorf("%w: intervals must satisfy 0 < min (%v) <= max (%v)", errInvalidConfig, cfg.MinInterval, cfg.MaxInterval)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: invalid metrics port %d", errInvalidConfig, cfg.Port)
	}

	return cfg, nil
}
