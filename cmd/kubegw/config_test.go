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
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"

	kubegwv1 "kubegw.io/pkg/apis/kubegw/v1"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string {
		return vars[key]
	}
}

func TestParseConfigFromEnv(t *testing.T) {
	cfg, err := parseConfig(nil, env(map[string]string{
		kubegwv1.EnvInterface: "eth1",
		kubegwv1.EnvNetwork:   "10.0.0.0/24",
		kubegwv1.EnvDebug:     "1",
		kubegwv1.EnvInCluster: "yes",
	}), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "eth1", cfg.Interface)
	assert.Equal(t, "10.0.0.0/24", cfg.Managed.String())
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.InCluster)
	assert.Equal(t, []corev1.ServiceType{corev1.ServiceTypeClusterIP}, cfg.ServiceTypes)
	assert.Equal(t, kubegwv1.MutatorNetlink, cfg.Mutator)
	assert.Equal(t, time.Second, cfg.MinInterval)
	assert.Equal(t, 10*time.Second, cfg.MaxInterval)
	assert.Equal(t, kubegwv1.DefaultAPITimeout, cfg.APITimeout)
	assert.Equal(t, kubegwv1.DefaultMetricsPort, cfg.Port)
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	cfg, err := parseConfig([]string{
		"--interface", "eth2",
		"--network", "192.168.0.0/16",
		"--service-types", "ClusterIP,LoadBalancer",
		"--mutator", "exec",
		"--min-interval", "2s",
		"--max-interval", "2s",
		"--port", "9000",
	}, env(map[string]string{
		kubegwv1.EnvInterface:   "eth1",
		kubegwv1.EnvNetwork:     "10.0.0.0/24",
		kubegwv1.EnvMinInterval: "5s",
	}), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "eth2", cfg.Interface)
	assert.Equal(t, "192.168.0.0/16", cfg.Managed.String())
	assert.Equal(t, []corev1.ServiceType{corev1.ServiceTypeClusterIP, corev1.ServiceTypeLoadBalancer}, cfg.ServiceTypes)
	assert.Equal(t, kubegwv1.MutatorExec, cfg.Mutator)
	assert.Equal(t, 2*time.Second, cfg.MinInterval)
	assert.Equal(t, 2*time.Second, cfg.MaxInterval)
	assert.Equal(t, 9000, cfg.Port)
	assert.False(t, cfg.Debug)
}

func TestParseConfigInvalid(t *testing.T) {
	base := map[string]string{
		kubegwv1.EnvInterface: "eth1",
		kubegwv1.EnvNetwork:   "10.0.0.0/24",
	}

	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "no interface", env: map[string]string{kubegwv1.EnvNetwork: "10.0.0.0/24"}},
		{name: "no network", env: map[string]string{kubegwv1.EnvInterface: "eth1"}},
		{name: "bad network", args: []string{"--network", "10.0.0.0"}, env: base},
		{name: "ipv6 network", args: []string{"--network", "2001:db8::/64"}, env: base},
		{name: "bad service type", args: []string{"--service-types", "Headless"}, env: base},
		{name: "bad mutator", args: []string{"--mutator", "ifconfig"}, env: base},
		{name: "max below min", args: []string{"--min-interval", "5s", "--max-interval", "1s"}, env: base},
		{name: "zero min", args: []string{"--min-interval", "0s"}, env: base},
		{name: "bad port", args: []string{"--port", "0"}, env: base},
		{name: "unknown flag", args: []string{"--nope"}, env: base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfig(tt.args, env(tt.env), io.Discard)
			assert.True(t, errors.Is(err, errInvalidConfig), "got %v", err)
		})
	}
}

func TestParseDurationEnv(t *testing.T) {
	getenv := env(map[string]string{"GOOD": "3s", "BAD": "soon"})
	assert.Equal(t, 3*time.Second, parseDurationEnv(getenv, "GOOD", time.Second))
	assert.Equal(t, time.Second, parseDurationEnv(getenv, "BAD", time.Second))
	assert.Equal(t, time.Second, parseDurationEnv(getenv, "MISSING", time.Second))
}
