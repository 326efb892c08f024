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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/log"
	utilexec "k8s.io/utils/exec"

	"kubegw.io/internal/gateway"
	"kubegw.io/internal/k8s"
	"kubegw.io/internal/local"
	"kubegw.io/internal/logging"
	kubegwv1 "kubegw.io/pkg/apis/kubegw/v1"
)

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.Init(cfg.Debug)

	logging.Info(logger, "op", "startup", "network", cfg.Managed.String(), "interface", cfg.Interface,
		"mutator", cfg.Mutator, "service-types", fmt.Sprint(cfg.ServiceTypes), "msg", "configuration loaded")

	inspector := local.NewInspector()

	// An interface that doesn't resolve at startup is fatal; later
	// failures only abandon the cycle.
	bound, err := inspector.Addresses(cfg.Interface)
	if err != nil {
		logging.Error(logger, "op", "startup", "error", err, "msg", "failed to inspect interface")
		os.Exit(1)
	}
	logging.Info(logger, "op", "startup", "addresses", fmt.Sprint(bound.Strings()), "msg", "interface found")

	mutator, err := newMutator(cfg.Mutator)
	if err != nil {
		logging.Error(logger, "op", "startup", "error", err, "msg", "failed to create address mutator")
		os.Exit(1)
	}

	client, err := k8s.New(&k8s.Config{
		ProcessName:  "kubegw",
		Logger:       logger,
		InCluster:    cfg.InCluster,
		Kubeconfig:   cfg.Kubeconfig,
		Timeout:      cfg.APITimeout,
		ServiceTypes: cfg.ServiceTypes,
	})
	if err != nil {
		logging.Error(logger, "op", "startup", "error", err, "msg", "failed to create k8s client")
		os.Exit(1)
	}

	ctrl, err := gateway.NewController(gateway.Config{
		Logger:    logger,
		Interface: cfg.Interface,
		Managed:   cfg.Managed,
		Inspector: inspector,
		Source:    client,
		Mutator:   mutator,
	})
	if err != nil {
		logging.Error(logger, "op", "startup", "error", err, "msg", "failed to create controller")
		os.Exit(1)
	}

	sched, err := gateway.NewScheduler(gateway.SchedulerConfig{
		Logger:      logger,
		Syncer:      ctrl,
		MinInterval: cfg.MinInterval,
		MaxInterval: cfg.MaxInterval,
	})
	if err != nil {
		logging.Error(logger, "op", "startup", "error", err, "msg", "failed to create scheduler")
		os.Exit(1)
	}

	stopCh := make(chan struct{})
	go func() {
		c1 := make(chan os.Signal, 1)
		signal.Notify(c1, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
		<-c1
		logging.Info(logger, "op", "shutdown", "msg", "signal received, stopping after the current cycle")
		signal.Stop(c1)
		close(stopCh)
	}()

	go k8s.RunMetrics(log.With(logger, "component", "metrics"), cfg.Host, cfg.Port)

	sched.Run(stopCh)

	logging.Info(logger, "op", "shutdown", "msg", "shutdown complete")
}

func newMutator(kind string) (gateway.Mutator, error) {
	switch kind {
	case kubegwv1.MutatorNetlink:
		return local.NewNetlinkMutator(), nil
	case kubegwv1.MutatorExec:
		m, err := local.NewExecMutator(utilexec.New())
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, errors.New("unknown mutator " + kind)
}
