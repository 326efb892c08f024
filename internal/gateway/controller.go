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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/log"

	"kubegw.io/internal/iprange"
	"kubegw.io/internal/logging"
	kubegwv1 "kubegw.io/pkg/apis/kubegw/v1"
)

// Config specifies the configuration of a Controller. All fields are
// required.
type Config struct {
	Logger    log.Logger
	Interface string
	Managed   iprange.IPRange
	Inspector Inspector
	Source    DesiredSource
	Mutator   Mutator
}

// Controller keeps the addresses bound to one interface in sync with
// the addresses that the cluster declares.
type Controller struct {
	logger    log.Logger
	ifName    string
	managed   iprange.IPRange
	inspector Inspector
	source    DesiredSource
	mutator   Mutator
}

// Result summarizes what one cycle did.
type Result struct {
	Added        iprange.Set
	Removed      iprange.Set
	FailedAdd    iprange.Set
	FailedRemove iprange.Set
}

// NewController configures a new Controller. If error is non-nil
// then the Controller shouldn't be used.
func NewController(cfg Config) (*Controller, error) {
	switch {
	case cfg.Logger == nil:
		return nil, errors.New("logger is required")
	case cfg.Interface == "":
		return nil, errors.New("interface name is required")
	case cfg.Managed.Size() == 0:
		return nil, errors.New("managed range is required")
	case cfg.Inspector == nil, cfg.Source == nil, cfg.Mutator == nil:
		return nil, errors.New("address capabilities are required")
	}

	return &Controller{
		logger:    log.With(cfg.Logger, "interface", cfg.Interface),
		ifName:    cfg.Interface,
		managed:   cfg.Managed,
		inspector: cfg.Inspector,
		source:    cfg.Source,
		mutator:   cfg.Mutator,
	}, nil
}

// Sync runs one reconciliation cycle. It returns an error only if the
// cycle had to be abandoned; failed mutations are logged and retried
// by the next cycle.
func (c *Controller) Sync(ctx context.Context) error {
	_, err := c.Reconcile(ctx)
	return err
}

// Reconcile runs one reconciliation cycle and reports what it did.
//
// Every decision is made against the addresses that were bound when
// the cycle started, so an address added by this cycle is never a
// removal candidate in the same cycle.
func (c *Controller) Reconcile(ctx context.Context) (Result, error) {
	start := time.Now()
	defer func() { observeCycle(time.Since(start)) }()

	res := Result{
		Added:        iprange.Set{},
		Removed:      iprange.Set{},
		FailedAdd:    iprange.Set{},
		FailedRemove: iprange.Set{},
	}

	initial, err := c.inspector.Addresses(c.ifName)
	if err != nil {
		cycleErrors.WithLabelValues("inspect").Inc()
		return res, fmt.Errorf("listing addresses on %s: %w", c.ifName, err)
	}
	logging.Debug(c.logger, "op", "inspect", "addresses", fmt.Sprint(initial.Strings()), "msg", "addresses found")

	desired, err := c.source.Desired(ctx)
	if err != nil {
		cycleErrors.WithLabelValues("desired").Inc()
		return res, fmt.Errorf("listing desired addresses: %w", err)
	}
	logging.Debug(c.logger, "op", "desired", "addresses", fmt.Sprint(desired.Strings()), "msg", "external ips found")

	for _, ip := range desired.Difference(initial).Sorted() {
		logging.Info(c.logger, "op", "add", "ip", ip, "msg", "assuming address")
		if err := c.mutator.Add(ctx, c.ifName, ip, kubegwv1.HostPrefixLen); err != nil {
			mutationFailures.WithLabelValues("add").Inc()
			logging.Error(c.logger, "op", "add", "ip", ip, "error", err, "msg", "failed to add address")
			res.FailedAdd.Add(ip)
			continue
		}
		additions.Inc()
		res.Added.Add(ip)
	}

	// Only addresses that were in the managed range before this cycle
	// acted are eligible for removal.
	for _, ip := range c.managed.Filter(initial).Difference(desired).Sorted() {
		logging.Info(c.logger, "op", "remove", "ip", ip, "msg", "forfeiting address")
		if err := c.mutator.Remove(ctx, c.ifName, ip, kubegwv1.HostPrefixLen); err != nil {
			mutationFailures.WithLabelValues("remove").Inc()
			logging.Error(c.logger, "op", "remove", "ip", ip, "error", err, "msg", "failed to remove address")
			res.FailedRemove.Add(ip)
			continue
		}
		withdrawals.Inc()
		res.Removed.Add(ip)
	}

	cycles.Inc()
	desiredAddresses.Set(float64(len(desired)))
	boundAddresses.Set(float64(len(initial) + len(res.Added) - len(res.Removed)))

	return res, nil
}
