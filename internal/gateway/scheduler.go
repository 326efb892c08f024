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
	"math/rand"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/go-kit/log"

	"kubegw.io/internal/logging"
)

// SchedulerConfig specifies the configuration of a Scheduler. Clock
// and Rand are optional.
type SchedulerConfig struct {
	Logger      log.Logger
	Syncer      Syncer
	MinInterval time.Duration
	MaxInterval time.Duration
	Clock       clock.Clock
	Rand        *rand.Rand
}

// Scheduler runs a Syncer forever, sleeping a random delay in
// [MinInterval, MaxInterval) before each cycle. Cycles never
// overlap.
type Scheduler struct {
	logger log.Logger
	syncer Syncer
	min    time.Duration
	max    time.Duration
	clock  clock.Clock
	rand   *rand.Rand
}

// NewScheduler configures a new Scheduler. If error is non-nil then
// the Scheduler shouldn't be used.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.Syncer == nil {
		return nil, errors.New("syncer is required")
	}
	if cfg.MinInterval <= 0 {
		return nil, errors.New("minimum interval must be positive")
	}
	if cfg.MaxInterval < cfg.MinInterval {
		return nil, errors.New("maximum interval must not be less than minimum interval")
	}

	s := &Scheduler{
		logger: cfg.Logger,
		syncer: cfg.Syncer,
		min:    cfg.MinInterval,
		max:    cfg.MaxInterval,
		clock:  cfg.Clock,
		rand:   cfg.Rand,
	}
	if s.clock == nil {
		s.clock = clock.NewClock()
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return s, nil
}

// Run drives the Syncer until stopCh is closed. stopCh is only
// checked between cycles; a cycle that has started runs to
// completion.
func (s *Scheduler) Run(stopCh <-chan struct{}) {
	for {
		delay := s.nextDelay()
		logging.Debug(s.logger, "op", "schedule", "delay", delay, "msg", "waiting for next cycle")

		timer := s.clock.NewTimer(delay)
		select {
		case <-stopCh:
			timer.Stop()
			logging.Info(s.logger, "op", "schedule", "msg", "scheduler stopped")
			return
		case <-timer.C():
		}

		if err := s.syncer.Sync(context.Background()); err != nil {
			logging.Error(s.logger, "op", "sync", "error", err, "msg", "cycle abandoned, retrying next cycle")
		}
	}
}

// nextDelay returns a delay drawn uniformly from [min, max).
func (s *Scheduler) nextDelay() time.Duration {
	if s.max <= s.min {
		return s.min
	}
	return s.min + time.Duration(s.rand.Int63n(int64(s.max-s.min)))
}
