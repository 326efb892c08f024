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
	"net"
	"sync"

	"kubegw.io/internal/iprange"
)

// fakeHost stands in for a network interface. It implements both
// Inspector and Mutator so that mutations are visible to the next
// cycle.
type fakeHost struct {
	lock sync.Mutex

	ifName  string
	bound   iprange.Set
	listErr error

	failAdd    map[string]int // address -> number of calls that fail
	failRemove map[string]int

	lists   int
	adds    []string
	removes []string

	// afterAdd runs after every successful Add.
	afterAdd func(ip net.IP)
}

func newFakeHost(ifName string, bound ...string) *fakeHost {
	return &fakeHost{
		ifName:     ifName,
		bound:      iprange.MustParseSet(bound...),
		failAdd:    map[string]int{},
		failRemove: map[string]int{},
	}
}

func (h *fakeHost) Addresses(ifName string) (iprange.Set, error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lists++
	if h.listErr != nil {
		return nil, h.listErr
	}
	if ifName != h.ifName {
		return nil, errors.New("no such interface")
	}
	copied := iprange.Set{}
	for k, v := range h.bound {
		copied[k] = v
	}
	return copied, nil
}

func (h *fakeHost) Add(_ context.Context, ifName string, ip net.IP, prefixLen int) error {
	h.lock.Lock()
	h.adds = append(h.adds, ip.String())
	if h.failAdd[ip.String()] > 0 {
		h.failAdd[ip.String()]--
		h.lock.Unlock()
		return errors.New("permission denied")
	}
	h.bound.Add(ip)
	h.lock.Unlock()

	if h.afterAdd != nil {
		h.afterAdd(ip)
	}
	return nil
}

func (h *fakeHost) Remove(_ context.Context, ifName string, ip net.IP, prefixLen int) error {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.removes = append(h.removes, ip.String())
	if h.failRemove[ip.String()] > 0 {
		h.failRemove[ip.String()]--
		return errors.New("permission denied")
	}
	delete(h.bound, ip.String())
	return nil
}

func (h *fakeHost) resetCalls() {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.adds = nil
	h.removes = nil
}

// fakeSource returns a fixed set of desired addresses.
type fakeSource struct {
	lock    sync.Mutex
	desired iprange.Set
	err     error
	calls   int
}

func newFakeSource(desired ...string) *fakeSource {
	return &fakeSource{desired: iprange.MustParseSet(desired...)}
}

func (s *fakeSource) Desired(context.Context) (iprange.Set, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	copied := iprange.Set{}
	for k, v := range s.desired {
		copied[k] = v
	}
	return copied, nil
}

func (s *fakeSource) set(desired ...string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.desired = iprange.MustParseSet(desired...)
}

// countingSyncer counts cycles and optionally blocks inside them.
type countingSyncer struct {
	lock  sync.Mutex
	count int
	err   error
	block chan struct{}
	begun chan struct{}
}

func (s *countingSyncer) Sync(context.Context) error {
	if s.begun != nil {
		s.begun <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.count++
	return s.err
}

func (s *countingSyncer) Count() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.count
}
