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
	"net"

	"kubegw.io/internal/iprange"
)

// Inspector reports the IPV4 addresses that are bound to an
// interface right now. Implementations must not cache.
type Inspector interface {
	Addresses(ifName string) (iprange.Set, error)
}

// DesiredSource reports the addresses that the cluster wants to be
// reachable through this gateway.
type DesiredSource interface {
	Desired(ctx context.Context) (iprange.Set, error)
}

// Mutator binds and unbinds single addresses. Each call is
// independent of the others.
type Mutator interface {
	Add(ctx context.Context, ifName string, ip net.IP, prefixLen int) error
	Remove(ctx context.Context, ifName string, ip net.IP, prefixLen int) error
}

// Syncer runs one reconciliation cycle.
type Syncer interface {
	Sync(ctx context.Context) error
}
