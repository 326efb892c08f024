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

package iprange

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/apparentlymart/go-cidr/cidr"
)

// ErrInvalidRange is returned when a managed range can't be parsed.
var ErrInvalidRange = errors.New("invalid managed range")

// IPRange is an inclusive range of IPV4 addresses described by a
// CIDR. The agent treats every address inside it as its own.
type IPRange struct {
	network *net.IPNet
	from    net.IP
	to      net.IP
}

// NewIPRange parses a CIDR like "10.0.0.0/24" and returns the
// corresponding IPRange. The error return value wraps
// ErrInvalidRange if raw isn't an IPV4 CIDR.
func NewIPRange(raw string) (IPRange, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return IPRange{}, fmt.Errorf("%w: empty", ErrInvalidRange)
	}

	_, n, err := net.ParseCIDR(raw)
	if err != nil {
		return IPRange{}, fmt.Errorf("%w: %q is not a CIDR", ErrInvalidRange, raw)
	}
	if n.IP.To4() == nil {
		return IPRange{}, fmt.Errorf("%w: %q is not an IPV4 CIDR", ErrInvalidRange, raw)
	}

	from, to := cidr.AddressRange(n)

	return IPRange{network: n, from: from.To4(), to: to.To4()}, nil
}

// MustIPRange is like NewIPRange but panics if raw can't be parsed.
func MustIPRange(raw string) IPRange {
	r, err := NewIPRange(raw)
	if err != nil {
		panic(err)
	}
	return r
}

// Contains indicates whether the provided net.IP represents an
// address within this IPRange.
func (r IPRange) Contains(ip net.IP) bool {
	ip4 := ip.To4()
	if ip4 == nil || r.from == nil {
		return false
	}

	return bytes.Compare(ip4, r.from) >= 0 && bytes.Compare(ip4, r.to) <= 0
}

// Filter returns the subset of addresses that fall inside this
// IPRange.
func (r IPRange) Filter(addresses Set) Set {
	inRange := Set{}
	for key, ip := range addresses {
		if r.Contains(ip) {
			inRange[key] = ip
		}
	}
	return inRange
}

// First returns the lowest address in this IPRange.
func (r IPRange) First() net.IP {
	return dup(r.from)
}

// Last returns the highest address in this IPRange.
func (r IPRange) Last() net.IP {
	return dup(r.to)
}

// Size returns the count of addresses in this IPRange.
func (r IPRange) Size() uint64 {
	if r.network == nil {
		return 0
	}
	return cidr.AddressCount(r.network)
}

func (r IPRange) String() string {
	if r.network == nil {
		return ""
	}
	return r.network.String()
}

func dup(ip net.IP) net.IP {
	if ip == nil {
		return nil
	}
	dup := make(net.IP, len(ip))
	copy(dup, ip)
	return dup
}
