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
	"fmt"
	"net"
	"sort"
)

// Set is a set of IPV4 host addresses keyed by their dotted-quad
// form. Adding an address that's already present is a no-op.
type Set map[string]net.IP

// NewSet returns a Set holding ips. Addresses that aren't IPV4 are
// ignored.
func NewSet(ips ...net.IP) Set {
	s := Set{}
	for _, ip := range ips {
		s.Add(ip)
	}
	return s
}

// ParseSet parses each of raw into a Set. It returns an error naming
// the first entry that isn't an IPV4 address.
func ParseSet(raw ...string) (Set, error) {
	s := Set{}
	for _, r := range raw {
		ip := net.ParseIP(r)
		if ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("%q is not an IPV4 address", r)
		}
		s.Add(ip)
	}
	return s, nil
}

// MustParseSet is like ParseSet but panics on error.
func MustParseSet(raw ...string) Set {
	s, err := ParseSet(raw...)
	if err != nil {
		panic(err)
	}
	return s
}

// Add adds ip to the set. It returns false if ip isn't an IPV4
// address.
func (s Set) Add(ip net.IP) bool {
	ip4 := ip.To4()
	if ip4 == nil {
		return false
	}
	s[ip4.String()] = ip4
	return true
}

// Has indicates whether ip is in the set.
func (s Set) Has(ip net.IP) bool {
	ip4 := ip.To4()
	if ip4 == nil {
		return false
	}
	_, ok := s[ip4.String()]
	return ok
}

// Difference returns the addresses in s that aren't in other.
func (s Set) Difference(other Set) Set {
	diff := Set{}
	for key, ip := range s {
		if _, ok := other[key]; !ok {
			diff[key] = ip
		}
	}
	return diff
}

// Sorted returns the addresses in ascending numeric order.
func (s Set) Sorted() []net.IP {
	ips := make([]net.IP, 0, len(s))
	for _, ip := range s {
		ips = append(ips, ip)
	}
	sort.Slice(ips, func(i, j int) bool {
		return bytes.Compare(ips[i], ips[j]) < 0
	})
	return ips
}

// Strings returns the addresses in ascending numeric order.
func (s Set) Strings() []string {
	ips := s.Sorted()
	strs := make([]string, len(ips))
	for i, ip := range ips {
		strs[i] = ip.String()
	}
	return strs
}
