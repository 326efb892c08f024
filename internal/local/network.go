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

package local

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netlink/nl"

	"kubegw.io/internal/iprange"
)

var (
	// ErrInterfaceNotFound is returned when an interface doesn't exist
	// or has no IPV4 addresses.
	ErrInterfaceNotFound = errors.New("interface not found")

	// ErrMutationFailed is returned when an address couldn't be added
	// to or removed from an interface.
	ErrMutationFailed = errors.New("address mutation failed")
)

// netlinkOps is the subset of netlink that we use. *netlink.Handle
// satisfies it.
type netlinkOps interface {
	LinkByName(name string) (netlink.Link, error)
	AddrList(link netlink.Link, family int) ([]netlink.Addr, error)
	AddrReplace(link netlink.Link, addr *netlink.Addr) error
	AddrDel(link netlink.Link, addr *netlink.Addr) error
}

// hostNetlink talks to the kernel through the netlink package
// handle.
type hostNetlink struct{}

func (hostNetlink) LinkByName(name string) (netlink.Link, error) {
	return netlink.LinkByName(name)
}

func (hostNetlink) AddrList(link netlink.Link, family int) ([]netlink.Addr, error) {
	return netlink.AddrList(link, family)
}

func (hostNetlink) AddrReplace(link netlink.Link, addr *netlink.Addr) error {
	return netlink.AddrReplace(link, addr)
}

func (hostNetlink) AddrDel(link netlink.Link, addr *netlink.Addr) error {
	return netlink.AddrDel(link, addr)
}

// AddrFamily returns whether lbIP is an IPV4 or IPV6 address. The
// return value will be nl.FAMILY_V6 if the address is an IPV6
// address, nl.FAMILY_V4 if it's IPV4, or 0 if the family can't be
// determined.
func AddrFamily(lbIP net.IP) (lbIPFamily int) {
	if nil != lbIP.To16() {
		lbIPFamily = nl.FAMILY_V6
	}

	if nil != lbIP.To4() {
		lbIPFamily = nl.FAMILY_V4
	}

	return
}

// Inspector lists the IPV4 addresses bound to an interface. Every
// call asks the kernel.
type Inspector struct {
	nl netlinkOps
}

// NewInspector returns an Inspector that queries the host.
func NewInspector() *Inspector {
	return &Inspector{nl: hostNetlink{}}
}

// Addresses returns the IPV4 addresses that are bound to ifName. The
// error wraps ErrInterfaceNotFound if ifName doesn't exist or has no
// IPV4 addresses.
func (i *Inspector) Addresses(ifName string) (iprange.Set, error) {
	link, err := lookupLink(i.nl, ifName)
	if err != nil {
		return nil, err
	}

	addrs, err := i.nl.AddrList(link, nl.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("listing addresses on %s: %w", ifName, err)
	}

	bound := iprange.Set{}
	for _, addr := range addrs {
		if addr.IPNet == nil {
			continue
		}
		bound.Add(addr.IP)
	}

	if len(bound) == 0 {
		return nil, fmt.Errorf("%w: %s has no IPV4 addresses", ErrInterfaceNotFound, ifName)
	}

	return bound, nil
}

// NetlinkMutator binds and unbinds addresses using netlink. Adding an
// address that's already bound replaces it.
type NetlinkMutator struct {
	nl netlinkOps
}

// NewNetlinkMutator returns a NetlinkMutator that changes the host.
func NewNetlinkMutator() *NetlinkMutator {
	return &NetlinkMutator{nl: hostNetlink{}}
}

// Add binds ip/prefixLen to ifName.
func (m *NetlinkMutator) Add(_ context.Context, ifName string, ip net.IP, prefixLen int) error {
	link, addr, err := m.prepare(ifName, ip, prefixLen)
	if err != nil {
		recordMutation(MutatorNetlink, "add", err)
		return err
	}

	err = m.nl.AddrReplace(link, addr)
	if err != nil {
		err = fmt.Errorf("%w: could not add %v to %s: %w", ErrMutationFailed, addr.IPNet, ifName, err)
	}
	recordMutation(MutatorNetlink, "add", err)
	return err
}

// Remove unbinds ip/prefixLen from ifName.
func (m *NetlinkMutator) Remove(_ context.Context, ifName string, ip net.IP, prefixLen int) error {
	link, addr, err := m.prepare(ifName, ip, prefixLen)
	if err != nil {
		recordMutation(MutatorNetlink, "remove", err)
		return err
	}

	err = m.nl.AddrDel(link, addr)
	if err != nil {
		err = fmt.Errorf("%w: could not remove %v from %s: %w", ErrMutationFailed, addr.IPNet, ifName, err)
	}
	recordMutation(MutatorNetlink, "remove", err)
	return err
}

func (m *NetlinkMutator) prepare(ifName string, ip net.IP, prefixLen int) (netlink.Link, *netlink.Addr, error) {
	ipNet, err := hostNet(ip, prefixLen)
	if err != nil {
		return nil, nil, err
	}

	link, err := lookupLink(m.nl, ifName)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMutationFailed, err)
	}

	return link, &netlink.Addr{IPNet: ipNet}, nil
}

func lookupLink(ops netlinkOps, ifName string) (netlink.Link, error) {
	link, err := ops.LinkByName(ifName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInterfaceNotFound, ifName, err)
	}
	return link, nil
}

// hostNet returns ip/prefixLen as an IPV4 net.IPNet.
func hostNet(ip net.IP, prefixLen int) (*net.IPNet, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("%w: %v is not an IPV4 address", ErrMutationFailed, ip)
	}
	if prefixLen < 0 || prefixLen > 32 {
		return nil, fmt.Errorf("%w: invalid prefix length %d", ErrMutationFailed, prefixLen)
	}
	return &net.IPNet{IP: ip4, Mask: net.CIDRMask(prefixLen, 32)}, nil
}
