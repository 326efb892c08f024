// listaddrs prints the IPV4 addresses that kubegw sees on an
// interface and, if a managed range is given, which of them kubegw
// would be allowed to remove.
//
//	listaddrs eth1 10.0.0.0/24
package main

import (
	"fmt"
	"os"

	"kubegw.io/internal/iprange"
	"kubegw.io/internal/local"
)

func main() {
	ifname := "eth0"
	if len(os.Args) > 1 {
		ifname = os.Args[1]
	}

	var managed *iprange.IPRange
	if len(os.Args) > 2 {
		r, err := iprange.NewIPRange(os.Args[2])
		if err != nil {
			fmt.Printf("Error parsing managed range: %v\n", err)
			os.Exit(1)
		}
		managed = &r
	}

	bound, err := local.NewInspector().Addresses(ifname)
	if err != nil {
		fmt.Printf("Error listing addresses on %s: %v\n", ifname, err)
		os.Exit(1)
	}

	fmt.Printf("=== IPv4 addresses on %s ===\n", ifname)
	for _, ip := range bound.Sorted() {
		if managed == nil {
			fmt.Printf("  %s\n", ip)
			continue
		}
		fmt.Printf("  %-15s managed: %v\n", ip, managed.Contains(ip))
	}

	if managed != nil {
		fmt.Printf("\n%d of %d addresses are inside %s (%s - %s)\n",
			len(managed.Filter(bound)), len(bound), managed, managed.First(), managed.Last())
	}
}
