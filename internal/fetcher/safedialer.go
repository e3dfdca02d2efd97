package fetcher

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"syscall"
	"time"
)

var errPrivateTarget = errors.New("fetcher: target resolves to a private or reserved address")

// nonPublicRanges are reserved blocks that netip.Addr has no helper for.
var nonPublicRanges = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"),   // carrier-grade NAT
	netip.MustParsePrefix("192.0.0.0/24"),    // IETF protocol assignments
	netip.MustParsePrefix("192.0.2.0/24"),    // TEST-NET-1
	netip.MustParsePrefix("198.18.0.0/15"),   // benchmarking
	netip.MustParsePrefix("198.51.100.0/24"), // TEST-NET-2
	netip.MustParsePrefix("203.0.113.0/24"),  // TEST-NET-3
}

// newDialer returns the dialer behind every audit request. Unless private
// targets are allowed, the dial-time Control hook refuses any resolved address
// that is not public, which also defeats DNS rebinding.
func newDialer(timeout time.Duration, allowPrivate bool) *net.Dialer {
	d := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}
	if !allowPrivate {
		d.Control = rejectNonPublic
	}
	return d
}

func rejectNonPublic(_ string, address string, _ syscall.RawConn) error {
	addrPort, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %w", errPrivateTarget, err)
	}
	if !isPublic(addrPort.Addr()) {
		return fmt.Errorf("%w: %s", errPrivateTarget, addrPort.Addr())
	}
	return nil
}

func isPublic(addr netip.Addr) bool {
	// ::ffff:10.0.0.1 must be judged as 10.0.0.1.
	addr = addr.Unmap()
	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return false
	}
	for _, p := range nonPublicRanges {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}
