package network

import (
	"net"
	"net/netip"
)

// IsLoopback reports whether addr is a loopback endpoint. Unknown address
// types are not.
func IsLoopback(addr net.Addr) bool {
	var ap netip.AddrPort
	switch a := addr.(type) {
	case *net.UDPAddr:
		ap = a.AddrPort()
	case *net.TCPAddr:
		ap = a.AddrPort()
	default:
		parsed, err := netip.ParseAddrPort(addr.String())
		if err != nil {
			return false
		}
		ap = parsed
	}
	return ap.Addr().Unmap().IsLoopback()
}
