package policy

import "net"

// parseIPLiteral returns the parsed address only when host is already an IP
// literal. Per spec §4.4, the policy engine resolves no DNS at this stage -
// hostnames pass through unexamined.
func parseIPLiteral(host string) (net.IP, bool) {
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, false
	}
	return ip, true
}

func isLoopback(ip net.IP) bool {
	return ip.IsLoopback()
}

var linkLocalV6 = mustParseCIDR("fe80::/10")

func isLinkLocal(ip net.IP) bool {
	if ip.IsLinkLocalUnicast() {
		return true
	}
	return linkLocalV6.Contains(ip)
}

var privateRanges = []*net.IPNet{
	mustParseCIDR("10.0.0.0/8"),
	mustParseCIDR("172.16.0.0/12"),
	mustParseCIDR("192.168.0.0/16"),
	mustParseCIDR("fc00::/7"),
}

func isPrivate(ip net.IP) bool {
	for _, r := range privateRanges {
		if r.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic("policy: invalid built-in cidr " + cidr)
	}
	return network
}
