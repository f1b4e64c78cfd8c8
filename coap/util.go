package coap

import (
	"net/url"
	"strings"
)

// Given a string of the form "host", "host:port", or "[ipv6::address]:port",
// return true if the string includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

var portMap = map[string]string{
	SchemeUDP: "5683",
	SchemeTCP: "5683",
}

// canonicalAddr returns u.Host but always with a ":port" suffix.
func canonicalAddr(u *url.URL) string {
	addr := u.Host
	if !hasPort(addr) {
		return addr + ":" + portMap[u.Scheme]
	}
	return addr
}

// removeEmptyPort strips the empty port in "host:" to "host", as
// mandated by RFC 3986 section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
