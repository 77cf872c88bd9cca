// Package discovery advertises the board server on the local network so
// clients on the same LAN can find it without a URL.
package discovery

import (
	"fmt"
	"net"
	"os"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_whiteboard._tcp"

// Service describes the advertised board server.
func Service(port int, info ...string) (*mdns.MDNSService, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("discovery: hostname: %w", err)
	}
	if len(info) == 0 {
		info = []string{"whiteboard"}
	}

	service, err := mdns.NewMDNSService(
		host,
		ServiceType,
		"",
		"",
		port,
		[]net.IP{firstIPv4()},
		info,
	)
	if err != nil {
		return nil, fmt.Errorf("discovery: service: %w", err)
	}
	return service, nil
}

// Advertise starts answering mDNS queries for the server. Shut the returned
// server down on exit.
func Advertise(port int, info ...string) (*mdns.Server, error) {
	service, err := Service(port, info...)
	if err != nil {
		return nil, err
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("discovery: start: %w", err)
	}
	return server, nil
}

// firstIPv4 returns the first non-loopback IPv4 address of an interface
// that is up, or 127.0.0.1.
func firstIPv4() net.IP {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4()
			}
		}
	}
	return net.IPv4(127, 0, 0, 1)
}
