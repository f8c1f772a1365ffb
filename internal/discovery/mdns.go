// Package discovery advertises the status server over mDNS.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/enbility/zeroconf/v3"

	"github.com/sweeney/leak-sensor/internal/logger"
)

const (
	// ServiceType is the DNS-SD type the status page is advertised under.
	ServiceType = "_http._tcp"
	// Domain is the mDNS domain.
	Domain = "local."
	// StatusPath is advertised so clients can find the JSON endpoint.
	StatusPath = "/index.json"
)

var errNoPort = errors.New("address has no usable port")

// Info describes the advertised service.
type Info struct {
	Instance string // DNS-SD instance name, normally the device name
	Port     int
	Path     string
}

// TXT returns the TXT records for info as key=value strings.
func (i Info) TXT() []string {
	path := i.Path
	if path == "" {
		path = StatusPath
	}
	return []string{
		"device=" + i.Instance,
		"path=" + path,
	}
}

// PortFromAddr extracts the TCP port from a listen address such as ":80"
// or "0.0.0.0:8080".
func PortFromAddr(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("parse listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%w: %q", errNoPort, addr)
	}
	return port, nil
}

// Advertiser registers a single service and keeps it alive until Stop.
type Advertiser struct {
	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates an idle advertiser.
func NewAdvertiser() *Advertiser {
	return &Advertiser{}
}

// Advertise starts answering mDNS queries for info, replacing any previous
// registration.
func (a *Advertiser) Advertise(ctx context.Context, info Info) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	// nil interfaces means all of them.
	server, err := zeroconf.Register(info.Instance, ServiceType, Domain, info.Port, info.TXT(), nil)
	if err != nil {
		return fmt.Errorf("register %s service: %w", ServiceType, err)
	}
	a.server = server

	logger.InfoKV(logger.WithName(ctx, "mdns"), "advertising status page",
		"instance", info.Instance, "type", ServiceType, "port", info.Port)
	return nil
}

// Stop withdraws the advertisement.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
