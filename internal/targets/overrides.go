package targets

import (
	"fmt"
	"time"
)

// Overrides are command-line replacements for parts of a Set. Zero values
// leave the set untouched.
type Overrides struct {
	PingHosts  []string
	PingCount  int
	DNSDomains []string
	Resolver   string
	TCPPorts   []string
	URLs       []string
	UserAgent  string
	Timeout    time.Duration
}

func (s Set) Apply(o Overrides) (Set, error) {
	if len(o.PingHosts) > 0 {
		s.Ping.Hosts = append([]string{}, o.PingHosts...)
	}
	if o.PingCount > 0 {
		s.Ping.Count = o.PingCount
	}
	if len(o.DNSDomains) > 0 {
		s.DNS.Domains = append([]string{}, o.DNSDomains...)
	}
	if o.Resolver != "" {
		resolver, err := ResolveResolver(o.Resolver)
		if err != nil {
			return Set{}, err
		}
		s.DNS.Resolver = resolver
	}
	if len(o.TCPPorts) > 0 {
		ports := make([]HostPort, 0, len(o.TCPPorts))
		for _, raw := range o.TCPPorts {
			hp, err := ParseHostPort(raw)
			if err != nil {
				return Set{}, fmt.Errorf("tcp target: %w", err)
			}
			ports = append(ports, hp)
		}
		s.TCP.Ports = ports
	}
	if len(o.URLs) > 0 {
		s.HTTP.URLs = append([]string{}, o.URLs...)
	}
	if o.UserAgent != "" {
		s.HTTP.UserAgent = o.UserAgent
	}
	if o.Timeout > 0 {
		s.Ping.Timeout = o.Timeout
		s.DNS.Timeout = o.Timeout
		s.TCP.Timeout = o.Timeout
		s.HTTP.Timeout = o.Timeout
	}
	if err := s.Validate(); err != nil {
		return Set{}, err
	}
	return s, nil
}
