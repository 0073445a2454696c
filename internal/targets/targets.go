// Package targets holds the set of hosts, domains, ports and URLs a run
// probes, and turns it into probe specs.
package targets

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jaxxstorm/netdiag/internal/model"
	"github.com/jaxxstorm/netdiag/internal/probe"
	"gopkg.in/yaml.v3"
)

type Set struct {
	Ping PingTargets `yaml:"ping"`
	DNS  DNSTargets  `yaml:"dns"`
	TCP  TCPTargets  `yaml:"tcp"`
	HTTP HTTPTargets `yaml:"http"`
}

type PingTargets struct {
	Count   int           `yaml:"count"`
	Timeout time.Duration `yaml:"timeout"`
	Hosts   []string      `yaml:"hosts"`
}

type DNSTargets struct {
	Resolver string        `yaml:"resolver"`
	Timeout  time.Duration `yaml:"timeout"`
	Domains  []string      `yaml:"domains"`
}

type TCPTargets struct {
	Timeout time.Duration `yaml:"timeout"`
	Ports   []HostPort    `yaml:"ports"`
}

type HTTPTargets struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	URLs      []string      `yaml:"urls"`
}

type HostPort struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (hp HostPort) String() string {
	return net.JoinHostPort(hp.Host, strconv.Itoa(hp.Port))
}

// UnmarshalYAML accepts either "host:port" or {host, port}.
func (hp *HostPort) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := ParseHostPort(node.Value)
		if err != nil {
			return err
		}
		*hp = parsed
		return nil
	}
	type plain HostPort
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*hp = HostPort(p)
	return nil
}

func (hp HostPort) MarshalYAML() (any, error) {
	return hp.String(), nil
}

func ParseHostPort(value string) (HostPort, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(value))
	if err != nil {
		return HostPort{}, fmt.Errorf("invalid host:port %q: %w", value, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return HostPort{}, fmt.Errorf("invalid port in %q: %w", value, err)
	}
	return HostPort{Host: host, Port: port}, nil
}

// Default is the built-in target set.
func Default() Set {
	return Set{
		Ping: PingTargets{
			Count:   probe.DefaultPingCount,
			Timeout: probe.DefaultPingTimeout,
			Hosts:   []string{"8.8.8.8", "baidu.com", "google.com"},
		},
		DNS: DNSTargets{
			Resolver: probe.DefaultResolver,
			Timeout:  probe.DefaultDNSTimeout,
			Domains:  []string{"baidu.com", "google.com", "github.com"},
		},
		TCP: TCPTargets{
			Timeout: probe.DefaultTCPTimeout,
			Ports: []HostPort{
				{Host: "baidu.com", Port: 80},
				{Host: "baidu.com", Port: 443},
				{Host: "google.com", Port: 80},
				{Host: "google.com", Port: 443},
			},
		},
		HTTP: HTTPTargets{
			Timeout:   probe.DefaultHTTPTimeout,
			UserAgent: probe.DefaultUserAgent,
			URLs:      []string{"http://baidu.com", "https://baidu.com"},
		},
	}
}

// Load reads a YAML target file on top of the defaults. A section listed
// in the file replaces that section's default targets; an omitted list
// keeps them. An explicitly empty list disables the section.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("read targets: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Set, error) {
	set := Default()
	if err := yaml.Unmarshal(data, &set); err != nil {
		return Set{}, fmt.Errorf("parse targets: %w", err)
	}
	resolver, err := ResolveResolver(set.DNS.Resolver)
	if err != nil {
		return Set{}, err
	}
	set.DNS.Resolver = resolver
	if err := set.Validate(); err != nil {
		return Set{}, err
	}
	return set, nil
}

func (s Set) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

func (s Set) Validate() error {
	var errs []error
	if s.Ping.Count <= 0 {
		errs = append(errs, fmt.Errorf("ping: count must be positive, got %d", s.Ping.Count))
	}
	for _, host := range s.Ping.Hosts {
		if strings.TrimSpace(host) == "" {
			errs = append(errs, errors.New("ping: empty host"))
		}
		if strings.HasPrefix(strings.TrimSpace(host), "-") {
			errs = append(errs, fmt.Errorf("ping: invalid host %q", host))
		}
	}
	for _, domain := range s.DNS.Domains {
		if strings.TrimSpace(domain) == "" || strings.Contains(domain, "://") {
			errs = append(errs, fmt.Errorf("dns: invalid domain %q", domain))
		}
	}
	for _, hp := range s.TCP.Ports {
		if strings.TrimSpace(hp.Host) == "" {
			errs = append(errs, fmt.Errorf("tcp: empty host in %q", hp.String()))
		}
		if hp.Port <= 0 || hp.Port > 65535 {
			errs = append(errs, fmt.Errorf("tcp: port out of range in %q", hp.String()))
		}
	}
	for _, raw := range s.HTTP.URLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("http: invalid url %q", raw))
		}
	}
	for name, d := range map[string]time.Duration{"ping": s.Ping.Timeout, "dns": s.DNS.Timeout, "tcp": s.TCP.Timeout, "http": s.HTTP.Timeout} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s: negative timeout %s", name, d))
		}
	}
	return errors.Join(errs...)
}

// Specs flattens the set in ping, DNS, TCP, HTTP order.
func (s Set) Specs() []model.ProbeSpec {
	specs := []model.ProbeSpec{}
	for _, host := range s.Ping.Hosts {
		specs = append(specs, model.ProbeSpec{Kind: model.KindPing, Target: host, Count: s.Ping.Count, Timeout: s.Ping.Timeout})
	}
	for _, domain := range s.DNS.Domains {
		specs = append(specs, model.ProbeSpec{Kind: model.KindDNS, Target: domain, Resolver: s.DNS.Resolver, Timeout: s.DNS.Timeout})
	}
	for _, hp := range s.TCP.Ports {
		specs = append(specs, model.ProbeSpec{Kind: model.KindTCP, Target: hp.Host, Port: hp.Port, Timeout: s.TCP.Timeout})
	}
	for _, u := range s.HTTP.URLs {
		specs = append(specs, model.ProbeSpec{Kind: model.KindHTTP, Target: u, UserAgent: s.HTTP.UserAgent, Timeout: s.HTTP.Timeout})
	}
	return specs
}
