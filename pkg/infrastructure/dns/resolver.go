package dns

import (
	"context"
	"fmt"
	"time"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// Resolver implements service.DNSResolver against exactly one name server
type Resolver struct {
	server  string
	timeout time.Duration
	client  *dns.Client
	log     *zap.Logger
}

// Config holds DNS resolver configuration
type Config struct {
	Server  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewResolver creates a new DNS resolver
func NewResolver(config Config) (*Resolver, error) {
	if config.Server == "" {
		return nil, fmt.Errorf("dns: resolver address is required")
	}
	if config.Timeout <= 0 {
		return nil, fmt.Errorf("dns: timeout must be > 0, got %s", config.Timeout)
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Resolver{
		server:  config.Server,
		timeout: config.Timeout,
		client: &dns.Client{
			Net:     "udp",
			Timeout: config.Timeout,
		},
		log: config.Logger.Named("dns"),
	}, nil
}

// Resolve implements service.DNSResolver. Only A records are considered.
func (r *Resolver) Resolve(ctx context.Context, domain string) (entity.Outcome[entity.Resolution], error) {
	resolution, err := r.ResolveWithDetails(ctx, domain)
	if err != nil {
		r.log.Debug("resolve failed", zap.String("domain", domain), zap.Error(err))
		return entity.NotOk[entity.Resolution](), nil
	}
	return entity.Ok(entity.Resolution{IPs: resolution.IPs}), nil
}

// Resolution is the detailed answer of one query
type Resolution struct {
	Domain string
	IPs    []string
	Rcode  string
	RTT    time.Duration
}

// ResolveWithDetails sends one A query and returns the IPv4 answers
func (r *Resolver) ResolveWithDetails(ctx context.Context, domain string) (*Resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeA)
	msg.RecursionDesired = true

	resp, rtt, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.server, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("query %s: empty response", r.server)
	}

	resolution := &Resolution{
		Domain: domain,
		Rcode:  dns.RcodeToString[resp.Rcode],
		RTT:    rtt,
	}
	if resp.Rcode != dns.RcodeSuccess {
		return resolution, fmt.Errorf("rcode %s", resolution.Rcode)
	}

	for _, answer := range resp.Answer {
		if aRecord, ok := answer.(*dns.A); ok {
			resolution.IPs = append(resolution.IPs, aRecord.A.String())
		}
	}
	if len(resolution.IPs) == 0 {
		return resolution, fmt.Errorf("no A records")
	}

	return resolution, nil
}
