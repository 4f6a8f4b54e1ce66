package service

import (
	"context"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
)

// DNSResolver resolves domain names to IPv4 addresses.
// A non-nil error is reserved for faults the implementation did not anticipate;
// every expected failure is reported as entity.NotOk.
type DNSResolver interface {
	Resolve(ctx context.Context, domain string) (entity.Outcome[entity.Resolution], error)
}

// HTTPProber checks whether a domain serves a homepage over HTTP(S)
type HTTPProber interface {
	Probe(ctx context.Context, domain string) (entity.Outcome[entity.Reachability], error)
}

// TextExtractor fetches a URL and extracts its readable text
type TextExtractor interface {
	Extract(ctx context.Context, url string) (entity.Outcome[entity.Text], error)
}

// ResolverFunc adapts a function to DNSResolver
type ResolverFunc func(ctx context.Context, domain string) (entity.Outcome[entity.Resolution], error)

// Resolve implements DNSResolver
func (f ResolverFunc) Resolve(ctx context.Context, domain string) (entity.Outcome[entity.Resolution], error) {
	return f(ctx, domain)
}

// ProberFunc adapts a function to HTTPProber
type ProberFunc func(ctx context.Context, domain string) (entity.Outcome[entity.Reachability], error)

// Probe implements HTTPProber
func (f ProberFunc) Probe(ctx context.Context, domain string) (entity.Outcome[entity.Reachability], error) {
	return f(ctx, domain)
}

// ExtractorFunc adapts a function to TextExtractor
type ExtractorFunc func(ctx context.Context, url string) (entity.Outcome[entity.Text], error)

// Extract implements TextExtractor
func (f ExtractorFunc) Extract(ctx context.Context, url string) (entity.Outcome[entity.Text], error) {
	return f(ctx, url)
}
