package http

import (
	"context"
	"io"
	"net"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"go.uber.org/zap"
)

// Prober implements service.HTTPProber
type Prober struct {
	client *Client
	log    *zap.Logger
}

// NewProber creates a prober on top of a shared client
func NewProber(client *Client, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{client: client, log: logger.Named("probe")}
}

// Candidates returns the URLs tried for a domain, in order
func Candidates(domain string) []string {
	return []string{
		"https://" + domain,
		"https://www." + domain,
		"http://" + domain,
		"http://www." + domain,
	}
}

// Probe implements service.HTTPProber. The first candidate answering with a
// status in [200,400) ends the loop; a final host that is an IP literal is
// rejected and no further candidate is tried.
func (p *Prober) Probe(ctx context.Context, domain string) (entity.Outcome[entity.Reachability], error) {
	for _, candidate := range Candidates(domain) {
		if ctx.Err() != nil {
			break
		}

		reach, ok := p.try(ctx, candidate)
		if !ok {
			continue
		}

		if net.ParseIP(hostOf(reach.FinalURL)) != nil {
			p.log.Debug("final url is an ip literal",
				zap.String("domain", domain),
				zap.String("final_url", reach.FinalURL))
			return entity.NotOk[entity.Reachability](), nil
		}
		return entity.Ok(reach), nil
	}
	return entity.NotOk[entity.Reachability](), nil
}

func (p *Prober) try(ctx context.Context, candidate string) (entity.Reachability, bool) {
	resp, cancel, err := p.client.Get(ctx, candidate)
	if err != nil {
		p.log.Debug("candidate failed", zap.String("url", candidate), zap.Error(err))
		return entity.Reachability{}, false
	}
	defer cancel()
	defer resp.Body.Close()

	// drain a little so the connection closes cleanly; the body is not used
	_, _ = io.CopyN(io.Discard, resp.Body, 4096)

	if !isSuccess(resp.StatusCode) {
		p.log.Debug("candidate status", zap.String("url", candidate), zap.Int("status", resp.StatusCode))
		return entity.Reachability{}, false
	}

	final := resp.Request.URL
	return entity.Reachability{
		FinalURL:   final.String(),
		StatusCode: resp.StatusCode,
		UsedHTTPS:  final.Scheme == "https",
	}, true
}
