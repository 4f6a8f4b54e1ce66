package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"
)

// ErrTooManyRedirects is returned by the client when a redirect chain is longer than allowed
var ErrTooManyRedirects = errors.New("too many redirects")

// ClientConfig holds HTTP client configuration shared by the prober and the extractor
type ClientConfig struct {
	Timeout         time.Duration
	MaxRedirects    int
	MaxResponseSize int64
	UserAgent       string
	VerifyTLS       bool

	// DialContext overrides the dialer, used by tests to route names to local servers
	DialContext func(ctx context.Context, network, addr string) (net.Conn, error)
}

// UserAgent provides random agents
type UserAgent struct {
	agents []string
	mu     sync.RWMutex
}

// NewUserAgent creates agent provider. A fixed agent disables rotation.
func NewUserAgent(fixed string) *UserAgent {
	if fixed != "" {
		return &UserAgent{agents: []string{fixed}}
	}
	return &UserAgent{
		agents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
		},
	}
}

// Random returns random agent
func (ua *UserAgent) Random() string {
	ua.mu.RLock()
	defer ua.mu.RUnlock()
	if len(ua.agents) == 0 {
		return ""
	}
	return ua.agents[rand.Intn(len(ua.agents))]
}

// Client wraps http.Client with the funnel's transport policy
type Client struct {
	client          *http.Client
	userAgent       *UserAgent
	timeout         time.Duration
	maxResponseSize int64
}

// NewClient creates client
func NewClient(config ClientConfig) (*Client, error) {
	if config.Timeout <= 0 {
		return nil, fmt.Errorf("http: timeout must be > 0, got %s", config.Timeout)
	}
	if config.MaxRedirects < 0 {
		return nil, fmt.Errorf("http: max redirects must be >= 0, got %d", config.MaxRedirects)
	}
	if config.MaxResponseSize <= 0 {
		return nil, fmt.Errorf("http: max response size must be > 0, got %d", config.MaxResponseSize)
	}

	dial := config.DialContext
	if dial == nil {
		dial = (&net.Dialer{
			Timeout:   config.Timeout,
			KeepAlive: 0,
		}).DialContext
	}

	transport := &http.Transport{
		DialContext:           dial,
		TLSHandshakeTimeout:   config.Timeout,
		IdleConnTimeout:       config.Timeout,
		ResponseHeaderTimeout: config.Timeout,
		DisableKeepAlives:     true,
		MaxIdleConns:          0,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !config.VerifyTLS,
		},
	}

	maxRedirects := config.MaxRedirects
	return &Client{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
		userAgent:       NewUserAgent(config.UserAgent),
		timeout:         config.Timeout,
		maxResponseSize: config.MaxResponseSize,
	}, nil
}

// Get performs one GET bounded by the client timeout. The caller owns the
// returned cancel func and must call it after the body has been consumed.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("User-Agent", c.userAgent.Random())
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return resp, cancel, nil
}

// MaxResponseSize returns the body cap in bytes
func (c *Client) MaxResponseSize() int64 {
	return c.maxResponseSize
}

// isSuccess reports whether a final status counts as reachable
func isSuccess(code int) bool {
	return code >= 200 && code < 400
}
