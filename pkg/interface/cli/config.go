package cli

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Config holds all application configuration
type Config struct {
	// Input/Output
	InputFile  string `short:"i" long:"input" env:"FUNNEL_INPUT" description:"Input file: .parquet, .jsonl/.ndjson or one domain per line (- for stdin)" default:"domains.txt"`
	OutputFile string `short:"o" long:"output" env:"FUNNEL_OUTPUT" description:"Output file: .parquet, or .jsonl/.ndjson (- for stdout)" default:"domains.parquet"`

	// Funnel
	LogInterval int `long:"log-interval" env:"FUNNEL_LOG_INTERVAL" description:"Records between progress checkpoints" default:"100"`
	TextMin     int `long:"text-min" env:"FUNNEL_TEXT_MIN" description:"Minimum homepage text length in characters" default:"200"`
	TextMax     int `long:"text-max" env:"FUNNEL_TEXT_MAX" description:"Maximum homepage text length in characters" default:"10000"`
	TimeoutMS   int `long:"timeout" env:"FUNNEL_TIMEOUT" description:"Per-request timeout in milliseconds" default:"8000"`
	Pipeline    int `long:"pipeline" env:"FUNNEL_PIPELINE" description:"Domains in flight at once; output order is preserved" default:"1"`

	// Concurrency
	DNSConcurrency  int `long:"dns-concurrency" env:"FUNNEL_DNS_CONCURRENCY" description:"Maximum concurrent DNS queries" default:"100"`
	HTTPConcurrency int `long:"http-concurrency" env:"FUNNEL_HTTP_CONCURRENCY" description:"Maximum concurrent HTTP probes" default:"20"`
	TextConcurrency int `long:"text-concurrency" env:"FUNNEL_TEXT_CONCURRENCY" description:"Maximum concurrent text extractions" default:"10"`

	// DNS
	Resolver string `long:"resolver" env:"FUNNEL_RESOLVER" description:"Resolver address (host:port)" default:"127.0.0.1:53"`

	// HTTP
	MaxRedirects    int    `long:"max-redirects" env:"FUNNEL_MAX_REDIRECTS" description:"Maximum redirects followed per request" default:"5"`
	MaxResponseSize int64  `long:"max-response-size" env:"FUNNEL_MAX_RESPONSE_SIZE" description:"Maximum HTTP response size in bytes" default:"10485760"`
	UserAgent       string `long:"user-agent" env:"FUNNEL_USER_AGENT" description:"HTTP User-Agent header (default: rotate built-in agents)"`
	VerifyTLS       bool   `long:"verify-tls" env:"FUNNEL_VERIFY_TLS" description:"Verify TLS certificates"`

	// Observability
	MetricsAddr string `long:"metrics-addr" env:"FUNNEL_METRICS_ADDR" description:"Serve Prometheus metrics on this address (e.g. :2112)"`
	LogLevel    string `long:"log-level" env:"FUNNEL_LOG_LEVEL" description:"Log level" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	LogJSON     bool   `long:"log-json" env:"FUNNEL_LOG_JSON" description:"Log in JSON"`

	// UI
	ShowProgress  bool `long:"progress" description:"Show a progress bar"`
	ShowDashboard bool `long:"dashboard" description:"Show interactive TUI dashboard"`
	Quiet         bool `short:"q" long:"quiet" description:"Only log warnings and errors, no summary"`
	Version       bool `short:"v" long:"version" description:"Print version and exit"`

	// Real timeout duration (not parsed from flags directly)
	Timeout time.Duration
}

// ParseFlags parses command line flags
func ParseFlags() (*Config, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses args into a validated config
func ParseArgs(args []string) (*Config, error) {
	cfg := &Config{}

	parser := flags.NewParser(cfg, flags.Default)
	parser.Usage = "[OPTIONS]"

	if _, err := parser.ParseArgs(args); err != nil {
		if flags.WroteHelp(err) {
			// Help has been printed by the library, exit cleanly
			os.Exit(0)
		}
		return nil, err
	}

	cfg.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	if _, _, err := net.SplitHostPort(cfg.Resolver); err != nil && cfg.Resolver != "" {
		cfg.Resolver = net.JoinHostPort(cfg.Resolver, "53")
	}
	if cfg.Quiet {
		cfg.ShowProgress = false
		cfg.ShowDashboard = false
	}
	if cfg.Version {
		return cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("input file is required")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file is required")
	}

	if c.LogInterval <= 0 {
		return fmt.Errorf("log interval must be > 0, got %d", c.LogInterval)
	}

	if c.TextMin <= 0 {
		return fmt.Errorf("text min must be > 0, got %d", c.TextMin)
	}

	if c.TextMax < c.TextMin {
		return fmt.Errorf("text max must be >= text min (%d), got %d", c.TextMin, c.TextMax)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %s", c.Timeout)
	}

	if c.Pipeline <= 0 {
		return fmt.Errorf("pipeline must be > 0, got %d", c.Pipeline)
	}

	for name, v := range map[string]int{
		"dns":  c.DNSConcurrency,
		"http": c.HTTPConcurrency,
		"text": c.TextConcurrency,
	} {
		if v <= 0 {
			return fmt.Errorf("%s concurrency must be > 0, got %d", name, v)
		}
	}

	if c.Resolver == "" {
		return fmt.Errorf("resolver address is required")
	}

	if c.MaxRedirects < 0 {
		return fmt.Errorf("max redirects must be >= 0, got %d", c.MaxRedirects)
	}

	if c.MaxResponseSize <= 0 {
		return fmt.Errorf("max response size must be > 0, got %d", c.MaxResponseSize)
	}

	if c.ShowDashboard && c.ShowProgress {
		return fmt.Errorf("--dashboard and --progress are mutually exclusive")
	}

	return nil
}
