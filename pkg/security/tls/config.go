package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"
)

// Options describes the certificate pair served by the HTTP listener.
type Options struct {
	CertFile string
	KeyFile  string

	// MinVersion is "1.2" or "1.3". Empty means "1.2".
	MinVersion string

	// ReloadInterval is how often the pair is checked for renewal. Zero
	// disables reloading.
	ReloadInterval time.Duration
}

// ParseVersion maps a configured minimum version to its crypto/tls constant.
func ParseVersion(v string) (uint16, error) {
	switch v {
	case "1.2", "":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q (use 1.2 or 1.3)", v)
	}
}

// ServerConfig loads the pair described by opts and returns a tls.Config
// whose certificate follows renewals on disk until ctx is done.
func ServerConfig(ctx context.Context, opts Options, logger *slog.Logger) (*tls.Config, error) {
	if opts.CertFile == "" {
		return nil, fmt.Errorf("cert_file is required when TLS is enabled")
	}
	if opts.KeyFile == "" {
		return nil, fmt.Errorf("key_file is required when TLS is enabled")
	}

	version, err := ParseVersion(opts.MinVersion)
	if err != nil {
		return nil, err
	}

	reloader := NewCertificateReloader(opts.CertFile, opts.KeyFile, opts.ReloadInterval, logger)
	if err := reloader.Start(ctx); err != nil {
		return nil, err
	}

	return &tls.Config{
		MinVersion:     version,
		GetCertificate: reloader.GetCertificate,
	}, nil
}
