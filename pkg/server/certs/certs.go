package certs

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"mediatrust-hq/orchestrator/pkg/config"
)

// ExpiryWarning is how close to expiry a certificate must be before it is
// logged as a warning.
const ExpiryWarning = 30 * 24 * time.Hour

// Load reads the configured certificate and returns a tls.Config serving
// it through the returned Reloader.
func Load(cfg *config.TLSConfig) (*tls.Config, *Reloader, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil, fmt.Errorf("tls is not enabled")
	}

	reloader := NewReloader(cfg.CertFile, cfg.KeyFile, cfg.ReloadInterval)
	if err := reloader.Reload(); err != nil {
		return nil, nil, err
	}

	// #nosec G402 - MinVersion is validated to be 1.2 or 1.3
	tlsConfig := &tls.Config{
		MinVersion:     parseVersion(cfg.MinVersion),
		GetCertificate: reloader.GetCertificate,
	}

	if cfg.ClientCAFile != "" {
		pool, err := loadCAPool(cfg.ClientCAFile)
		if err != nil {
			return nil, nil, err
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = parseClientAuth(cfg.ClientAuth)
	}

	return tlsConfig, reloader, nil
}

func parseVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

func parseClientAuth(mode string) tls.ClientAuthType {
	if mode == "verify_if_given" {
		return tls.VerifyClientCertIfGiven
	}
	return tls.RequireAndVerifyClientCert
}

func loadCAPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read client CA: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates found in client CA %s", path)
	}
	return pool, nil
}

// Validate checks that the leaf certificate is inside its validity window
// at now.
func Validate(leaf *x509.Certificate, now time.Time) error {
	if now.Before(leaf.NotBefore) {
		return fmt.Errorf("certificate is not yet valid (valid from %s)", leaf.NotBefore.Format(time.RFC3339))
	}
	if now.After(leaf.NotAfter) {
		return fmt.Errorf("certificate expired on %s", leaf.NotAfter.Format(time.RFC3339))
	}
	return nil
}
