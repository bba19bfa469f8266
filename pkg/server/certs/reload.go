package certs

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Reloader holds the serving certificate and swaps it when the files on
// disk change.
type Reloader struct {
	certFile string
	keyFile  string
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	cert     *tls.Certificate
	certTime time.Time
	keyTime  time.Time
}

// NewReloader creates a reloader for the given key pair. Nothing is read
// until Reload is called.
func NewReloader(certFile, keyFile string, interval time.Duration) *Reloader {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reloader{
		certFile: certFile,
		keyFile:  keyFile,
		interval: interval,
		logger:   slog.Default().With("component", "certs"),
		now:      time.Now,
	}
}

// Watch polls the files every interval until ctx is cancelled.
func (r *Reloader) Watch(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.ReloadIfChanged(); err != nil {
				r.logger.Error("certificate reload rejected; keeping previous certificate",
					"error", err,
					"cert_file", r.certFile,
				)
			}
		}
	}
}

// ReloadIfChanged reloads when either file is newer than the loaded pair.
// It reports whether a new certificate is now being served.
func (r *Reloader) ReloadIfChanged() (bool, error) {
	certTime, keyTime, err := r.modTimes()
	if err != nil {
		return false, err
	}

	r.mu.RLock()
	changed := certTime.After(r.certTime) || keyTime.After(r.keyTime)
	r.mu.RUnlock()

	if !changed {
		return false, nil
	}
	if err := r.Reload(); err != nil {
		return false, err
	}
	return true, nil
}

// Reload loads and validates the key pair, replacing the served
// certificate on success.
func (r *Reloader) Reload() error {
	certTime, keyTime, err := r.modTimes()
	if err != nil {
		return err
	}

	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}
	now := r.now()
	if err := Validate(leaf, now); err != nil {
		return err
	}
	cert.Leaf = leaf

	r.mu.Lock()
	r.cert = &cert
	r.certTime = certTime
	r.keyTime = keyTime
	r.mu.Unlock()

	attrs := []any{
		"subject", leaf.Subject.CommonName,
		"issuer", leaf.Issuer.CommonName,
		"expires_at", leaf.NotAfter.Format(time.RFC3339),
	}
	if leaf.NotAfter.Sub(now) < ExpiryWarning {
		r.logger.Warn("certificate expiring soon", attrs...)
	} else {
		r.logger.Info("certificate loaded", attrs...)
	}
	return nil
}

func (r *Reloader) modTimes() (time.Time, time.Time, error) {
	certInfo, err := os.Stat(r.certFile)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("certificate file: %w", err)
	}
	keyInfo, err := os.Stat(r.keyFile)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("key file: %w", err)
	}
	return certInfo.ModTime(), keyInfo.ModTime(), nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *Reloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cert == nil {
		return nil, errors.New("no certificate loaded")
	}
	return r.cert, nil
}
