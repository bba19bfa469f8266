package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediatrust-hq/orchestrator/pkg/config"
)

// writePair writes a self-signed certificate for localhost and returns the
// PEM-encoded certificate.
func writePair(t *testing.T, certFile, keyFile, cn string, notBefore, notAfter time.Time) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: cn},
		Issuer:                pkix.Name{CommonName: cn},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		DNSNames:              []string{"localhost"},
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certPEM
}

func pairPaths(t *testing.T) (string, string) {
	dir := t.TempDir()
	return filepath.Join(dir, "tls.crt"), filepath.Join(dir, "tls.key")
}

func servedCN(t *testing.T, r *Reloader) string {
	t.Helper()
	cert, err := r.GetCertificate(nil)
	require.NoError(t, err)
	return cert.Leaf.Subject.CommonName
}

// touch moves both files' modification time forward so a rewrite within
// the same second is still seen as a change.
func touch(t *testing.T, files ...string) {
	later := time.Now().Add(time.Minute)
	for _, f := range files {
		require.NoError(t, os.Chtimes(f, later, later))
	}
}

func TestLoad_Handshake(t *testing.T) {
	certFile, keyFile := pairPaths(t)
	certPEM := writePair(t, certFile, keyFile, "orchestrator", time.Now().Add(-time.Hour), time.Now().Add(90*24*time.Hour))

	tlsConfig, reloader, err := Load(&config.TLSConfig{
		Enabled:    true,
		CertFile:   certFile,
		KeyFile:    keyFile,
		MinVersion: "1.3",
	})
	require.NoError(t, err)
	require.NotNil(t, reloader)
	assert.Equal(t, uint16(tls.VersionTLS13), tlsConfig.MinVersion)
	assert.Equal(t, tls.NoClientCert, tlsConfig.ClientAuth)

	ln, err := tls.Listen("tcp", "127.0.0.1:0", tlsConfig)
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.(*tls.Conn).Handshake()
	}()

	roots := x509.NewCertPool()
	require.True(t, roots.AppendCertsFromPEM(certPEM))

	conn, err := tls.Dial("tcp", ln.Addr().String(), &tls.Config{
		RootCAs:    roots,
		ServerName: "localhost",
		MinVersion: tls.VersionTLS12,
	})
	require.NoError(t, err)
	defer conn.Close()

	state := conn.ConnectionState()
	assert.Equal(t, uint16(tls.VersionTLS13), state.Version)
	assert.Equal(t, "orchestrator", state.PeerCertificates[0].Subject.CommonName)
}

func TestLoad_Errors(t *testing.T) {
	certFile, keyFile := pairPaths(t)
	writePair(t, certFile, keyFile, "orchestrator", time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	bogusCA := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(bogusCA, []byte("not a certificate"), 0o600))

	tests := []struct {
		name string
		cfg  *config.TLSConfig
	}{
		{"disabled", &config.TLSConfig{}},
		{"missing files", &config.TLSConfig{Enabled: true, CertFile: "/nope.crt", KeyFile: "/nope.key"}},
		{"key is not a certificate", &config.TLSConfig{Enabled: true, CertFile: keyFile, KeyFile: keyFile}},
		{"unparseable client ca", &config.TLSConfig{Enabled: true, CertFile: certFile, KeyFile: keyFile, ClientCAFile: bogusCA}},
		{"missing client ca", &config.TLSConfig{Enabled: true, CertFile: certFile, KeyFile: keyFile, ClientCAFile: "/nope.pem"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestLoad_ClientCA(t *testing.T) {
	certFile, keyFile := pairPaths(t)
	writePair(t, certFile, keyFile, "orchestrator", time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	for mode, want := range map[string]tls.ClientAuthType{
		"require":         tls.RequireAndVerifyClientCert,
		"verify_if_given": tls.VerifyClientCertIfGiven,
	} {
		t.Run(mode, func(t *testing.T) {
			tlsConfig, _, err := Load(&config.TLSConfig{
				Enabled:      true,
				CertFile:     certFile,
				KeyFile:      keyFile,
				ClientCAFile: certFile,
				ClientAuth:   mode,
			})
			require.NoError(t, err)
			assert.Equal(t, want, tlsConfig.ClientAuth)
			assert.NotNil(t, tlsConfig.ClientCAs)
			assert.Equal(t, uint16(tls.VersionTLS12), tlsConfig.MinVersion)
		})
	}
}

func TestReloader_ReloadIfChanged(t *testing.T) {
	certFile, keyFile := pairPaths(t)
	writePair(t, certFile, keyFile, "first", time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	r := NewReloader(certFile, keyFile, time.Minute)
	require.NoError(t, r.Reload())
	assert.Equal(t, "first", servedCN(t, r))

	changed, err := r.ReloadIfChanged()
	require.NoError(t, err)
	assert.False(t, changed, "untouched files should not reload")

	writePair(t, certFile, keyFile, "second", time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	touch(t, certFile, keyFile)

	changed, err = r.ReloadIfChanged()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "second", servedCN(t, r))
}

func TestReloader_KeepsPreviousOnBadCertificate(t *testing.T) {
	certFile, keyFile := pairPaths(t)
	writePair(t, certFile, keyFile, "good", time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	r := NewReloader(certFile, keyFile, time.Minute)
	require.NoError(t, r.Reload())

	writePair(t, certFile, keyFile, "expired", time.Now().Add(-48*time.Hour), time.Now().Add(-24*time.Hour))
	touch(t, certFile, keyFile)

	changed, err := r.ReloadIfChanged()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
	assert.False(t, changed)
	assert.Equal(t, "good", servedCN(t, r))
}

func TestReloader_NothingLoaded(t *testing.T) {
	r := NewReloader("a.crt", "a.key", 0)
	_, err := r.GetCertificate(nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	leaf := &x509.Certificate{
		NotBefore: now.Add(-time.Hour),
		NotAfter:  now.Add(time.Hour),
	}

	assert.NoError(t, Validate(leaf, now))
	assert.ErrorContains(t, Validate(leaf, now.Add(-2*time.Hour)), "not yet valid")
	assert.ErrorContains(t, Validate(leaf, now.Add(2*time.Hour)), "expired")
}
