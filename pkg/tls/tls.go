// Package tls provides server-side TLS configuration for the prediction API.
package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
)

// Config holds the TLS settings for the HTTP server.
type Config struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

// Validate checks that the configured certificate files exist when TLS is
// enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.CertFile == "" || c.KeyFile == "" {
		return errors.New("tls enabled but cert/key files not specified")
	}
	for _, path := range []string{c.CertFile, c.KeyFile} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("tls file %q: %w", path, err)
		}
	}
	return nil
}

// NewServerTLSConfig builds a TLS 1.3 server configuration. The certificate
// and key themselves are passed to ListenAndServeTLS by the caller.
func NewServerTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS13,
		CipherSuites: []uint16{
			tls.TLS_AES_128_GCM_SHA256,
			tls.TLS_AES_256_GCM_SHA384,
			tls.TLS_CHACHA20_POLY1305_SHA256,
		},
	}
}
