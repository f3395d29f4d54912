package crypto

import (
	"crypto/tls"
	"fmt"
)

// DefaultTLSConfig returns the TLS configuration used by the server.
func DefaultTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS13,
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
		},
	}
}

// LoadTLSConfig reads a PEM encoded certificate and key pair from disk and
// returns a server configuration using it.
func LoadTLSConfig(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed loading TLS certificate: %w", err)
	}

	cfg := DefaultTLSConfig()
	cfg.Certificates = []tls.Certificate{cert}

	return cfg, nil
}
