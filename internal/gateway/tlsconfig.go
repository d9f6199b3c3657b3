package gateway

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Credentials names the PEM files presented during the mutual TLS handshake.
//
// Paths are not checked for existence up front: a missing certificate or key
// surfaces as a connection-stage failure, the same way it would for a device
// whose credential files disappeared. Tests rely on that deferred-validation
// behavior.
type Credentials struct {
	CertFile      string
	KeyFile       string
	TrustRootFile string
}

// buildTLSConfig constructs the client TLS configuration for a mutually
// authenticated exchange with the gateway.
func buildTLSConfig(creds Credentials) (*tls.Config, error) {
	certificate, err := tls.LoadX509KeyPair(creds.CertFile, creds.KeyFile)
	if err != nil {
		return nil, NewCredentialLoadError("load client certificate", err).
			WithContext("cert_file", creds.CertFile).
			WithContext("key_file", creds.KeyFile)
	}

	caPool, err := loadTrustRoot(creds.TrustRootFile)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{certificate},
		RootCAs:      caPool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func loadTrustRoot(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewCredentialLoadError("read trust root bundle", err).
			WithContext("trust_root_file", path)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, NewCredentialLoadError(fmt.Sprintf("no certificates found in %s", path), nil).
			WithContext("trust_root_file", path)
	}
	return pool, nil
}
