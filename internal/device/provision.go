package device

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// ProvisionOptions controls device directory provisioning.
type ProvisionOptions struct {
	// Hostname is written to the hostname file. Required.
	Hostname string

	// CommonName is the client certificate subject CN. Defaults to
	// "fake-device".
	CommonName string

	// Factory is recorded as the certificate's organizational unit, the
	// convention device gateways use to group device fleets.
	Factory string

	// ValidFor is the certificate validity window. Defaults to one year.
	ValidFor time.Duration
}

// Provision creates a complete device directory: a throwaway CA as the trust
// root, a client certificate and key signed by it, and the hostname file.
// Keys are ECDSA P-256, matching what device gateways issue in production.
func Provision(dir string, opts ProvisionOptions) error {
	if opts.Hostname == "" {
		return fmt.Errorf("hostname is required")
	}
	if opts.CommonName == "" {
		opts.CommonName = "fake-device"
	}
	if opts.ValidFor == 0 {
		opts.ValidFor = 365 * 24 * time.Hour
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create device directory: %w", err)
	}

	caCert, caCertPEM, caKey, err := generateCA(opts)
	if err != nil {
		return err
	}

	clientCertPEM, clientKeyPEM, err := generateClientCert(opts, caCert, caKey)
	if err != nil {
		return err
	}

	caKeyPEM, err := encodeECKeyPEM(caKey)
	if err != nil {
		return err
	}

	files := []struct {
		name string
		data []byte
		mode os.FileMode
	}{
		{TrustRootFile, caCertPEM, 0644},
		{CAKeyFile, caKeyPEM, 0600},
		{ClientCertFile, clientCertPEM, 0644},
		{PrivateKeyFile, clientKeyPEM, 0600},
		{HostnameFile, []byte(opts.Hostname + "\n"), 0644},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, f.mode); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	log.Info().
		Str("dir", dir).
		Str("hostname", opts.Hostname).
		Str("common_name", opts.CommonName).
		Msg("device directory provisioned")
	return nil
}

func generateCA(opts ProvisionOptions) (*x509.Certificate, []byte, *ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("generate CA key: %w", err)
	}

	serial, err := newSerialNumber()
	if err != nil {
		return nil, nil, nil, err
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:         opts.CommonName + "-ca",
			OrganizationalUnit: ouField(opts),
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(10 * 365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create CA certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse CA certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return cert, certPEM, key, nil
}

func generateClientCert(opts ProvisionOptions, caCert *x509.Certificate, caKey *ecdsa.PrivateKey) (certPEM, keyPEM []byte, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate client key: %w", err)
	}

	serial, err := newSerialNumber()
	if err != nil {
		return nil, nil, err
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:         opts.CommonName,
			OrganizationalUnit: ouField(opts),
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(opts.ValidFor),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, caCert, &key.PublicKey, caKey)
	if err != nil {
		return nil, nil, fmt.Errorf("create client certificate: %w", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM, err = encodeECKeyPEM(key)
	if err != nil {
		return nil, nil, err
	}
	return certPEM, keyPEM, nil
}

func encodeECKeyPEM(key *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
}

func newSerialNumber() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return nil, fmt.Errorf("generate serial number: %w", err)
	}
	return serial, nil
}

func ouField(opts ProvisionOptions) []string {
	if opts.Factory == "" {
		return nil
	}
	return []string{opts.Factory}
}
